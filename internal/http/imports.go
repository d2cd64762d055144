package http

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ABFCode/Librium-sub000/internal/auth"
	"github.com/ABFCode/Librium-sub000/internal/entities"
	"github.com/ABFCode/Librium-sub000/internal/importers"
)

// SubmitImportRequest queues a file uploaded earlier through an upload URL.
type SubmitImportRequest struct {
	StorageID string `json:"storageId" binding:"required"`
	FileName  string `json:"fileName"`
	UserID    uint   `json:"userId"`
}

// SubmitImportResponse is returned as soon as a job is queued.
type SubmitImportResponse struct {
	JobID    uint                  `json:"jobId"`
	Status   entities.ImportStatus `json:"status"`
	FileName string                `json:"fileName"`
}

type RetryImportRequest struct {
	JobID uint `json:"jobId" binding:"required"`
}

type RetryImportResponse struct {
	JobID   uint                  `json:"jobId"`
	Status  entities.ImportStatus `json:"status"`
	Attempt int                   `json:"attempt"`
}

// ImportsController handles EPUB submissions and job status.
type ImportsController struct {
	imports       ImportService
	users         UserLookup
	explicitOwner bool
}

// NewImportsController creates a controller. When explicitOwner is set, a
// locally identified caller may name the owner with userId.
func NewImportsController(imports ImportService, users UserLookup, explicitOwner bool) *ImportsController {
	return &ImportsController{imports: imports, users: users, explicitOwner: explicitOwner}
}

// Submit handles POST /api/imports with either a multipart "file" field or a
// JSON body referencing an uploaded blob.
func (ic *ImportsController) Submit(c *gin.Context) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		ic.submitMultipart(c)
		return
	}

	var req SubmitImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "file or storageId is required")
		return
	}
	ownerID, ok := ic.resolveOwner(c, req.UserID)
	if !ok {
		return
	}

	job, err := ic.imports.SubmitStored(c.Request.Context(), ownerID, req.StorageID, req.FileName)
	if err != nil {
		respondSubmitError(c, err)
		return
	}
	respondAccepted(c, SubmitImportResponse{JobID: job.ID, Status: job.Status, FileName: job.FileName})
}

func (ic *ImportsController) submitMultipart(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		respondBadRequest(c, "file is required")
		return
	}

	var explicit uint
	if raw := c.PostForm("userId"); raw != "" {
		id, ok := parseUint(raw)
		if !ok {
			respondBadRequest(c, "invalid userId")
			return
		}
		explicit = id
	}
	ownerID, ok := ic.resolveOwner(c, explicit)
	if !ok {
		return
	}

	job, err := ic.submitFile(c, ownerID, header)
	if err != nil {
		respondSubmitError(c, err)
		return
	}
	respondAccepted(c, SubmitImportResponse{JobID: job.ID, Status: job.Status, FileName: job.FileName})
}

func (ic *ImportsController) submitFile(c *gin.Context, ownerID uint, header *multipart.FileHeader) (*entities.ImportJob, error) {
	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ic.imports.Submit(c.Request.Context(), ownerID, header.Filename, file)
}

// resolveOwner returns the viewer, or the explicitly named user when the
// server runs without authentication and the viewer is the local identity.
func (ic *ImportsController) resolveOwner(c *gin.Context, explicit uint) (uint, bool) {
	viewer := GetUserID(c)
	if explicit == 0 || explicit == viewer {
		return viewer, true
	}
	if !ic.explicitOwner || auth.GetAuthType(c) != auth.AuthTypeLocal {
		respondForbidden(c, "userId is only accepted with local authentication")
		return 0, false
	}
	if _, err := ic.users.GetUserByID(explicit); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "user")
		} else {
			respondInternalError(c, err, "resolve import owner")
		}
		return 0, false
	}
	return explicit, true
}

func respondSubmitError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, importers.ErrNotEPUB):
		respondError(c, http.StatusUnsupportedMediaType, err.Error())
	case errors.Is(err, importers.ErrFileTooLarge):
		respondError(c, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, importers.ErrBlobNotFound):
		respondNotFound(c, "uploaded file")
	case errors.Is(err, importers.ErrBlobNotOwned):
		respondForbidden(c, err.Error())
	default:
		respondInternalError(c, err, "submit import")
	}
}

// Retry handles POST /api/imports/retry
func (ic *ImportsController) Retry(c *gin.Context) {
	var req RetryImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "jobId is required")
		return
	}

	job, err := ic.imports.Retry(c.Request.Context(), req.JobID, GetUserID(c))
	if errors.Is(err, importers.ErrNotRetryable) {
		respondConflict(c, err.Error())
		return
	}
	if err != nil {
		respondLookupError(c, err, "import")
		return
	}
	respondAccepted(c, RetryImportResponse{JobID: job.ID, Status: job.Status, Attempt: job.Attempt})
}

// Status handles GET /api/imports/:id
func (ic *ImportsController) Status(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	job, err := ic.imports.Status(id, GetUserID(c))
	if err != nil {
		respondLookupError(c, err, "import")
		return
	}
	c.JSON(http.StatusOK, job)
}

// List handles GET /api/imports
func (ic *ImportsController) List(c *gin.Context) {
	limit, ok := parseIntQuery(c, "limit", 0)
	if !ok {
		return
	}
	jobs, err := ic.imports.List(GetUserID(c), limit)
	if err != nil {
		respondInternalError(c, err, "list imports")
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": jobs, "count": len(jobs)})
}

// Clear handles DELETE /api/imports
func (ic *ImportsController) Clear(c *gin.Context) {
	removed, err := ic.imports.Clear(GetUserID(c))
	if err != nil {
		respondInternalError(c, err, "clear imports")
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}
