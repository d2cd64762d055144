package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ABFCode/Librium-sub000/internal/storage"
)

// StorageController issues and accepts direct upload URLs.
type StorageController struct {
	gateway   UploadGateway
	maxUpload int64
}

func NewStorageController(gateway UploadGateway, maxUpload int64) *StorageController {
	return &StorageController{gateway: gateway, maxUpload: maxUpload}
}

// IssueUploadURL handles POST /api/storage/upload-url
func (sc *StorageController) IssueUploadURL(c *gin.Context) {
	ticket, err := sc.gateway.IssueUploadURL(c.Request.Context(), GetUserID(c))
	if err != nil {
		respondInternalError(c, err, "issue upload url")
		return
	}
	c.JSON(http.StatusOK, ticket)
}

// Upload handles PUT /api/storage/upload/:token. The token is the credential,
// so this route sits outside the authenticated group.
func (sc *StorageController) Upload(c *gin.Context) {
	body := c.Request.Body
	if sc.maxUpload > 0 {
		body = http.MaxBytesReader(c.Writer, body, sc.maxUpload+1)
	}

	info, err := sc.gateway.AcceptUpload(c.Request.Context(), c.Param("token"), body)
	if err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, storage.ErrInvalidUploadToken):
			respondForbidden(c, err.Error())
		case errors.Is(err, storage.ErrUploadUsed):
			respondConflict(c, err.Error())
		case errors.Is(err, storage.ErrTooLarge), errors.As(err, &maxErr):
			respondError(c, http.StatusRequestEntityTooLarge, "upload exceeds the maximum size")
		default:
			respondInternalError(c, err, "accept upload")
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"storageId":   info.ID,
		"size":        info.Size,
		"contentType": info.ContentType,
	})
}
