package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ABFCode/Librium-sub000/internal/database/progress"
	"github.com/ABFCode/Librium-sub000/internal/entities"
	"github.com/ABFCode/Librium-sub000/internal/reader"
)

// ProgressResponse is the saved position together with the section to open.
type ProgressResponse struct {
	Progress *entities.UserBook `json:"progress"`
	Plan     reader.Plan        `json:"plan"`
}

// ResumeRequest carries the measurements of a freshly rendered section.
type ResumeRequest struct {
	SectionID uint            `json:"sectionId" binding:"required"`
	Viewport  reader.Viewport `json:"viewport"`
	// ChunkTops maps chunk index to the chunk's offset from the top of the content.
	ChunkTops map[int]float64 `json:"chunkTops"`
	// Target is an explicit scroll position, e.g. from a clicked bookmark.
	Target *float64 `json:"target"`
}

type ResumeResponse struct {
	SectionID uint `json:"sectionId"`
	reader.Resolution
}

type CreateBookmarkRequest struct {
	SectionID  uint    `json:"sectionId" binding:"required"`
	ChunkIndex int     `json:"chunkIndex" binding:"min=0"`
	Offset     float64 `json:"offset" binding:"min=0"`
	Label      string  `json:"label" binding:"max=256"`
}

// ProgressController handles reading progress, resume decisions and bookmarks.
type ProgressController struct {
	books    BookStore
	progress ProgressStore
}

func NewProgressController(books BookStore, progress ProgressStore) *ProgressController {
	return &ProgressController{books: books, progress: progress}
}

// Get handles GET /api/books/:id/progress. The first view creates the zero row.
func (pc *ProgressController) Get(c *gin.Context) {
	book, ok := pc.ownedBook(c)
	if !ok {
		return
	}
	userID := GetUserID(c)

	row, err := pc.progress.GetOrCreateUserBook(userID, book.ID)
	if err != nil {
		respondInternalError(c, err, "load progress")
		return
	}
	sections, err := pc.books.ListSections(book.ID)
	if err != nil {
		respondInternalError(c, err, "list sections")
		return
	}
	c.JSON(http.StatusOK, ProgressResponse{Progress: row, Plan: reader.PlanResume(row, sections)})
}

// Save handles PUT /api/books/:id/progress. Last write wins.
func (pc *ProgressController) Save(c *gin.Context) {
	book, ok := pc.ownedBook(c)
	if !ok {
		return
	}
	var cp progress.Checkpoint
	if err := c.ShouldBindJSON(&cp); err != nil {
		respondBadRequest(c, "invalid checkpoint")
		return
	}
	section, ok := pc.sectionInBook(c, *cp.SectionID, book.ID)
	if !ok {
		return
	}
	if section.OrderIndex != cp.SectionIndex {
		respondBadRequest(c, "sectionIndex does not match sectionId")
		return
	}

	row, err := pc.progress.SaveCheckpoint(GetUserID(c), book.ID, cp)
	if err != nil {
		respondInternalError(c, err, "save progress")
		return
	}
	c.JSON(http.StatusOK, row)
}

// Resume handles POST /api/books/:id/resume: where to scroll in the section
// the client has just rendered.
func (pc *ProgressController) Resume(c *gin.Context) {
	book, ok := pc.ownedBook(c)
	if !ok {
		return
	}
	var req ResumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "sectionId is required")
		return
	}
	if _, ok := pc.sectionInBook(c, req.SectionID, book.ID); !ok {
		return
	}

	row, err := pc.progress.GetOrCreateUserBook(GetUserID(c), book.ID)
	if err != nil {
		respondInternalError(c, err, "load progress")
		return
	}
	sections, err := pc.books.ListSections(book.ID)
	if err != nil {
		respondInternalError(c, err, "list sections")
		return
	}

	in := reader.Inputs{
		Target:    req.Target,
		Viewport:  req.Viewport,
		ChunkTops: req.ChunkTops,
	}
	// Saved progress applies to exactly the section the plan would open.
	if plan := reader.PlanResume(row, sections); plan.Section != nil && plan.Section.ID == req.SectionID {
		in.Saved = plan.Saved
	}
	c.JSON(http.StatusOK, ResumeResponse{SectionID: req.SectionID, Resolution: reader.Resolve(in)})
}

// ListBookmarks handles GET /api/books/:id/bookmarks
func (pc *ProgressController) ListBookmarks(c *gin.Context) {
	book, ok := pc.ownedBook(c)
	if !ok {
		return
	}
	bookmarks, err := pc.progress.ListBookmarks(GetUserID(c), book.ID)
	if err != nil {
		respondInternalError(c, err, "list bookmarks")
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookmarks": bookmarks, "count": len(bookmarks)})
}

// CreateBookmark handles POST /api/books/:id/bookmarks
func (pc *ProgressController) CreateBookmark(c *gin.Context) {
	book, ok := pc.ownedBook(c)
	if !ok {
		return
	}
	var req CreateBookmarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid bookmark")
		return
	}
	if _, ok := pc.sectionInBook(c, req.SectionID, book.ID); !ok {
		return
	}

	bookmark := &entities.Bookmark{
		UserID:     GetUserID(c),
		BookID:     book.ID,
		SectionID:  req.SectionID,
		ChunkIndex: req.ChunkIndex,
		Offset:     req.Offset,
		Label:      strings.TrimSpace(req.Label),
	}
	if err := pc.progress.CreateBookmark(bookmark); err != nil {
		respondInternalError(c, err, "create bookmark")
		return
	}
	respondCreated(c, bookmark)
}

// DeleteBookmark handles DELETE /api/bookmarks/:id
func (pc *ProgressController) DeleteBookmark(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := pc.progress.DeleteBookmark(id, GetUserID(c)); err != nil {
		respondLookupError(c, err, "bookmark")
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookmarkId": id, "deleted": true})
}

func (pc *ProgressController) ownedBook(c *gin.Context) (*entities.Book, bool) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return nil, false
	}
	book, err := pc.books.GetBookForOwner(id, GetUserID(c))
	if err != nil {
		respondLookupError(c, err, "book")
		return nil, false
	}
	return book, true
}

// sectionInBook checks the section exists and belongs to bookID.
func (pc *ProgressController) sectionInBook(c *gin.Context, sectionID, bookID uint) (*entities.Section, bool) {
	section, err := pc.books.GetSectionForOwner(sectionID, GetUserID(c))
	if err != nil {
		respondLookupError(c, err, "section")
		return nil, false
	}
	if section.BookID != bookID {
		respondBadRequest(c, "section does not belong to this book")
		return nil, false
	}
	return section, true
}
