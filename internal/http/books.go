package http

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ABFCode/Librium-sub000/internal/entities"
	"github.com/ABFCode/Librium-sub000/internal/logging"
	"github.com/ABFCode/Librium-sub000/internal/storage"
)

// DefaultChunkPage is the page size used when no limit is given.
const DefaultChunkPage = 50

// SectionContentResponse is the renderable content of one section. Blocks is
// null when only plain text is available.
type SectionContentResponse struct {
	SectionID uint            `json:"sectionId"`
	Text      string          `json:"text"`
	Blocks    json.RawMessage `json:"blocks"`
}

// BooksController serves the library and book content.
type BooksController struct {
	books   BookStore
	blobs   BlobReader
	cleaner BlobCleaner
}

func NewBooksController(books BookStore, blobs BlobReader, cleaner BlobCleaner) *BooksController {
	return &BooksController{books: books, blobs: blobs, cleaner: cleaner}
}

// List handles GET /api/books
func (bc *BooksController) List(c *gin.Context) {
	list, err := bc.books.ListBooksForOwner(GetUserID(c))
	if err != nil {
		respondInternalError(c, err, "list books")
		return
	}
	c.JSON(http.StatusOK, gin.H{"books": list, "count": len(list)})
}

// Get handles GET /api/books/:id
func (bc *BooksController) Get(c *gin.Context) {
	book, ok := bc.ownedBook(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, book)
}

// Delete handles DELETE /api/books/:id. Rows go first; blobs are cleaned up
// in the background.
func (bc *BooksController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	blobIDs, err := bc.books.DeleteBookForOwner(id, GetUserID(c))
	if err != nil {
		respondLookupError(c, err, "book")
		return
	}
	if err := bc.cleaner.EnqueueDeleteBlobs(c.Request.Context(), id, blobIDs); err != nil {
		logging.Warn("Failed to schedule blob cleanup", zap.Uint("book_id", id), zap.Int("blobs", len(blobIDs)), zap.Error(err))
	}
	c.JSON(http.StatusOK, gin.H{"bookId": id, "deleted": true})
}

// Sections handles GET /api/books/:id/sections
func (bc *BooksController) Sections(c *gin.Context) {
	book, ok := bc.ownedBook(c)
	if !ok {
		return
	}
	sections, err := bc.books.ListSections(book.ID)
	if err != nil {
		respondInternalError(c, err, "list sections")
		return
	}
	c.JSON(http.StatusOK, gin.H{"sections": sections, "count": len(sections)})
}

// Chunks handles GET /api/sections/:id/chunks?startIndex=&limit=
func (bc *BooksController) Chunks(c *gin.Context) {
	section, ok := bc.ownedSection(c)
	if !ok {
		return
	}
	start, ok := parseIntQuery(c, "startIndex", 0)
	if !ok {
		return
	}
	limit, ok := parseIntQuery(c, "limit", DefaultChunkPage)
	if !ok {
		return
	}
	if limit == 0 {
		limit = DefaultChunkPage
	}

	page, err := bc.books.ListChunks(section.ID, start, limit)
	if err != nil {
		respondInternalError(c, err, "list chunks")
		return
	}
	c.JSON(http.StatusOK, page)
}

// Content handles GET /api/sections/:id/content
func (bc *BooksController) Content(c *gin.Context) {
	section, ok := bc.ownedSection(c)
	if !ok {
		return
	}

	resp := SectionContentResponse{SectionID: section.ID, Blocks: json.RawMessage("null")}
	if section.TextBlobID != "" {
		text, err := bc.readBlob(c, section.TextBlobID)
		if err != nil {
			bc.respondBlobError(c, err, "section content")
			return
		}
		resp.Text = string(text)
	}
	if section.HasBlocks() {
		blocks, err := bc.readBlob(c, section.ContentBlobID)
		if err != nil {
			// Plain text still renders.
			logging.Warn("Section blocks unavailable", zap.Uint("section_id", section.ID), zap.Error(err))
		} else if json.Valid(blocks) {
			resp.Blocks = blocks
		}
	}
	c.JSON(http.StatusOK, resp)
}

// Cover handles GET /api/books/:id/cover
func (bc *BooksController) Cover(c *gin.Context) {
	book, ok := bc.ownedBook(c)
	if !ok {
		return
	}
	if !book.HasCover() {
		respondNotFound(c, "cover")
		return
	}
	bc.serveBlob(c, book.CoverBlobID, "cover", "")
}

// Asset handles GET /api/books/:id/assets?href=
func (bc *BooksController) Asset(c *gin.Context) {
	book, ok := bc.ownedBook(c)
	if !ok {
		return
	}
	href := c.Query("href")
	if href == "" {
		respondBadRequest(c, "href is required")
		return
	}
	asset, err := bc.books.GetAssetByHref(book.ID, href)
	if err != nil {
		respondLookupError(c, err, "asset")
		return
	}
	bc.serveBlob(c, asset.BlobID, "asset", "")
}

// File handles GET /api/books/:id/file, the original upload.
func (bc *BooksController) File(c *gin.Context) {
	book, ok := bc.ownedBook(c)
	if !ok {
		return
	}
	files, err := bc.books.GetFiles(book.ID)
	if err != nil {
		respondInternalError(c, err, "list book files")
		return
	}
	if len(files) == 0 {
		respondNotFound(c, "file")
		return
	}
	bc.serveBlob(c, files[0].BlobID, "file", files[0].FileName)
}

func (bc *BooksController) ownedBook(c *gin.Context) (*entities.Book, bool) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return nil, false
	}
	book, err := bc.books.GetBookForOwner(id, GetUserID(c))
	if err != nil {
		respondLookupError(c, err, "book")
		return nil, false
	}
	return book, true
}

func (bc *BooksController) ownedSection(c *gin.Context) (*entities.Section, bool) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return nil, false
	}
	section, err := bc.books.GetSectionForOwner(id, GetUserID(c))
	if err != nil {
		respondLookupError(c, err, "section")
		return nil, false
	}
	return section, true
}

func (bc *BooksController) readBlob(c *gin.Context, id string) ([]byte, error) {
	rc, _, err := bc.blobs.Get(c.Request.Context(), id)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func (bc *BooksController) serveBlob(c *gin.Context, id, resource, downloadName string) {
	rc, info, err := bc.blobs.Get(c.Request.Context(), id)
	if err != nil {
		bc.respondBlobError(c, err, resource)
		return
	}
	defer rc.Close()

	headers := map[string]string{"Cache-Control": "private, max-age=86400"}
	if downloadName != "" {
		headers["Content-Disposition"] = mime.FormatMediaType("attachment", map[string]string{"filename": downloadName})
	}
	contentType := info.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, info.Size, contentType, rc, headers)
}

func (bc *BooksController) respondBlobError(c *gin.Context, err error, resource string) {
	if errors.Is(err, storage.ErrNotFound) {
		respondNotFound(c, resource)
		return
	}
	respondInternalError(c, err, "read "+resource)
}
