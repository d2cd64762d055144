package http

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware(cfg.CORSAllowedOrigins))

	// Multipart uploads beyond this spill to temp files.
	router.MaxMultipartMemory = 32 << 20

	health := NewHealthController(cfg.Database, cfg.Version)
	router.GET("/health", health.Status)

	storageController := NewStorageController(cfg.Uploads, cfg.MaxUploadSize)
	// The signed token in the URL authorizes the upload.
	router.PUT("/api/storage/upload/:token", storageController.Upload)

	api := router.Group("/api")
	if cfg.AuthMiddleware != nil {
		api.Use(cfg.AuthMiddleware.Handler())
	}

	api.POST("/storage/upload-url", storageController.IssueUploadURL)

	importsController := NewImportsController(cfg.Imports, cfg.Users, cfg.AllowExplicitOwner)
	api.POST("/imports", importsController.Submit)
	api.POST("/imports/retry", importsController.Retry)
	api.GET("/imports", importsController.List)
	api.DELETE("/imports", importsController.Clear)
	api.GET("/imports/:id", importsController.Status)

	booksController := NewBooksController(cfg.Books, cfg.Blobs, cfg.BlobCleaner)
	api.GET("/books", booksController.List)
	api.GET("/books/:id", booksController.Get)
	api.DELETE("/books/:id", booksController.Delete)
	api.GET("/books/:id/sections", booksController.Sections)
	api.GET("/books/:id/cover", booksController.Cover)
	api.GET("/books/:id/assets", booksController.Asset)
	api.GET("/books/:id/file", booksController.File)
	api.GET("/sections/:id/chunks", booksController.Chunks)
	api.GET("/sections/:id/content", booksController.Content)

	progressController := NewProgressController(cfg.Books, cfg.Progress)
	api.GET("/books/:id/progress", progressController.Get)
	api.PUT("/books/:id/progress", progressController.Save)
	api.POST("/books/:id/resume", progressController.Resume)
	api.GET("/books/:id/bookmarks", progressController.ListBookmarks)
	api.POST("/books/:id/bookmarks", progressController.CreateBookmark)
	api.DELETE("/bookmarks/:id", progressController.DeleteBookmark)

	return router
}

// corsMiddleware allows the separately served reader UI to call the API.
// With no configured origins every origin is allowed, without credentials.
func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: len(origins) > 0,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}
