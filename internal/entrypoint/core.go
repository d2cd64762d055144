package entrypoint

import (
	"fmt"

	"github.com/ABFCode/Librium-sub000/internal/config"
	"github.com/ABFCode/Librium-sub000/internal/database"
	"github.com/ABFCode/Librium-sub000/internal/database/books"
	"github.com/ABFCode/Librium-sub000/internal/database/imports"
	"github.com/ABFCode/Librium-sub000/internal/database/progress"
	"github.com/ABFCode/Librium-sub000/internal/database/users"
	"github.com/ABFCode/Librium-sub000/internal/importers"
	"github.com/ABFCode/Librium-sub000/internal/ingest"
	"github.com/ABFCode/Librium-sub000/internal/parser"
	"github.com/ABFCode/Librium-sub000/internal/storage"
)

// Core is the storage and import wiring shared by the server and the CLI.
type Core struct {
	DB       *database.Database
	Blobs    *storage.Gateway
	Users    *users.Repository
	Books    *books.Repository
	Progress *progress.Repository
	Pipeline *importers.Pipeline
}

// OpenCore opens the database and blob store and builds the import pipeline.
// A nil dispatcher advances jobs inline on the submitting goroutine.
func OpenCore(cfg *config.Config, dispatcher importers.Dispatcher) (*Core, error) {
	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	store, err := storage.NewLocalStore(cfg.Storage.Dir)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize blob store: %w", err)
	}
	gateway, err := storage.NewGateway(store, storage.GatewayConfig{
		PublicURL:     cfg.Storage.PublicURL,
		SigningSecret: cfg.Storage.SigningSecret,
		UploadURLTTL:  cfg.Storage.UploadURLTTL,
		MaxUploadSize: cfg.Import.MaxFileSize,
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	pipeline := importers.NewPipeline(importers.Deps{
		Jobs:        imports.NewRepository(db.DB),
		Blobs:       gateway,
		Parser:      parser.NewClient(cfg.Parser.URL, cfg.Parser.Timeout),
		Ingester:    ingest.NewIngester(db.DB, gateway),
		Dispatcher:  dispatcher,
		MaxFileSize: cfg.Import.MaxFileSize,
	})

	return &Core{
		DB:       db,
		Blobs:    gateway,
		Users:    users.NewRepository(db.DB),
		Books:    books.NewRepository(db.DB),
		Progress: progress.NewRepository(db.DB),
		Pipeline: pipeline,
	}, nil
}

func (c *Core) Close() error {
	return c.DB.Close()
}
