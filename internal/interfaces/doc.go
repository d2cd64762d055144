// Package interfaces documents the core abstractions used throughout the application.
//
// # Interface Categories
//
// ## Storage Interfaces
//
//   - Store: Blob persistence backend (internal/storage/client.go)
//   - BlobStore: Gateway methods the import pipeline uses (internal/importers/pipeline.go)
//   - BlobWriter: Gateway methods ingestion uses (internal/ingest/ingest.go)
//   - BlobDeleter: Background blob removal (internal/tasks/delete_blobs.go)
//   - BlobReader, UploadGateway: Blob access from handlers (internal/http/stores.go)
//
// ## Data Access Interfaces
//
//   - BookStore: Books, sections and chunk pages (internal/http/stores.go)
//   - ProgressStore: Reading progress and bookmarks (internal/http/stores.go)
//   - UserLookup, IdentityStore: User resolution (internal/http/stores.go, internal/auth/middleware.go)
//
// ## Import Interfaces
//
//   - Parser: EPUB parse service client (internal/importers/pipeline.go)
//   - Ingester: Writes a parse result as a book (internal/importers/pipeline.go)
//   - Dispatcher: Schedules a processing pass (internal/importers/dispatch.go)
//   - ImportAdvancer: Runs a pass from the task queue (internal/tasks/import_book.go)
//   - StaleJobFailer: Fails stuck jobs (internal/scheduler/stale_jobs.go)
//   - ImportService: Job operations exposed over HTTP (internal/http/stores.go)
//
// # Adding a New Blob Backend
//
//  1. Implement Store in internal/storage/
//
//     type S3Store struct {
//         bucket string
//     }
//
//     func (s *S3Store) Write(ctx context.Context, id string, content io.Reader, meta Meta) (BlobInfo, error)
//     func (s *S3Store) Open(ctx context.Context, id string) (io.ReadCloser, BlobInfo, error)
//     func (s *S3Store) Stat(ctx context.Context, id string) (BlobInfo, error)
//     func (s *S3Store) Delete(ctx context.Context, id string) error
//
//  2. Add a compile-time check in checks.go and select it in entrypoint/core.go
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// See checks.go for the full list.
package interfaces
