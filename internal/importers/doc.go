// Package importers runs uploaded EPUB files through the import job state machine.
//
// # States
//
//	queued ──► parsing ──► ingesting ──► completed
//	   │          │            │
//	   └──────────┴────────────┴──► failed ──(retry)──► parsing
//
// completed is terminal; failed is terminal unless a retry is requested.
// queued → failed only happens when the job cannot be handed to a worker.
//
// # Flow
//
// Submit stores the file, records a queued job and hands it to the
// Dispatcher; it never waits for the parser. A worker then calls Advance
// with the job's attempt number:
//
//	pipeline.Submit(ctx, ownerID, "book.epub", file)   // → queued
//	pipeline.Advance(ctx, jobID, attempt)               // → parsing → ingesting → completed
//	pipeline.Retry(ctx, jobID, ownerID)                 // failed → parsing, attempt+1
//
// Every failure is written to the job as a human readable message; callers
// learn about it by polling Status.
//
// # Running a pass once
//
// A processing pass runs at most once even with several workers. Advance
// holds an in-process lock per job, claims the attempt in the database
// (a pass whose attempt was already claimed is skipped), and moves the job
// between states with compare-and-set writes. The final completed write
// happens inside the ingestion transaction, so a job never completes
// without its content and content never commits for a job that moved on.
//
// # Dispatchers
//
// The server dispatches through the backlite queue in internal/tasks. The
// CLI and the tests use the inline dispatcher, which runs the pass on the
// caller's goroutine.
package importers
