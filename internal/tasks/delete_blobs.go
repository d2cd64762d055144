package tasks

import (
	"context"
	"fmt"

	"github.com/mikestefanello/backlite"
	"go.uber.org/zap"

	"github.com/ABFCode/Librium-sub000/internal/logging"
)

// BlobDeleter removes blobs from the blob store.
type BlobDeleter interface {
	DeleteMany(ctx context.Context, ids ...string) error
}

// DeleteBlobsTask removes the blobs of a deleted book.
type DeleteBlobsTask struct {
	BookID  uint     `json:"book_id"`
	BlobIDs []string `json:"blob_ids"`
}

// Config returns the default queue configuration for blob cleanup tasks.
func (t DeleteBlobsTask) Config() backlite.QueueConfig {
	return DefaultConfig().deleteBlobsQueue()
}

// DeleteBlobsProcessor creates a processor function for DeleteBlobsTask.
// Deleting a blob that is already gone succeeds, so retries are safe.
func DeleteBlobsProcessor(deleter BlobDeleter) backlite.QueueProcessor[DeleteBlobsTask] {
	return func(ctx context.Context, task DeleteBlobsTask) error {
		if deleter == nil {
			return fmt.Errorf("blob deleter not configured")
		}
		if err := deleter.DeleteMany(ctx, task.BlobIDs...); err != nil {
			return fmt.Errorf("delete blobs of book %d: %w", task.BookID, err)
		}
		logging.Info("[TASK] Deleted book blobs", zap.Uint("book_id", task.BookID), zap.Int("count", len(task.BlobIDs)))
		return nil
	}
}

// NewDeleteBlobsQueue creates a backlite queue for blob cleanup tasks.
func NewDeleteBlobsQueue(deleter BlobDeleter, cfg Config) backlite.Queue {
	return withConfig(backlite.NewQueue(DeleteBlobsProcessor(deleter)), cfg.deleteBlobsQueue())
}

// EnqueueDeleteBlobs schedules removal of a deleted book's blobs.
func (c *Client) EnqueueDeleteBlobs(ctx context.Context, bookID uint, blobIDs []string) error {
	if len(blobIDs) == 0 {
		return nil
	}
	if _, err := c.Add(DeleteBlobsTask{BookID: bookID, BlobIDs: blobIDs}).Ctx(ctx).Save(); err != nil {
		return fmt.Errorf("enqueue blob cleanup for book %d: %w", bookID, err)
	}
	return nil
}

// InlineBlobCleaner deletes blobs right away. It stands in for the queue when
// background tasks are disabled.
type InlineBlobCleaner struct {
	Deleter BlobDeleter
}

func (c InlineBlobCleaner) EnqueueDeleteBlobs(ctx context.Context, bookID uint, blobIDs []string) error {
	if len(blobIDs) == 0 {
		return nil
	}
	return DeleteBlobsProcessor(c.Deleter)(ctx, DeleteBlobsTask{BookID: bookID, BlobIDs: blobIDs})
}
