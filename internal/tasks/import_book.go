package tasks

import (
	"context"
	"fmt"

	"github.com/mikestefanello/backlite"
)

// ImportAdvancer runs one processing pass of an import job.
type ImportAdvancer interface {
	Advance(ctx context.Context, jobID uint, attempt int) error
}

// ImportBookTask processes one attempt of an import job.
type ImportBookTask struct {
	JobID   uint `json:"job_id"`
	Attempt int  `json:"attempt"`
}

// Config returns the default queue configuration. NewImportBookQueue applies
// the client's settings on top.
func (t ImportBookTask) Config() backlite.QueueConfig {
	return DefaultConfig().importQueue()
}

// ImportBookProcessor creates a processor function for ImportBookTask.
func ImportBookProcessor(advancer ImportAdvancer) backlite.QueueProcessor[ImportBookTask] {
	return func(ctx context.Context, task ImportBookTask) error {
		if advancer == nil {
			return fmt.Errorf("import pipeline not configured")
		}
		if err := advancer.Advance(ctx, task.JobID, task.Attempt); err != nil {
			return fmt.Errorf("advance import job %d: %w", task.JobID, err)
		}
		return nil
	}
}

// NewImportBookQueue creates a backlite queue for import tasks.
func NewImportBookQueue(advancer ImportAdvancer, cfg Config) backlite.Queue {
	return withConfig(backlite.NewQueue(ImportBookProcessor(advancer)), cfg.importQueue())
}

// ImportDispatcher enqueues import passes on the task queue.
type ImportDispatcher struct {
	client *Client
}

// NewImportDispatcher creates a dispatcher backed by the task client.
func NewImportDispatcher(client *Client) *ImportDispatcher {
	return &ImportDispatcher{client: client}
}

// Dispatch enqueues one processing pass.
func (d *ImportDispatcher) Dispatch(ctx context.Context, jobID uint, attempt int) error {
	_, err := d.client.Add(ImportBookTask{JobID: jobID, Attempt: attempt}).Ctx(ctx).Save()
	if err != nil {
		return fmt.Errorf("enqueue import job %d: %w", jobID, err)
	}
	return nil
}
