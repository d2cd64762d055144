package importers

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/ABFCode/Librium-sub000/internal/logging"
)

// ErrQueueFull is returned when the background dispatcher cannot take more work.
var ErrQueueFull = errors.New("import queue is full")

// Dispatcher hands a processing pass to a worker.
type Dispatcher interface {
	Dispatch(ctx context.Context, jobID uint, attempt int) error
}

// DispatchFunc adapts a function to Dispatcher.
type DispatchFunc func(ctx context.Context, jobID uint, attempt int) error

func (f DispatchFunc) Dispatch(ctx context.Context, jobID uint, attempt int) error {
	return f(ctx, jobID, attempt)
}

type pass struct {
	jobID   uint
	attempt int
}

// Background runs passes one at a time on a single goroutine, detached from
// the request that dispatched them. It serves when the durable task queue is
// disabled; passes still buffered at shutdown are lost and the stale sweeper
// fails their jobs later.
type Background struct {
	mu     sync.Mutex
	closed bool
	work   chan pass
	done   chan struct{}
	log    *zap.Logger
}

func NewBackground(buffer int) *Background {
	if buffer <= 0 {
		buffer = 64
	}
	return &Background{
		work: make(chan pass, buffer),
		done: make(chan struct{}),
		log:  logging.Named("importers"),
	}
}

// Start consumes passes with advance until Close is called.
func (b *Background) Start(ctx context.Context, advance DispatchFunc) {
	go func() {
		defer close(b.done)
		for p := range b.work {
			if err := advance(ctx, p.jobID, p.attempt); err != nil {
				b.log.Error("import pass failed", zap.Uint("job_id", p.jobID), zap.Int("attempt", p.attempt), zap.Error(err))
			}
		}
	}()
}

func (b *Background) Dispatch(ctx context.Context, jobID uint, attempt int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrQueueFull
	}
	select {
	case b.work <- pass{jobID: jobID, attempt: attempt}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting work and waits for the running pass to finish.
// It must only be called after Start.
func (b *Background) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	close(b.work)
	b.mu.Unlock()
	<-b.done
}
