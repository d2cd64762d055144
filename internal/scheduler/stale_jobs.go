package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/ABFCode/Librium-sub000/internal/logging"
)

// StaleJobFailer fails import jobs that stopped making progress.
type StaleJobFailer interface {
	FailStale(staleAfter time.Duration) (int, error)
}

// StaleJobConfig configures the sweeper.
type StaleJobConfig struct {
	Enabled    bool
	Schedule   string // Cron format: "*/5 * * * *" = every 5 minutes
	StaleAfter time.Duration
}

// StaleJobSweeper periodically fails jobs stuck before completion,
// which happens when a worker dies mid-pass or a queued pass is lost.
// Failed jobs can be retried.
type StaleJobSweeper struct {
	failer StaleJobFailer
	config StaleJobConfig
	log    *zap.Logger

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

// NewStaleJobSweeper creates a new sweeper instance
func NewStaleJobSweeper(failer StaleJobFailer, config StaleJobConfig) *StaleJobSweeper {
	return &StaleJobSweeper{
		failer: failer,
		config: config,
		log:    logging.Named("scheduler"),
		cron:   cron.New(cron.WithParser(cronParser)),
	}
}

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateSchedule checks a five-field cron expression.
func ValidateSchedule(schedule string) error {
	_, err := cronParser.Parse(schedule)
	return err
}

// Start begins the sweeper if it is enabled
func (s *StaleJobSweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if !s.config.Enabled {
		s.log.Info("Stale import sweeper: disabled")
		return nil
	}
	if s.config.StaleAfter <= 0 {
		return fmt.Errorf("stale import threshold must be positive, got %s", s.config.StaleAfter)
	}

	if err := ValidateSchedule(s.config.Schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.config.Schedule, err)
	}

	entryID, err := s.cron.AddFunc(s.config.Schedule, func() {
		s.RunNow()
	})
	if err != nil {
		return fmt.Errorf("failed to schedule stale import sweep: %w", err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	s.log.Info("Stale import sweeper: started",
		zap.String("schedule", s.config.Schedule),
		zap.Duration("stale_after", s.config.StaleAfter),
		zap.Time("next_run", s.cron.Entry(entryID).Next))

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the sweeper
func (s *StaleJobSweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	// Stop accepting new runs and wait for a running sweep to complete
	ctx := s.cron.Stop()
	<-ctx.Done()

	s.cron.Remove(s.entryID)
	s.isRunning = false
	if s.cancelFunc != nil {
		s.cancelFunc()
		s.cancelFunc = nil
	}

	s.log.Info("Stale import sweeper: stopped")
}

// RunNow performs one sweep synchronously and returns how many jobs were failed.
func (s *StaleJobSweeper) RunNow() int {
	failed, err := s.failer.FailStale(s.config.StaleAfter)
	if err != nil {
		s.log.Error("Stale import sweep failed", zap.Error(err))
		return failed
	}
	if failed > 0 {
		s.log.Warn("Stale import sweep failed stuck jobs", zap.Int("count", failed))
	}
	return failed
}

// IsRunning returns whether the sweeper is active
func (s *StaleJobSweeper) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}
