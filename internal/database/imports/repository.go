// Package imports provides database operations for import jobs.
//
// Status changes are compare-and-set: every write names the status it expects
// to replace and reports whether it won. Which transitions are legal is decided
// by internal/importers; this package only guarantees that two writers cannot
// both move a job out of the same state.
//
// # Usage
//
//	repo := imports.NewRepository(db)
//	ok, err := repo.Transition(jobID, entities.ImportStatusQueued, entities.ImportStatusParsing, "")
package imports

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/ABFCode/Librium-sub000/internal/entities"
)

var (
	ErrNotFound = errors.New("import job not found")
	ErrNotOwner = errors.New("import job belongs to another user")
	// ErrStatusChanged means the job was no longer in the expected status.
	ErrStatusChanged = errors.New("import job status changed concurrently")
)

// DefaultListLimit is used when ListJobsForUser gets a non-positive limit.
const DefaultListLimit = 50

// Repository handles all import job database operations.
type Repository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewRepository creates a new imports repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// CreateJob inserts a new job in the queued status.
func (r *Repository) CreateJob(job *entities.ImportJob) error {
	job.Status = entities.ImportStatusQueued
	if job.Attempt == 0 {
		job.Attempt = 1
	}
	if err := r.db.Create(job).Error; err != nil {
		return fmt.Errorf("failed to create import job: %w", err)
	}
	return nil
}

// GetJob retrieves a job by ID without an ownership check. Worker use only.
func (r *Repository) GetJob(id uint) (*entities.ImportJob, error) {
	var job entities.ImportJob
	err := r.db.First(&job, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// GetJobForUser retrieves a job and checks it was submitted by userID.
func (r *Repository) GetJobForUser(id, userID uint) (*entities.ImportJob, error) {
	job, err := r.GetJob(id)
	if err != nil {
		return nil, err
	}
	if job.UserID != userID {
		return nil, ErrNotOwner
	}
	return job, nil
}

// ListJobsForUser returns the user's most recent jobs, newest first.
func (r *Repository) ListJobsForUser(userID uint, limit int) ([]entities.ImportJob, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	var jobs []entities.ImportJob
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&jobs).Error
	return jobs, err
}

// ClearFinished deletes the user's completed and failed jobs.
func (r *Repository) ClearFinished(userID uint) (int64, error) {
	result := r.db.Where("user_id = ? AND status IN ?", userID,
		[]entities.ImportStatus{entities.ImportStatusCompleted, entities.ImportStatusFailed}).
		Delete(&entities.ImportJob{})
	return result.RowsAffected, result.Error
}

// Claim records that a worker took ownership of processing pass attempt.
// It returns false when the job moved on to another attempt or the pass
// was already claimed.
func (r *Repository) Claim(id uint, attempt int) (bool, error) {
	result := r.db.Model(&entities.ImportJob{}).
		Where("id = ? AND attempt = ? AND claimed_attempt < ?", id, attempt, attempt).
		UpdateColumn("claimed_attempt", attempt)
	if result.Error != nil {
		return false, fmt.Errorf("failed to claim import job: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

// Transition moves a job from one status to another if it is still in from.
// errorMessage is stored for failures and cleared otherwise.
func (r *Repository) Transition(id uint, from, to entities.ImportStatus, errorMessage string) (bool, error) {
	return r.transition(r.db, id, from, to, r.statusUpdates(to, errorMessage))
}

// CompleteTx marks an ingesting job completed with its book inside tx, so the
// job and the ingested rows commit together.
func (r *Repository) CompleteTx(tx *gorm.DB, id, bookID uint) error {
	updates := r.statusUpdates(entities.ImportStatusCompleted, "")
	updates["book_id"] = bookID
	ok, err := r.transition(tx, id, entities.ImportStatusIngesting, entities.ImportStatusCompleted, updates)
	if err != nil {
		return err
	}
	if !ok {
		return ErrStatusChanged
	}
	return nil
}

// BeginRetry moves a failed job back to parsing under a new attempt number.
// The returned job carries the attempt the retry pass must claim.
func (r *Repository) BeginRetry(id uint) (*entities.ImportJob, error) {
	updates := r.statusUpdates(entities.ImportStatusParsing, "")
	updates["attempt"] = gorm.Expr("attempt + 1")
	updates["finished_at"] = nil

	ok, err := r.transition(r.db, id, entities.ImportStatusFailed, entities.ImportStatusParsing, updates)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrStatusChanged
	}
	return r.GetJob(id)
}

// FindStale returns jobs stuck in queued, parsing or ingesting since before cutoff.
func (r *Repository) FindStale(cutoff time.Time) ([]entities.ImportJob, error) {
	var jobs []entities.ImportJob
	err := r.db.Where("status IN ? AND updated_at < ?",
		[]entities.ImportStatus{entities.ImportStatusQueued, entities.ImportStatusParsing, entities.ImportStatusIngesting}, cutoff).
		Order("id ASC").
		Find(&jobs).Error
	return jobs, err
}

func (r *Repository) statusUpdates(to entities.ImportStatus, errorMessage string) map[string]any {
	now := r.now()
	updates := map[string]any{
		"status":        to,
		"error_message": "",
		"updated_at":    now,
	}
	switch to {
	case entities.ImportStatusParsing:
		updates["started_at"] = now
	case entities.ImportStatusCompleted:
		updates["finished_at"] = now
	case entities.ImportStatusFailed:
		updates["error_message"] = errorMessage
		updates["finished_at"] = now
	}
	return updates
}

func (r *Repository) transition(db *gorm.DB, id uint, from, to entities.ImportStatus, updates map[string]any) (bool, error) {
	result := db.Model(&entities.ImportJob{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, fmt.Errorf("failed to move import job %d from %s to %s: %w", id, from, to, result.Error)
	}
	return result.RowsAffected == 1, nil
}
