package entities

import (
	"time"
)

type ImportStatus string

const (
	ImportStatusQueued    ImportStatus = "queued"
	ImportStatusParsing   ImportStatus = "parsing"
	ImportStatusIngesting ImportStatus = "ingesting"
	ImportStatusCompleted ImportStatus = "completed"
	ImportStatusFailed    ImportStatus = "failed"
)

// IsTerminal reports whether no further processing is scheduled for the status.
func (s ImportStatus) IsTerminal() bool {
	return s == ImportStatusCompleted || s == ImportStatusFailed
}

// ImportJob tracks one uploaded file on its way to becoming a Book.
// Attempt counts processing passes; ClaimedAttempt is the last pass a worker
// took ownership of, so a pass can only run once.
type ImportJob struct {
	ID             uint         `gorm:"primaryKey" json:"id"`
	UserID         uint         `gorm:"index;not null" json:"userId"`
	BookID         *uint        `gorm:"index" json:"bookId,omitempty"`
	BlobID         string       `gorm:"size:64;not null" json:"storageId"`
	FileName       string       `gorm:"size:512" json:"fileName"`
	FileSize       int64        `json:"fileSize"`
	ContentType    string       `gorm:"size:128" json:"contentType,omitempty"`
	Status         ImportStatus `gorm:"size:20;index" json:"status"`
	ErrorMessage   string       `gorm:"type:text" json:"errorMessage,omitempty"`
	Attempt        int          `gorm:"not null;default:1" json:"attempt"`
	ClaimedAttempt int          `gorm:"not null;default:0" json:"-"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`
	StartedAt      *time.Time   `json:"startedAt,omitempty"`
	FinishedAt     *time.Time   `json:"finishedAt,omitempty"`
}

func (ImportJob) TableName() string {
	return "import_jobs"
}
