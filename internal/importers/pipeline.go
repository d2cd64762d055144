package importers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ABFCode/Librium-sub000/internal/database/imports"
	"github.com/ABFCode/Librium-sub000/internal/entities"
	"github.com/ABFCode/Librium-sub000/internal/ingest"
	"github.com/ABFCode/Librium-sub000/internal/logging"
	"github.com/ABFCode/Librium-sub000/internal/parser"
	"github.com/ABFCode/Librium-sub000/internal/storage"
	"github.com/ABFCode/Librium-sub000/internal/utils"
)

var (
	ErrNotEPUB      = errors.New("file is not an EPUB")
	ErrFileTooLarge = errors.New("file exceeds the maximum import size")
	ErrBlobNotFound = errors.New("uploaded file not found")
	ErrBlobNotOwned = errors.New("uploaded file belongs to another user")
	ErrNotRetryable = errors.New("only failed imports can be retried")
)

// Messages recorded on failed jobs.
const (
	msgMissingFile   = "Uploaded file is missing from storage"
	msgDispatch      = "Import could not be scheduled"
	msgAlreadyLinked = "Import already produced a book"
	msgTimedOut      = "import timed out"
)

const defaultFileName = "book.epub"

// Parser turns an EPUB into a validated parse result.
type Parser interface {
	Parse(ctx context.Context, fileName string, file io.Reader) (*parser.Result, error)
}

// Ingester writes a parse result as a book.
type Ingester interface {
	Ingest(ctx context.Context, req ingest.Request) (*ingest.Stats, error)
}

// BlobStore is the part of the storage gateway the pipeline uses.
type BlobStore interface {
	Put(ctx context.Context, content io.Reader, meta storage.Meta) (storage.BlobInfo, error)
	Get(ctx context.Context, id string) (io.ReadCloser, storage.BlobInfo, error)
	Stat(ctx context.Context, id string) (storage.BlobInfo, error)
}

// Deps are the collaborators of a Pipeline. A nil Dispatcher runs passes inline.
type Deps struct {
	Jobs        *imports.Repository
	Blobs       BlobStore
	Parser      Parser
	Ingester    Ingester
	Dispatcher  Dispatcher
	MaxFileSize int64
}

// Pipeline owns the import job lifecycle.
type Pipeline struct {
	jobs        *imports.Repository
	blobs       BlobStore
	parser      Parser
	ingester    Ingester
	dispatcher  Dispatcher
	maxFileSize int64
	locks       *jobLocks
	now         func() time.Time
	log         *zap.Logger
}

// NewPipeline creates a pipeline.
func NewPipeline(deps Deps) *Pipeline {
	p := &Pipeline{
		jobs:        deps.Jobs,
		blobs:       deps.Blobs,
		parser:      deps.Parser,
		ingester:    deps.Ingester,
		dispatcher:  deps.Dispatcher,
		maxFileSize: deps.MaxFileSize,
		locks:       newJobLocks(),
		now:         time.Now,
		log:         logging.Named("importers"),
	}
	if p.dispatcher == nil {
		p.dispatcher = DispatchFunc(p.Advance)
	}
	return p
}

// Submit stores an uploaded file and queues its import.
// It only fails for problems with the request itself.
func (p *Pipeline) Submit(ctx context.Context, ownerID uint, fileName string, file io.Reader) (*entities.ImportJob, error) {
	contentType, content, err := storage.SniffContentType(storage.LimitReader(file, p.maxFileSize))
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			return nil, ErrFileTooLarge
		}
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if !storage.IsEPUB(contentType) {
		return nil, ErrNotEPUB
	}

	info, err := p.blobs.Put(ctx, content, storage.Meta{ContentType: storage.ContentTypeEPUB, OwnerID: ownerID})
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			return nil, ErrFileTooLarge
		}
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}

	return p.enqueue(ctx, ownerID, fileName, info)
}

// SubmitStored queues the import of a file uploaded earlier through an upload URL.
func (p *Pipeline) SubmitStored(ctx context.Context, ownerID uint, blobID, fileName string) (*entities.ImportJob, error) {
	info, err := p.blobs.Stat(ctx, blobID)
	if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidID) {
		return nil, ErrBlobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up upload: %w", err)
	}
	if info.OwnerID != ownerID {
		return nil, ErrBlobNotOwned
	}
	if !storage.IsEPUB(info.ContentType) {
		return nil, ErrNotEPUB
	}
	if p.maxFileSize > 0 && info.Size > p.maxFileSize {
		return nil, ErrFileTooLarge
	}
	return p.enqueue(ctx, ownerID, fileName, info)
}

func (p *Pipeline) enqueue(ctx context.Context, ownerID uint, fileName string, info storage.BlobInfo) (*entities.ImportJob, error) {
	job := &entities.ImportJob{
		UserID:      ownerID,
		BlobID:      info.ID,
		FileName:    utils.SanitizeFilename(fileName, defaultFileName),
		FileSize:    info.Size,
		ContentType: info.ContentType,
	}
	if err := p.jobs.CreateJob(job); err != nil {
		return nil, err
	}
	p.log.Info("import queued", zap.Uint("job_id", job.ID), zap.Uint("user_id", ownerID), zap.String("file", job.FileName))

	p.dispatch(ctx, job, entities.ImportStatusQueued)
	return job, nil
}

// dispatch hands the job's current attempt to the dispatcher. When that fails
// the job is failed from the given status so it can be retried.
func (p *Pipeline) dispatch(ctx context.Context, job *entities.ImportJob, from entities.ImportStatus) {
	err := p.dispatcher.Dispatch(ctx, job.ID, job.Attempt)
	if err == nil {
		return
	}
	p.log.Error("failed to dispatch import", zap.Uint("job_id", job.ID), zap.Error(err))
	if ferr := p.fail(job.ID, from, msgDispatch); ferr != nil {
		p.log.Error("failed to record dispatch failure", zap.Uint("job_id", job.ID), zap.Error(ferr))
	}
}

// Advance runs one processing pass of a job. Failures of the import itself are
// recorded on the job; the returned error is for infrastructure problems only.
func (p *Pipeline) Advance(ctx context.Context, jobID uint, attempt int) error {
	unlock := p.locks.Lock(jobID)
	defer unlock()

	claimed, err := p.jobs.Claim(jobID, attempt)
	if err != nil {
		return err
	}
	if !claimed {
		p.log.Info("skipping import pass that is already claimed or superseded",
			zap.Uint("job_id", jobID), zap.Int("attempt", attempt))
		return nil
	}

	job, err := p.jobs.GetJob(jobID)
	if err != nil {
		return err
	}
	log := p.log.With(zap.Uint("job_id", job.ID), zap.Int("attempt", attempt))

	switch job.Status {
	case entities.ImportStatusQueued:
		ok, err := p.transition(job.ID, entities.ImportStatusQueued, entities.ImportStatusParsing, "")
		if err != nil || !ok {
			return err
		}
	case entities.ImportStatusParsing:
		// A retry already moved the job back to parsing.
	default:
		log.Info("import job is not runnable", zap.String("status", string(job.Status)))
		return nil
	}

	if job.BookID != nil {
		log.Warn("refusing to ingest twice", zap.Uint("book_id", *job.BookID))
		return p.fail(job.ID, entities.ImportStatusParsing, msgAlreadyLinked)
	}

	log.Info("parsing import", zap.String("file", job.FileName))
	result, err := p.parse(ctx, job)
	if err != nil {
		log.Warn("import parse failed", zap.Error(err))
		return p.fail(job.ID, entities.ImportStatusParsing, failureMessage(err))
	}

	ok, err := p.transition(job.ID, entities.ImportStatusParsing, entities.ImportStatusIngesting, "")
	if err != nil || !ok {
		return err
	}

	stats, err := p.ingester.Ingest(ctx, ingest.Request{
		OwnerID: job.UserID,
		Book:    bookFromMetadata(result.Metadata, job.FileName),
		File: entities.BookFile{
			BlobID:      job.BlobID,
			FileName:    job.FileName,
			FileSize:    job.FileSize,
			ContentType: job.ContentType,
		},
		Parsed: result,
		Finalize: func(tx *gorm.DB, book *entities.Book) error {
			if err := checkTransition(entities.ImportStatusIngesting, entities.ImportStatusCompleted); err != nil {
				return err
			}
			return p.jobs.CompleteTx(tx, job.ID, book.ID)
		},
	})
	if err != nil {
		log.Warn("import ingestion failed", zap.Error(err))
		if errors.Is(err, imports.ErrStatusChanged) {
			// Someone else (the stale sweeper) already decided this job's fate.
			return nil
		}
		return p.fail(job.ID, entities.ImportStatusIngesting, "Ingestion failed: "+err.Error())
	}

	log.Info("import completed",
		zap.Uint("book_id", stats.BookID),
		zap.Int("sections", stats.Sections),
		zap.Int("chunks", stats.Chunks))
	return nil
}

func (p *Pipeline) parse(ctx context.Context, job *entities.ImportJob) (*parser.Result, error) {
	file, _, err := p.blobs.Get(ctx, job.BlobID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidID) {
			return nil, errMissingFile
		}
		return nil, err
	}
	defer file.Close()
	return p.parser.Parse(ctx, job.FileName, file)
}

var errMissingFile = errors.New(msgMissingFile)

// Retry re-runs a failed job from parsing with the file it already stored.
func (p *Pipeline) Retry(ctx context.Context, jobID, viewerID uint) (*entities.ImportJob, error) {
	job, err := p.jobs.GetJobForUser(jobID, viewerID)
	if err != nil {
		return nil, err
	}
	if job.Status != entities.ImportStatusFailed {
		return nil, ErrNotRetryable
	}

	job, err = p.jobs.BeginRetry(jobID)
	if errors.Is(err, imports.ErrStatusChanged) {
		return nil, ErrNotRetryable
	}
	if err != nil {
		return nil, err
	}
	p.log.Info("import retry queued", zap.Uint("job_id", job.ID), zap.Int("attempt", job.Attempt))

	p.dispatch(ctx, job, entities.ImportStatusParsing)
	return job, nil
}

// Status returns a job the viewer submitted.
func (p *Pipeline) Status(jobID, viewerID uint) (*entities.ImportJob, error) {
	return p.jobs.GetJobForUser(jobID, viewerID)
}

// List returns the viewer's recent jobs, newest first.
func (p *Pipeline) List(viewerID uint, limit int) ([]entities.ImportJob, error) {
	return p.jobs.ListJobsForUser(viewerID, limit)
}

// Clear removes the viewer's finished jobs.
func (p *Pipeline) Clear(viewerID uint) (int64, error) {
	return p.jobs.ClearFinished(viewerID)
}

// FailStale fails jobs that have been queued, parsing or ingesting for longer than
// staleAfter, making them retryable.
func (p *Pipeline) FailStale(staleAfter time.Duration) (int, error) {
	jobs, err := p.jobs.FindStale(p.now().Add(-staleAfter))
	if err != nil {
		return 0, err
	}
	failed := 0
	for _, job := range jobs {
		ok, err := p.transition(job.ID, job.Status, entities.ImportStatusFailed, msgTimedOut)
		if err != nil {
			return failed, err
		}
		if ok {
			failed++
			p.log.Warn("failed stale import", zap.Uint("job_id", job.ID), zap.String("status", string(job.Status)))
		}
	}
	return failed, nil
}

func (p *Pipeline) fail(jobID uint, from entities.ImportStatus, message string) error {
	ok, err := p.transition(jobID, from, entities.ImportStatusFailed, message)
	if err != nil {
		return err
	}
	if !ok {
		p.log.Warn("import job changed before it could be failed", zap.Uint("job_id", jobID), zap.String("from", string(from)))
	}
	return nil
}

func (p *Pipeline) transition(jobID uint, from, to entities.ImportStatus, message string) (bool, error) {
	if err := checkTransition(from, to); err != nil {
		return false, err
	}
	return p.jobs.Transition(jobID, from, to, message)
}

func failureMessage(err error) string {
	var perr *parser.Error
	if errors.As(err, &perr) {
		return perr.Message
	}
	return err.Error()
}

func bookFromMetadata(md parser.Metadata, fileName string) entities.Book {
	title := md.Title
	if title == "" {
		title = utils.TitleFromFilename(fileName)
	}
	book := entities.Book{
		Title:       title,
		Author:      strings.Join(md.Authors, ", "),
		Language:    md.Language,
		Publisher:   md.Publisher,
		PublishedAt: md.PublishedAt,
		Series:      md.Series,
		SeriesIndex: md.SeriesIndex,
		Subjects:    md.Subjects,
	}
	for _, id := range md.Identifiers {
		book.Identifiers = append(book.Identifiers, entities.BookIdentifier{ID: id.ID, Scheme: id.Scheme, Value: id.Value, Type: id.Type})
	}
	return book
}

