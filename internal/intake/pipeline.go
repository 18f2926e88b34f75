package intake

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"studybridge/internal/utils"
	"studybridge/pkg/types"

	"github.com/sirupsen/logrus"
)

var (
	ErrNoCategory   = errors.New("select a document category first")
	ErrBatchBlocked = errors.New("one or more files failed validation")
)

// UploadResult is what the storage collaborator hands back for a stored file.
type UploadResult struct {
	StorageKey string
	PublicURL  string
}

// Uploader stores candidate content in the document bucket.
type Uploader interface {
	Upload(ctx context.Context, c Candidate) (UploadResult, error)
}

// Recorder persists the metadata record for an uploaded document.
type Recorder interface {
	CreateDocument(ctx context.Context, doc *types.StudentDocument) error
}

// Pipeline stages files for a selected document category, validates the
// whole batch before anything is uploaded, and hands clean batches to the
// storage and record collaborators one file at a time. Validation issues
// are recomputed wholesale whenever the pending set changes.
//
// A Pipeline serves a single intake session and is not safe for concurrent
// use.
type Pipeline struct {
	uploader Uploader
	recorder Recorder
	logger   *logrus.Logger
	ownerID  string

	category string
	pending  []Candidate
	issues   []Issue

	// Host callbacks. All are optional.
	OnProgress func(fileName string, pct int)
	OnComplete func(doc *types.StudentDocument)
	OnError    func(msg string)
}

func NewPipeline(uploader Uploader, recorder Recorder, logger *logrus.Logger, ownerID string) *Pipeline {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Pipeline{
		uploader: uploader,
		recorder: recorder,
		logger:   logger,
		ownerID:  ownerID,
	}
}

// SelectCategory sets the active target category for subsequent batches.
func (p *Pipeline) SelectCategory(category string) {
	p.category = strings.TrimSpace(category)
}

func (p *Pipeline) Category() string { return p.category }

// Pending returns the currently staged candidates.
func (p *Pipeline) Pending() []Candidate { return p.pending }

// Issues returns the validation results for the staged candidates.
func (p *Pipeline) Issues() []Issue { return p.issues }

// AcceptFiles stages the given files under the active category, validates
// the entire pending set, and uploads it when clean. Any error-severity
// issue anywhere in the batch blocks the whole batch; nothing reaches the
// storage collaborator until every file passes. Warnings never block.
//
// Returns ErrNoCategory when no category has been selected (no validation
// is attempted), ErrBatchBlocked when validation fails, or the first
// transport error encountered while uploading.
func (p *Pipeline) AcceptFiles(ctx context.Context, files []Candidate) error {
	if p.category == "" {
		p.reportError(ErrNoCategory.Error())
		return ErrNoCategory
	}

	for i := range files {
		files[i].Category = p.category
	}
	p.pending = append(p.pending, files...)
	p.revalidate()

	if HasBlocking(p.issues) {
		p.reportError(p.blockedMessage())
		return ErrBatchBlocked
	}

	return p.flush(ctx)
}

// RemoveFile drops one staged candidate before upload and recomputes the
// issue list. Out-of-range indexes are ignored.
func (p *Pipeline) RemoveFile(index int) {
	if index < 0 || index >= len(p.pending) {
		return
	}
	p.pending = append(p.pending[:index], p.pending[index+1:]...)
	p.revalidate()
}

// Flush retries upload of the staged candidates, typically after the host
// removed the files that blocked a batch. The same validation barrier
// applies.
func (p *Pipeline) Flush(ctx context.Context) error {
	if p.category == "" {
		p.reportError(ErrNoCategory.Error())
		return ErrNoCategory
	}

	p.revalidate()
	if HasBlocking(p.issues) {
		p.reportError(p.blockedMessage())
		return ErrBatchBlocked
	}

	return p.flush(ctx)
}

func (p *Pipeline) revalidate() {
	issues := make([]Issue, 0, len(p.pending))
	for _, c := range p.pending {
		issues = append(issues, Validate(c)...)
	}
	p.issues = issues
}

// flush uploads the pending batch strictly sequentially. A transport
// failure on one file is surfaced verbatim and does not stop the rest of
// the batch; there is no automatic retry.
func (p *Pipeline) flush(ctx context.Context) error {
	var firstErr error

	for _, c := range p.pending {
		p.progress(c.FileName, 0)

		result, err := p.uploader.Upload(ctx, c)
		if err != nil {
			p.logger.WithError(err).WithField("file", c.FileName).Error("document upload failed")
			p.reportError(err.Error())
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		p.progress(c.FileName, 60)

		doc := &types.StudentDocument{
			ID:            utils.NanoID(),
			StudentID:     p.ownerID,
			Category:      c.Category,
			Description:   c.Description,
			FileName:      c.FileName,
			FileSizeBytes: c.Size,
			MimeType:      c.MediaType,
			StorageKey:    result.StorageKey,
			UploadedAt:    time.Now().UTC(),
		}
		if err := p.recorder.CreateDocument(ctx, doc); err != nil {
			p.logger.WithError(err).WithField("file", c.FileName).Error("document record creation failed")
			p.reportError(err.Error())
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		p.progress(c.FileName, 100)

		if p.OnComplete != nil {
			p.OnComplete(doc)
		}
	}

	// candidates are consumed; advisory warnings stay readable for display
	p.pending = nil

	return firstErr
}

func (p *Pipeline) blockedMessage() string {
	count := 0
	for _, issue := range p.issues {
		if issue.Severity == SeverityError {
			count++
		}
	}
	if count == 1 {
		return "1 file failed validation"
	}
	return fmt.Sprintf("%d files failed validation", count)
}

func (p *Pipeline) progress(fileName string, pct int) {
	if p.OnProgress != nil {
		p.OnProgress(fileName, pct)
	}
}

func (p *Pipeline) reportError(msg string) {
	if p.OnError != nil {
		p.OnError(msg)
	}
}
