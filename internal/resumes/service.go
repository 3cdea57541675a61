package resumes

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"resume-ingest/internal/extract"
	"resume-ingest/internal/notify"
	"resume-ingest/internal/parsing"
	"resume-ingest/internal/queue"
	"resume-ingest/internal/shared/metrics"
	"resume-ingest/internal/shared/storage/object"
	"resume-ingest/internal/shared/telemetry"
	"resume-ingest/internal/shared/util"
)

// DefaultMaxUploadBytes applies when Service.MaxUploadBytes is unset.
const DefaultMaxUploadBytes int64 = 5 << 20

// Fetcher returns the bytes behind a storage reference.
type Fetcher interface {
	Fetch(ctx context.Context, reference string) ([]byte, error)
}

// TextExtractor converts document bytes to plain text.
type TextExtractor interface {
	ExtractText(ctx context.Context, data []byte, hintMime string) (string, error)
}

// StructuredExtractor turns text into a validated ParsedResume.
type StructuredExtractor interface {
	Extract(ctx context.Context, text string) (parsing.ParsedResume, error)
}

// Service runs the résumé ingestion pipeline.
type Service struct {
	Repo     Repo
	Blobs    object.ObjectStore
	Fetcher  Fetcher
	Text     TextExtractor
	Parser   StructuredExtractor
	Notifier notify.Publisher
	Queue    queue.Client

	MaxUploadBytes int64
	// Dedupe makes concurrent Process calls for the same résumé share one
	// run within this process.
	Dedupe bool
	Now    func() time.Time

	inflight singleflight.Group
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Get returns a résumé owned by ownerID.
func (s *Service) Get(ctx context.Context, ownerID, id string) (Resume, error) {
	ownerID, id = strings.TrimSpace(ownerID), strings.TrimSpace(id)
	if ownerID == "" || id == "" {
		return Resume{}, ErrNotFound
	}
	res, err := s.Repo.GetByID(ctx, ownerID, id)
	if errors.Is(err, ErrNotFound) {
		return Resume{}, ErrNotFound
	}
	if err != nil {
		return Resume{}, fmt.Errorf("%w: load resume: %w", ErrPersistenceFailed, err)
	}
	return res, nil
}

// List returns résumés for a user, newest first.
func (s *Service) List(ctx context.Context, ownerID string, limit, offset int) ([]Resume, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, fmt.Errorf("%w: owner id is required", ErrInvalidInput)
	}
	out, err := s.Repo.ListByUser(ctx, ownerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: list resumes: %w", ErrPersistenceFailed, err)
	}
	return out, nil
}

// Process runs fetch, text extraction and structured extraction for one
// résumé and records the outcome. Every failure after the PROCESSING write
// is persisted as FAILED before it is returned.
func (s *Service) Process(ctx context.Context, ownerID, id string) (parsing.ParsedResume, error) {
	if !s.Dedupe {
		return s.process(ctx, ownerID, id)
	}
	key := strings.TrimSpace(ownerID) + "/" + strings.TrimSpace(id)
	v, err, _ := s.inflight.Do(key, func() (any, error) {
		return s.process(ctx, ownerID, id)
	})
	parsed, _ := v.(parsing.ParsedResume)
	return parsed, err
}

func (s *Service) process(ctx context.Context, ownerID, id string) (parsed parsing.ParsedResume, err error) {
	resume, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return parsing.ParsedResume{}, err
	}
	if s.Fetcher == nil || s.Text == nil || s.Parser == nil {
		return parsing.ParsedResume{}, ErrNotConfigured
	}

	// Once PROCESSING is written the run finishes even if the caller goes away.
	ctx = context.WithoutCancel(ctx)
	startedAt := s.now()
	if err := s.Repo.UpdateParse(ctx, resume.ID, Processing()); err != nil {
		return parsing.ParsedResume{}, fmt.Errorf("%w: set processing: %w", ErrPersistenceFailed, err)
	}
	metrics.IncParseStarted()
	s.emit(ctx, resume, resume.Status, StatusProcessing, nil, startedAt, startedAt)
	resume.Status = StatusProcessing

	defer func() {
		if r := recover(); r != nil {
			parsed = parsing.ParsedResume{}
			err = s.fail(ctx, resume, fmt.Errorf("panic during processing: %v", r), startedAt)
		}
	}()

	data, err := s.Fetcher.Fetch(ctx, resume.StorageReference)
	if err != nil {
		return parsing.ParsedResume{}, s.fail(ctx, resume, err, startedAt)
	}

	text, err := s.Text.ExtractText(ctx, data, resume.MimeType)
	if err != nil {
		return parsing.ParsedResume{}, s.fail(ctx, resume, err, startedAt)
	}

	parsed, err = s.Parser.Extract(ctx, text)
	if err != nil {
		return parsing.ParsedResume{}, s.fail(ctx, resume, err, startedAt)
	}

	if err := s.Repo.UpdateParse(ctx, resume.ID, Completed(parsed)); err != nil {
		return parsing.ParsedResume{}, s.fail(ctx, resume, fmt.Errorf("%w: save result: %w", ErrPersistenceFailed, err), startedAt)
	}

	completedAt := s.now()
	metrics.IncParseCompleted()
	metrics.ObserveParseDurationMs(durationMs(startedAt, completedAt))
	s.emit(ctx, resume, StatusProcessing, StatusCompleted, nil, startedAt, completedAt)
	return parsed, nil
}

// fail writes FAILED with the cause's message and returns the cause. A
// failed write is joined with the cause so neither is lost.
func (s *Service) fail(ctx context.Context, resume Resume, cause error, startedAt time.Time) error {
	stage := Stage(cause)
	update := Failed(cause.Error())
	completedAt := s.now()
	metrics.IncParseFailed(stage)
	metrics.ObserveParseDurationMs(durationMs(startedAt, completedAt))

	if err := s.Repo.UpdateParse(ctx, resume.ID, update); err != nil {
		telemetry.Error("resume.status_write_failed", map[string]any{
			"request_id": requestIDFromContext(ctx),
			"resume_id":  resume.ID,
			"stage":      stage,
			"error":      err.Error(),
			"cause":      sanitizeMessage(cause.Error()),
		})
		return errors.Join(cause, fmt.Errorf("%w: set failed: %w", ErrPersistenceFailed, err))
	}

	s.emit(ctx, resume, StatusProcessing, StatusFailed, map[string]any{
		"stage": stage,
		"error": *update.ParseError,
	}, startedAt, completedAt)
	return cause
}

func (s *Service) emit(ctx context.Context, resume Resume, from, to Status, extra map[string]any, startedAt, at time.Time) {
	transition := TransitionLabel(from, to)
	fields := map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"user_id":           resume.OwnerID,
		"resume_id":         resume.ID,
		"status":            to,
		"status_transition": transition,
		"duration_ms":       durationMs(startedAt, at),
	}
	for k, v := range extra {
		fields[k] = v
	}
	telemetry.Info("resume.status", fields)

	if s.Notifier == nil {
		return
	}
	ev := notify.Event{
		ResumeID:   resume.ID,
		OwnerID:    resume.OwnerID,
		Status:     string(to),
		Transition: transition,
		At:         at,
	}
	if msg, ok := extra["error"].(string); ok {
		ev.ParseError = msg
	}
	if err := s.Notifier.Publish(ctx, ev); err != nil {
		telemetry.Warn("resume.notify_failed", map[string]any{
			"resume_id": resume.ID,
			"status":    to,
			"error":     err.Error(),
		})
	}
}

func durationMs(startedAt, completedAt time.Time) float64 {
	return float64(completedAt.Sub(startedAt).Microseconds()) / 1000.0
}

// Enqueue asks a worker to process the résumé later.
func (s *Service) Enqueue(ctx context.Context, ownerID, id string) (Resume, error) {
	if s.Queue == nil {
		return Resume{}, ErrJobQueueNotConfigured
	}
	resume, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return Resume{}, err
	}
	msg := queue.Message{
		ResumeID:   resume.ID,
		OwnerID:    resume.OwnerID,
		RequestID:  requestIDFromContext(ctx),
		EnqueuedAt: s.now().Format(time.RFC3339),
		Version:    queue.MessageVersion,
	}
	if err := s.Queue.Send(ctx, msg); err != nil {
		return Resume{}, fmt.Errorf("enqueue resume: %w", err)
	}
	metrics.IncJobsEnqueued()
	telemetry.Info("resume.enqueued", map[string]any{
		"request_id": msg.RequestID,
		"user_id":    resume.OwnerID,
		"resume_id":  resume.ID,
	})
	return resume, nil
}

// UploadInput is one file submitted for ingestion.
type UploadInput struct {
	OwnerID     string
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Upload stores the file and creates a PENDING record. The blob is removed
// again when the record cannot be created.
func (s *Service) Upload(ctx context.Context, in UploadInput) (Resume, error) {
	ownerID := strings.TrimSpace(in.OwnerID)
	if ownerID == "" {
		return Resume{}, fmt.Errorf("%w: owner id is required", ErrInvalidInput)
	}
	if s.Blobs == nil {
		return Resume{}, ErrNotConfigured
	}
	if in.Body == nil {
		return Resume{}, fmt.Errorf("%w: file is required", ErrInvalidInput)
	}

	limit := s.MaxUploadBytes
	if limit <= 0 {
		limit = DefaultMaxUploadBytes
	}
	if in.Size > limit {
		return Resume{}, fmt.Errorf("%w: file exceeds %d bytes", ErrInvalidInput, limit)
	}
	data, err := io.ReadAll(io.LimitReader(in.Body, limit+1))
	if err != nil {
		return Resume{}, fmt.Errorf("%w: read upload: %w", ErrInvalidInput, err)
	}
	if int64(len(data)) > limit {
		return Resume{}, fmt.Errorf("%w: file exceeds %d bytes", ErrInvalidInput, limit)
	}
	if len(data) == 0 {
		return Resume{}, fmt.Errorf("%w: file is empty", ErrInvalidInput)
	}

	mime := extract.DetectMime(data, in.ContentType)
	if mime != extract.MimePDF && mime != extract.MimeDOCX {
		return Resume{}, fmt.Errorf("%w: unsupported file type %q", ErrInvalidInput, mime)
	}

	safeName, err := util.SanitizeFileName(in.FileName)
	if err != nil {
		return Resume{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	now := s.now()
	key, err := util.CleanKey(fmt.Sprintf("%s/%d-%s", ownerID, now.UnixMilli(), safeName))
	if err != nil {
		return Resume{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	if _, err := s.Blobs.Put(ctx, key, mime, bytes.NewReader(data)); err != nil {
		return Resume{}, fmt.Errorf("%w: store file: %w", ErrPersistenceFailed, err)
	}

	resume := Resume{
		ID:               uuid.NewString(),
		OwnerID:          ownerID,
		StorageReference: key,
		FileName:         strings.TrimSpace(in.FileName),
		FileSizeBytes:    int64(len(data)),
		MimeType:         mime,
		Status:           StatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.Repo.Create(ctx, resume); err != nil {
		if delErr := s.Blobs.Delete(context.WithoutCancel(ctx), key); delErr != nil {
			telemetry.Error("resume.upload_cleanup_failed", map[string]any{
				"user_id": ownerID,
				"key":     key,
				"error":   delErr.Error(),
			})
		}
		return Resume{}, fmt.Errorf("%w: create resume: %w", ErrPersistenceFailed, err)
	}

	metrics.IncUploads()
	telemetry.Info("resume.uploaded", map[string]any{
		"request_id": requestIDFromContext(ctx),
		"user_id":    ownerID,
		"resume_id":  resume.ID,
		"mime_type":  mime,
		"size_bytes": resume.FileSizeBytes,
	})
	return resume, nil
}
