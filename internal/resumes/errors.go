package resumes

import (
	"errors"

	"resume-ingest/internal/extract"
	"resume-ingest/internal/fetcher"
	"resume-ingest/internal/parsing"
)

var (
	ErrNotFound              = errors.New("resume not found")
	ErrInvalidInput          = errors.New("invalid input")
	ErrInvalidUpdate         = errors.New("invalid parse update")
	ErrPersistenceFailed     = errors.New("failed to persist resume state")
	ErrNotConfigured         = errors.New("resume pipeline not configured")
	ErrJobQueueNotConfigured = errors.New("job queue not configured")
)

// Stage failures, re-exported so callers only need this package.
var (
	ErrFetchFailed            = fetcher.ErrFetchFailed
	ErrExtractionFailed       = extract.ErrExtractionFailed
	ErrSchemaExtractionFailed = parsing.ErrSchemaExtractionFailed
)

const (
	ErrorCodeValidation = "validation_error"
	ErrorCodeNotFound   = "not_found"
	ErrorCodeFetch      = "fetch_failed"
	ErrorCodeExtraction = "extraction_failed"
	ErrorCodeSchema     = "schema_extraction_failed"
	ErrorCodeStorage    = "persistence_failed"
	ErrorCodeInternal   = "internal_error"
)

// Retryable reports whether re-running the pipeline could change the outcome.
// Extraction failures repeat for the same bytes and a missing record stays
// missing.
func Retryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrExtractionFailed), errors.Is(err, ErrInvalidInput):
		return false
	default:
		return true
	}
}

// Stage names the pipeline step an error came from, for metrics and logs.
func Stage(err error) string {
	switch {
	case errors.Is(err, ErrFetchFailed):
		return "fetch"
	case errors.Is(err, ErrExtractionFailed):
		return "extract"
	case errors.Is(err, ErrSchemaExtractionFailed):
		return "parse"
	case errors.Is(err, ErrPersistenceFailed):
		return "persist"
	default:
		return "internal"
	}
}
