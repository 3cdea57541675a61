package resumes

import (
	"fmt"
	"strings"

	"resume-ingest/internal/parsing"
)

// Status is the parse lifecycle state of a résumé.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

// DefaultFailureMessage is stored when a failure carries no message.
const DefaultFailureMessage = "Unknown error during processing"

const maxParseErrorLen = 500

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// CanTransition reports whether a record in from may move to to.
// Entering PROCESSING is allowed from every state so a failed or completed
// résumé can be processed again.
func CanTransition(from, to Status) bool {
	switch to {
	case StatusProcessing:
		return from.Valid()
	case StatusCompleted, StatusFailed:
		return from == StatusProcessing
	}
	return false
}

// TransitionLabel renders a transition for logs, e.g. "pending->processing".
func TransitionLabel(from, to Status) string {
	return strings.ToLower(string(from)) + "->" + strings.ToLower(string(to))
}

// ParseUpdate is the status, parsedData and parseError triple written in a
// single store call.
type ParseUpdate struct {
	Status     Status
	ParsedData *parsing.ParsedResume
	ParseError *string
}

// Processing clears any previous result or error.
func Processing() ParseUpdate {
	return ParseUpdate{Status: StatusProcessing}
}

// Completed records a successful parse.
func Completed(data parsing.ParsedResume) ParseUpdate {
	return ParseUpdate{Status: StatusCompleted, ParsedData: &data}
}

// Failed records a failure message, sanitized to a single bounded line.
func Failed(message string) ParseUpdate {
	msg := sanitizeMessage(message)
	if msg == "" {
		msg = DefaultFailureMessage
	}
	return ParseUpdate{Status: StatusFailed, ParseError: &msg}
}

// Validate enforces that parsedData is set only for COMPLETED and
// parseError only for FAILED.
func (u ParseUpdate) Validate() error {
	switch u.Status {
	case StatusProcessing:
		if u.ParsedData != nil || u.ParseError != nil {
			return fmt.Errorf("%w: processing update must clear result and error", ErrInvalidUpdate)
		}
	case StatusCompleted:
		if u.ParsedData == nil || u.ParseError != nil {
			return fmt.Errorf("%w: completed update requires parsed data only", ErrInvalidUpdate)
		}
	case StatusFailed:
		if u.ParseError == nil || u.ParsedData != nil {
			return fmt.Errorf("%w: failed update requires parse error only", ErrInvalidUpdate)
		}
	default:
		return fmt.Errorf("%w: status %q cannot be written by the pipeline", ErrInvalidUpdate, u.Status)
	}
	return nil
}

// Apply copies the update onto r.
func (u ParseUpdate) Apply(r *Resume) {
	r.Status = u.Status
	r.ParsedData = u.ParsedData
	r.ParseError = u.ParseError
}

func sanitizeMessage(msg string) string {
	msg = strings.ReplaceAll(msg, "\n", " ")
	msg = strings.ReplaceAll(msg, "\r", " ")
	msg = strings.TrimSpace(msg)
	if len(msg) > maxParseErrorLen {
		msg = strings.ToValidUTF8(msg[:maxParseErrorLen], "")
	}
	return msg
}
