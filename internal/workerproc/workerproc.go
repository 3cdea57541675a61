package workerproc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"resume-ingest/internal/parsing"
	"resume-ingest/internal/queue"
	"resume-ingest/internal/resumes"
)

// Processor runs the ingestion pipeline for one résumé.
type Processor interface {
	Process(ctx context.Context, ownerID, resumeID string) (parsing.ParsedResume, error)
}

// MessageMeta captures details useful for logging and diagnostics.
type MessageMeta struct {
	BodyLen int
	BodySHA string
}

// ComputeMeta returns the body length and SHA-256 hash.
func ComputeMeta(body string) MessageMeta {
	if body == "" {
		return MessageMeta{}
	}
	sum := sha256.Sum256([]byte(body))
	return MessageMeta{BodyLen: len(body), BodySHA: hex.EncodeToString(sum[:])}
}

// ErrEmptyBody indicates an empty queue payload.
type ErrEmptyBody struct {
	Meta MessageMeta
}

func (e ErrEmptyBody) Error() string { return "empty message body" }

// ErrDecode indicates a JSON decode failure.
type ErrDecode struct {
	Meta MessageMeta
	Err  error
}

func (e ErrDecode) Error() string {
	if e.Err == nil {
		return "decode message"
	}
	return "decode message: " + e.Err.Error()
}

func (e ErrDecode) Unwrap() error { return e.Err }

// ErrMissingField indicates a message without a resume or owner id.
type ErrMissingField struct {
	Meta      MessageMeta
	RequestID string
	Field     string
}

func (e ErrMissingField) Error() string { return "missing " + e.Field }

// ErrProcess indicates processing failed after successful parsing.
type ErrProcess struct {
	ResumeID  string
	RequestID string
	Err       error
}

func (e ErrProcess) Error() string {
	if e.Err == nil {
		return "process resume"
	}
	return "process resume: " + e.Err.Error()
}

func (e ErrProcess) Unwrap() error { return e.Err }

// ParseMessage validates and decodes the queue payload.
func ParseMessage(body string) (queue.Message, MessageMeta, error) {
	meta := ComputeMeta(body)
	if strings.TrimSpace(body) == "" {
		return queue.Message{}, meta, ErrEmptyBody{Meta: meta}
	}

	msg, err := queue.DecodeMessage([]byte(body))
	if err != nil {
		return queue.Message{}, meta, ErrDecode{Meta: meta, Err: err}
	}
	msg.ResumeID = strings.TrimSpace(msg.ResumeID)
	msg.OwnerID = strings.TrimSpace(msg.OwnerID)
	if msg.ResumeID == "" {
		return msg, meta, ErrMissingField{Meta: meta, RequestID: msg.RequestID, Field: "resumeId"}
	}
	if msg.OwnerID == "" {
		return msg, meta, ErrMissingField{Meta: meta, RequestID: msg.RequestID, Field: "userId"}
	}
	return msg, meta, nil
}

type parsedMessageKey struct{}

// WithParsedMessage stores a decoded message in the context for reuse.
func WithParsedMessage(ctx context.Context, msg queue.Message) context.Context {
	return context.WithValue(ctx, parsedMessageKey{}, msg)
}

func parsedMessageFromContext(ctx context.Context) (queue.Message, bool) {
	if ctx == nil {
		return queue.Message{}, false
	}
	msg, ok := ctx.Value(parsedMessageKey{}).(queue.Message)
	return msg, ok
}

// HandleMessage parses, validates, and processes a message payload.
func HandleMessage(ctx context.Context, processor Processor, body string) error {
	if processor == nil {
		return errors.New("resume processor not configured")
	}

	msg, ok := parsedMessageFromContext(ctx)
	if !ok {
		var err error
		msg, _, err = ParseMessage(body)
		if err != nil {
			return err
		}
	}
	if msg.ResumeID == "" {
		return ErrMissingField{Meta: ComputeMeta(body), RequestID: msg.RequestID, Field: "resumeId"}
	}
	if msg.OwnerID == "" {
		return ErrMissingField{Meta: ComputeMeta(body), RequestID: msg.RequestID, Field: "userId"}
	}

	ctxWithRequest := resumes.WithRequestID(ctx, msg.RequestID)
	if _, err := processor.Process(ctxWithRequest, msg.OwnerID, msg.ResumeID); err != nil {
		return ErrProcess{ResumeID: msg.ResumeID, RequestID: msg.RequestID, Err: err}
	}
	return nil
}

// ShouldDelete reports whether a message is finished with: it succeeded, it
// can never be decoded, or redelivery would fail the same way.
func ShouldDelete(err error) bool {
	if err == nil {
		return true
	}
	var (
		empty   ErrEmptyBody
		decode  ErrDecode
		missing ErrMissingField
		proc    ErrProcess
	)
	switch {
	case errors.As(err, &empty), errors.As(err, &decode), errors.As(err, &missing):
		return true
	case errors.As(err, &proc):
		return !resumes.Retryable(proc.Err)
	default:
		return false
	}
}
