package llm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
)

// Client abstracts completion providers that can return schema-shaped JSON.
type Client interface {
	GenerateStructured(ctx context.Context, req StructuredRequest) (json.RawMessage, error)
}

// StructuredRequest is a single structured-output completion call.
type StructuredRequest struct {
	// SchemaName labels the schema for providers that require one.
	SchemaName string
	// Schema is a JSON Schema document the output should conform to.
	Schema json.RawMessage
	System string
	Prompt string
}

var (
	// ErrNotImplemented is returned by the placeholder client.
	ErrNotImplemented = errors.New("LLM not implemented")
	// ErrEmptyResponse is returned when a provider answers with no content.
	ErrEmptyResponse = errors.New("LLM returned empty content")
)

// PlaceholderClient is used when no provider is configured.
type PlaceholderClient struct{}

// GenerateStructured returns ErrNotImplemented.
func (PlaceholderClient) GenerateStructured(ctx context.Context, req StructuredRequest) (json.RawMessage, error) {
	_ = ctx
	_ = req
	return nil, ErrNotImplemented
}

// CleanJSONBlock removes markdown code fences some models wrap JSON in.
func CleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
