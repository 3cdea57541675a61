// Package parsing turns résumé text into a schema-validated ParsedResume
// using a structured-output completion client.
package parsing

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"resume-ingest/internal/llm"
)

// SchemaName labels the schema in provider requests.
const SchemaName = "parsed_resume"

// ErrSchemaExtractionFailed is wrapped by every error returned from Extract.
var ErrSchemaExtractionFailed = errors.New("structured extraction failed")

var (
	//go:embed prompts/system.txt
	systemPrompt string
	//go:embed prompts/extract.txt
	extractTemplate string
)

// Extractor calls a completion client and validates its answer.
type Extractor struct {
	client llm.Client
}

// New returns an Extractor bound to client. The client carries the provider
// and model choice.
func New(client llm.Client) *Extractor {
	return &Extractor{client: client}
}

// BuildRequest returns the completion request for text. Empty text is sent
// as is.
func BuildRequest(text string) llm.StructuredRequest {
	replacer := strings.NewReplacer(
		"{{SCHEMA}}", string(schemaJSON),
		"{{RESUME_TEXT}}", text,
	)
	return llm.StructuredRequest{
		SchemaName: SchemaName,
		Schema:     Schema(),
		System:     strings.TrimSpace(systemPrompt),
		Prompt:     replacer.Replace(extractTemplate),
	}
}

// Extract makes exactly one completion call. Any transport or validation
// failure fails the whole call.
func (e *Extractor) Extract(ctx context.Context, text string) (ParsedResume, error) {
	if e == nil || e.client == nil {
		return ParsedResume{}, fmt.Errorf("%w: completion client not configured", ErrSchemaExtractionFailed)
	}

	raw, err := e.client.GenerateStructured(ctx, BuildRequest(text))
	if err != nil {
		return ParsedResume{}, fmt.Errorf("%w: %w", ErrSchemaExtractionFailed, err)
	}

	parsed, err := Decode(raw)
	if err != nil {
		return ParsedResume{}, fmt.Errorf("%w: %w", ErrSchemaExtractionFailed, err)
	}
	return parsed, nil
}

// Decode validates raw against the schema and decodes it.
func Decode(raw []byte) (ParsedResume, error) {
	if err := Validate(raw); err != nil {
		return ParsedResume{}, err
	}

	var out ParsedResume
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		return ParsedResume{}, fmt.Errorf("decode parsed resume: %w", err)
	}
	return out, nil
}
