package resumes

import (
	"errors"
	"strings"
	"testing"

	"resume-ingest/internal/parsing"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusProcessing, true},
		{StatusFailed, StatusProcessing, true},
		{StatusCompleted, StatusProcessing, true},
		{StatusProcessing, StatusProcessing, true},
		{StatusProcessing, StatusCompleted, true},
		{StatusProcessing, StatusFailed, true},
		{StatusPending, StatusCompleted, false},
		{StatusPending, StatusFailed, false},
		{StatusFailed, StatusCompleted, false},
		{StatusCompleted, StatusPending, false},
		{Status("bogus"), StatusProcessing, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Fatalf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestTransitionLabel(t *testing.T) {
	if got := TransitionLabel(StatusPending, StatusProcessing); got != "pending->processing" {
		t.Fatalf("label = %q", got)
	}
}

func TestFailedDefaultsAndSanitizes(t *testing.T) {
	u := Failed("  ")
	if u.ParseError == nil || *u.ParseError != DefaultFailureMessage {
		t.Fatalf("expected default message, got %v", u.ParseError)
	}

	u = Failed("line one\nline two\r\n")
	if *u.ParseError != "line one line two" {
		t.Fatalf("message = %q", *u.ParseError)
	}

	u = Failed(strings.Repeat("x", 900))
	if len(*u.ParseError) != maxParseErrorLen {
		t.Fatalf("message length = %d", len(*u.ParseError))
	}
}

func TestParseUpdateValidate(t *testing.T) {
	msg := "boom"
	data := &parsing.ParsedResume{}
	cases := []struct {
		name   string
		update ParseUpdate
		ok     bool
	}{
		{name: "processing", update: Processing(), ok: true},
		{name: "completed", update: Completed(parsing.ParsedResume{}), ok: true},
		{name: "failed", update: Failed("boom"), ok: true},
		{name: "processing with error", update: ParseUpdate{Status: StatusProcessing, ParseError: &msg}},
		{name: "completed without data", update: ParseUpdate{Status: StatusCompleted}},
		{name: "completed with error", update: ParseUpdate{Status: StatusCompleted, ParsedData: data, ParseError: &msg}},
		{name: "failed without error", update: ParseUpdate{Status: StatusFailed}},
		{name: "failed with data", update: ParseUpdate{Status: StatusFailed, ParsedData: data, ParseError: &msg}},
		{name: "pending", update: ParseUpdate{Status: StatusPending}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.update.Validate()
			if tc.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tc.ok && !errors.Is(err, ErrInvalidUpdate) {
				t.Fatalf("expected ErrInvalidUpdate, got %v", err)
			}
		})
	}
}

func TestErrorClassification(t *testing.T) {
	cases := []struct {
		err       error
		stage     string
		retryable bool
	}{
		{err: ErrFetchFailed, stage: "fetch", retryable: true},
		{err: ErrExtractionFailed, stage: "extract", retryable: false},
		{err: ErrSchemaExtractionFailed, stage: "parse", retryable: true},
		{err: ErrPersistenceFailed, stage: "persist", retryable: true},
		{err: ErrNotFound, stage: "internal", retryable: false},
		{err: errors.New("other"), stage: "internal", retryable: true},
	}
	for _, tc := range cases {
		if got := Stage(tc.err); got != tc.stage {
			t.Fatalf("Stage(%v) = %q, want %q", tc.err, got, tc.stage)
		}
		if got := Retryable(tc.err); got != tc.retryable {
			t.Fatalf("Retryable(%v) = %v, want %v", tc.err, got, tc.retryable)
		}
	}
}
