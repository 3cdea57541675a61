package queue

import (
	"reflect"
	"testing"
)

func TestMessageRoundTrip(t *testing.T) {
	msg := Message{
		ResumeID:   "resume-123",
		OwnerID:    "user-9",
		RequestID:  "request-456",
		EnqueuedAt: "2026-01-30T22:00:00Z",
		Version:    MessageVersion,
	}

	payload, err := EncodeMessage(msg)
	if err != nil {
		t.Fatalf("encode message: %v", err)
	}

	got, err := DecodeMessage(payload)
	if err != nil {
		t.Fatalf("decode message: %v", err)
	}

	if !reflect.DeepEqual(got, msg) {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, msg)
	}
}

func TestDecodeMessageWireNames(t *testing.T) {
	got, err := DecodeMessage([]byte(`{"resumeId":"r-1","userId":"u-1","version":1}`))
	if err != nil {
		t.Fatalf("decode message: %v", err)
	}
	if got.ResumeID != "r-1" || got.OwnerID != "u-1" {
		t.Fatalf("unexpected message %+v", got)
	}
	if _, err := DecodeMessage([]byte("{")); err == nil {
		t.Fatalf("expected decode error")
	}
}
