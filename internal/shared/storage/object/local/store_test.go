package local

import (
	"context"
	"errors"
	"strings"
	"testing"

	"resume-ingest/internal/shared/storage/object"
)

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := New(t.TempDir())

	n, err := store.Put(ctx, "u1/1700000000000-cv.pdf", "application/pdf", strings.NewReader("%PDF-1.4"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if n != 8 {
		t.Fatalf("expected 8 bytes written, got %d", n)
	}

	data, err := store.Download(ctx, "u1/1700000000000-cv.pdf")
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if string(data) != "%PDF-1.4" {
		t.Fatalf("unexpected data: %q", data)
	}

	if err := store.Delete(ctx, "u1/1700000000000-cv.pdf"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Download(ctx, "u1/1700000000000-cv.pdf"); !errors.Is(err, object.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := store.Delete(ctx, "u1/1700000000000-cv.pdf"); err != nil {
		t.Fatalf("second Delete should be a no-op: %v", err)
	}
}

func TestStoreRejectsTraversal(t *testing.T) {
	store := New(t.TempDir())
	if _, err := store.Download(context.Background(), "u1/../../etc/passwd"); err == nil {
		t.Fatalf("expected traversal to be rejected")
	}
	if _, err := store.Put(context.Background(), "", "text/plain", strings.NewReader("x")); err == nil {
		t.Fatalf("expected empty key to be rejected")
	}
}
