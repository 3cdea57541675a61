// Package fetcher retrieves résumé bytes for a stored file reference.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"resume-ingest/internal/shared/telemetry"
	"resume-ingest/internal/storageref"
)

// ErrFetchFailed is wrapped by every error returned from Fetcher.Fetch.
var ErrFetchFailed = errors.New("failed to download resume file")

var errNoData = errors.New("no data returned from storage download")

// BlobStore is the primary retrieval strategy.
type BlobStore interface {
	Download(ctx context.Context, path string) ([]byte, error)
}

// NetworkFetcher is the fallback used for legacy URL references.
type NetworkFetcher interface {
	GetBytes(ctx context.Context, url string) ([]byte, error)
}

// Error records both retrieval attempts.
type Error struct {
	Reference     string
	Path          string
	Primary       error
	Fallback      error
	FallbackTried bool
}

func (e *Error) Error() string {
	cause := e.Primary
	if e.FallbackTried && e.Fallback != nil {
		cause = e.Fallback
	}
	if cause == nil {
		return ErrFetchFailed.Error()
	}
	return fmt.Sprintf("%s: %v", ErrFetchFailed.Error(), cause)
}

func (e *Error) Unwrap() []error {
	errs := []error{ErrFetchFailed}
	if e.Primary != nil {
		errs = append(errs, e.Primary)
	}
	if e.Fallback != nil {
		errs = append(errs, e.Fallback)
	}
	return errs
}

// Fetcher resolves a reference and downloads it, falling back to a direct
// network read when the reference was a URL and the blob store failed.
type Fetcher struct {
	Store    BlobStore
	Network  NetworkFetcher
	Resolver storageref.Resolver
}

// New returns a Fetcher. network may be nil, in which case legacy references
// get no fallback.
func New(store BlobStore, network NetworkFetcher, bucket string) *Fetcher {
	return &Fetcher{
		Store:    store,
		Network:  network,
		Resolver: storageref.Resolver{Bucket: bucket},
	}
}

// Fetch returns the file bytes for reference. At most one primary and one
// fallback attempt are made.
func (f *Fetcher) Fetch(ctx context.Context, reference string) ([]byte, error) {
	if f == nil || f.Store == nil {
		return nil, &Error{Reference: reference, Primary: errors.New("blob store not configured")}
	}

	res, resolveErr := f.Resolver.Parse(reference)
	if resolveErr != nil {
		telemetry.Info("storage.reference_unresolved", map[string]any{
			"reference": redactQuery(reference),
			"error":     resolveErr.Error(),
		})
	}

	data, err := f.Store.Download(ctx, res.Path)
	if err == nil && data == nil {
		err = errNoData
	}
	if err == nil {
		return data, nil
	}

	fetchErr := &Error{Reference: reference, Path: res.Path, Primary: err}
	if !storageref.IsURL(reference) || f.Network == nil {
		return nil, fetchErr
	}

	telemetry.Info("storage.download_fallback", map[string]any{
		"path":  res.Path,
		"error": err.Error(),
	})
	fetchErr.FallbackTried = true
	data, err = f.Network.GetBytes(ctx, reference)
	if err != nil {
		fetchErr.Fallback = err
		return nil, fetchErr
	}
	return data, nil
}

func redactQuery(reference string) string {
	if i := strings.IndexByte(reference, '?'); i >= 0 {
		return reference[:i]
	}
	return reference
}
