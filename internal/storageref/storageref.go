// Package storageref normalizes persisted résumé file references into
// canonical blob-store paths.
//
// Records written after the storage-path change hold a relative key such as
// "{ownerId}/{timestamp}-{name}". Older records hold the full public URL the
// storage provider returned at upload time; those are mapped back to the key
// at read time and never rewritten.
package storageref

import (
	"errors"
	"net/url"
	"strings"
)

// DefaultBucket is the bucket name embedded in legacy public URLs.
const DefaultBucket = "resumes"

// ErrUnrecognizedURL reports a URL-shaped reference that carries neither known
// storage marker. The reference is passed through unchanged alongside it.
var ErrUnrecognizedURL = errors.New("storageref: url does not contain a known storage marker")

// Resolution describes how a reference was normalized.
type Resolution struct {
	// Path is the canonical storage path, or the unchanged reference when no
	// normalization was possible.
	Path string
	// Legacy is true when the input was URL-shaped.
	Legacy bool
	// Marker is the path marker that matched, empty for canonical input.
	Marker string
}

// Resolver maps references for a single bucket.
type Resolver struct {
	Bucket string
}

// Resolve returns the canonical path for reference using DefaultBucket.
func Resolve(reference string) string {
	return Resolver{}.Resolve(reference)
}

// Parse is Resolver.Parse using DefaultBucket.
func Parse(reference string) (Resolution, error) {
	return Resolver{}.Parse(reference)
}

// IsURL reports whether reference carries an http(s) scheme.
func IsURL(reference string) bool {
	lower := strings.ToLower(reference)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// Resolve returns the canonical path for reference. It never fails; inputs it
// cannot normalize come back unchanged.
func (r Resolver) Resolve(reference string) string {
	res, _ := r.Parse(reference)
	return res.Path
}

// Parse normalizes reference and reports which marker matched. A non-nil
// error is diagnostic only: res.Path is always usable.
//
// A tail that is itself URL-shaped is resolved again until a key remains, so
// Resolve(Resolve(x)) == Resolve(x). Marker reports the outermost match.
func (r Resolver) Parse(reference string) (Resolution, error) {
	if !IsURL(reference) {
		return Resolution{Path: reference}, nil
	}

	res := Resolution{Path: reference, Legacy: true}
	for IsURL(res.Path) {
		path, marker, ok := r.strip(res.Path)
		if !ok {
			return res, ErrUnrecognizedURL
		}
		if res.Marker == "" {
			res.Marker = marker
		}
		res.Path = path
	}
	return res, nil
}

// strip removes everything up to and including the first marker found. The
// result is always shorter than reference.
func (r Resolver) strip(reference string) (path, marker string, ok bool) {
	for _, marker := range r.markers() {
		idx := strings.Index(reference, marker)
		if idx < 0 {
			continue
		}
		return decode(stripQuery(reference[idx+len(marker):])), marker, true
	}
	return "", "", false
}

// markers lists path markers in priority order, most specific first.
func (r Resolver) markers() []string {
	bucket := strings.Trim(strings.TrimSpace(r.Bucket), "/")
	if bucket == "" {
		bucket = DefaultBucket
	}
	return []string{
		"/storage/v1/object/public/" + bucket + "/",
		"/" + bucket + "/",
	}
}

func stripQuery(s string) string {
	if i := strings.IndexByte(s, '?'); i >= 0 {
		return s[:i]
	}
	return s
}

func decode(s string) string {
	decoded, err := url.PathUnescape(s)
	if err != nil {
		return s
	}
	return decoded
}
