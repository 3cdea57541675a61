package resumes

import (
	"time"

	"resume-ingest/internal/parsing"
)

// Resume is one uploaded résumé file and its parse state.
//
// StorageReference holds either a canonical storage path or, for rows
// written before canonicalization, a public URL. It is never rewritten.
type Resume struct {
	ID               string
	OwnerID          string
	StorageReference string
	FileName         string
	FileSizeBytes    int64
	MimeType         string
	Status           Status
	ParsedData       *parsing.ParsedResume
	ParseError       *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
