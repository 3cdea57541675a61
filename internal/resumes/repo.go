package resumes

import "context"

// Repo defines persistence operations for résumé records.
type Repo interface {
	Create(ctx context.Context, r Resume) error
	// GetByID returns ErrNotFound when the record is missing or owned by
	// someone else.
	GetByID(ctx context.Context, ownerID, id string) (Resume, error)
	ListByUser(ctx context.Context, ownerID string, limit, offset int) ([]Resume, error)
	// UpdateParse writes status, parsedData and parseError together.
	UpdateParse(ctx context.Context, id string, update ParseUpdate) error
}
