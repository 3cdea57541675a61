package resumes

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"resume-ingest/internal/parsing"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const selectColumns = `id, user_id, file_url, file_name, file_size, mime_type, parse_status, parsed_data, parse_error, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// Create inserts a new résumé row.
func (r *PGRepo) Create(ctx context.Context, res Resume) error {
	const query = `
INSERT INTO resumes (
    id,
    user_id,
    file_url,
    file_name,
    file_size,
    mime_type,
    parse_status,
    created_at,
    updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	status := res.Status
	if status == "" {
		status = StatusPending
	}
	updatedAt := res.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = res.CreatedAt
	}

	_, err := r.DB.ExecContext(
		ctx,
		query,
		res.ID,
		res.OwnerID,
		res.StorageReference,
		res.FileName,
		res.FileSizeBytes,
		res.MimeType,
		string(status),
		res.CreatedAt,
		updatedAt,
	)
	return err
}

// GetByID fetches a résumé by ID scoped to its owner.
func (r *PGRepo) GetByID(ctx context.Context, ownerID, id string) (Resume, error) {
	if !validID(id) {
		return Resume{}, ErrNotFound
	}
	query := `
SELECT ` + selectColumns + `
FROM resumes
WHERE id = $1 AND user_id = $2
LIMIT 1`

	res, err := scanResume(r.DB.QueryRowContext(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Resume{}, ErrNotFound
		}
		return Resume{}, err
	}
	return res, nil
}

// ListByUser lists résumés ordered newest-first.
func (r *PGRepo) ListByUser(ctx context.Context, ownerID string, limit, offset int) ([]Resume, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	query := `
SELECT ` + selectColumns + `
FROM resumes
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`

	rows, err := r.DB.QueryContext(ctx, query, ownerID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Resume{}
	for rows.Next() {
		res, err := scanResume(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// UpdateParse writes the parse triple in one statement so a reader never
// sees a status without its matching result or error.
func (r *PGRepo) UpdateParse(ctx context.Context, id string, update ParseUpdate) error {
	if err := update.Validate(); err != nil {
		return err
	}
	if !validID(id) {
		return ErrNotFound
	}

	var parsed any
	if update.ParsedData != nil {
		raw, err := json.Marshal(update.ParsedData)
		if err != nil {
			return fmt.Errorf("marshal parsed data: %w", err)
		}
		parsed = string(raw)
	}
	var parseErr any
	if update.ParseError != nil {
		parseErr = *update.ParseError
	}

	const query = `
UPDATE resumes
SET parse_status = $1, parsed_data = $2, parse_error = $3, updated_at = now()
WHERE id = $4`
	result, err := r.DB.ExecContext(ctx, query, string(update.Status), parsed, parseErr, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// validID reports whether id can match the UUID primary key. Postgres rejects
// the cast for anything else, so such ids never name a row.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func scanResume(row rowScanner) (Resume, error) {
	var res Resume
	var status string
	var mimeType sql.NullString
	var fileSize sql.NullInt64
	var parsedRaw []byte
	var parseErr sql.NullString
	var updatedAt sql.NullTime
	if err := row.Scan(
		&res.ID,
		&res.OwnerID,
		&res.StorageReference,
		&res.FileName,
		&fileSize,
		&mimeType,
		&status,
		&parsedRaw,
		&parseErr,
		&res.CreatedAt,
		&updatedAt,
	); err != nil {
		return Resume{}, err
	}
	res.Status = Status(status)
	if mimeType.Valid {
		res.MimeType = mimeType.String
	}
	if fileSize.Valid {
		res.FileSizeBytes = fileSize.Int64
	}
	if len(parsedRaw) > 0 {
		var parsed parsing.ParsedResume
		if err := json.Unmarshal(parsedRaw, &parsed); err != nil {
			return Resume{}, fmt.Errorf("decode parsed_data for resume %s: %w", res.ID, err)
		}
		res.ParsedData = &parsed
	}
	if parseErr.Valid {
		msg := parseErr.String
		res.ParseError = &msg
	}
	if updatedAt.Valid {
		res.UpdatedAt = updatedAt.Time
	}
	return res, nil
}

var _ Repo = (*PGRepo)(nil)
