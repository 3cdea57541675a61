package resumes

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"resume-ingest/internal/parsing"
)

func newMockRepo(t *testing.T) (*PGRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &PGRepo{DB: db}, mock
}

const testResumeID = "3f1b6c2a-8e4d-4b7a-9c0e-5d2f1a6b7c8d"

var resumeColumns = []string{"id", "user_id", "file_url", "file_name", "file_size", "mime_type", "parse_status", "parsed_data", "parse_error", "created_at", "updated_at"}

func TestPGRepoCreate(t *testing.T) {
	repo, mock := newMockRepo(t)
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	res := Resume{
		ID:               testResumeID,
		OwnerID:          "u-1",
		StorageReference: "u-1/1-cv.pdf",
		FileName:         "cv.pdf",
		FileSizeBytes:    1234,
		MimeType:         "application/pdf",
		CreatedAt:        created,
	}

	mock.ExpectExec("INSERT INTO resumes").
		WithArgs(testResumeID, "u-1", "u-1/1-cv.pdf", "cv.pdf", int64(1234), "application/pdf", "PENDING", created, created).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Create(context.Background(), res); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByID(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now().UTC()
	rows := sqlmock.NewRows(resumeColumns).
		AddRow(testResumeID, "u-1", "u-1/cv.pdf", "cv.pdf", int64(10), "application/pdf", "COMPLETED",
			[]byte(`{"profile":{"fullName":"Jane"},"workExperience":[],"skills":{"technical":["Go"]}}`), nil, now, now)

	mock.ExpectQuery("SELECT .* FROM resumes\\s+WHERE id = \\$1 AND user_id = \\$2").
		WithArgs(testResumeID, "u-1").
		WillReturnRows(rows)

	got, err := repo.GetByID(context.Background(), "u-1", testResumeID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != StatusCompleted || got.ParsedData == nil || got.ParsedData.Profile.FullName != "Jane" {
		t.Fatalf("unexpected resume %+v", got)
	}
	if got.ParseError != nil {
		t.Fatalf("unexpected parse error %q", *got.ParseError)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByIDNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery("SELECT .* FROM resumes").
		WithArgs(testResumeID, "u-2").
		WillReturnError(sql.ErrNoRows)

	if _, err := repo.GetByID(context.Background(), "u-2", testResumeID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoListByUserClampsLimit(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now().UTC()
	rows := sqlmock.NewRows(resumeColumns).
		AddRow("7d0c2a4e-5b8f-4f6a-9e1d-2c3b4a5d6e7f", "u-1", "u-1/b.pdf", "b.pdf", nil, nil, "FAILED", nil, "boom", now, nil).
		AddRow(testResumeID, "u-1", "u-1/a.pdf", "a.pdf", int64(5), "application/pdf", "PENDING", nil, nil, now.Add(-time.Hour), now)

	mock.ExpectQuery("ORDER BY created_at DESC").
		WithArgs("u-1", 100, 0).
		WillReturnRows(rows)

	got, err := repo.ListByUser(context.Background(), "u-1", 500, -3)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(got) != 2 || got[0].ID != "7d0c2a4e-5b8f-4f6a-9e1d-2c3b4a5d6e7f" {
		t.Fatalf("unexpected list %+v", got)
	}
	if got[0].ParseError == nil || *got[0].ParseError != "boom" {
		t.Fatalf("parse error not scanned: %+v", got[0])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoUpdateParseWritesTripleTogether(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("UPDATE resumes\\s+SET parse_status = \\$1, parsed_data = \\$2, parse_error = \\$3").
		WithArgs("PROCESSING", nil, nil, testResumeID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE resumes").
		WithArgs("COMPLETED", sqlmock.AnyArg(), nil, testResumeID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE resumes").
		WithArgs("FAILED", nil, "bad output", testResumeID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ctx := context.Background()
	if err := repo.UpdateParse(ctx, testResumeID, Processing()); err != nil {
		t.Fatalf("processing: %v", err)
	}
	if err := repo.UpdateParse(ctx, testResumeID, Completed(parsing.ParsedResume{Profile: parsing.Profile{FullName: "Jane"}})); err != nil {
		t.Fatalf("completed: %v", err)
	}
	if err := repo.UpdateParse(ctx, testResumeID, Failed("bad output")); err != nil {
		t.Fatalf("failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoUpdateParseErrors(t *testing.T) {
	repo, mock := newMockRepo(t)

	if err := repo.UpdateParse(context.Background(), testResumeID, ParseUpdate{Status: StatusCompleted}); !errors.Is(err, ErrInvalidUpdate) {
		t.Fatalf("expected ErrInvalidUpdate, got %v", err)
	}

	mock.ExpectExec("UPDATE resumes").
		WithArgs("PROCESSING", nil, nil, "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))
	if err := repo.UpdateParse(context.Background(), "missing", Processing()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoNonUUIDIsNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	ctx := context.Background()

	for _, id := range []string{"abc", "r-1", "123", "3f1b6c2a-8e4d"} {
		if _, err := repo.GetByID(ctx, "u-1", id); !errors.Is(err, ErrNotFound) {
			t.Fatalf("GetByID(%q) err = %v, want ErrNotFound", id, err)
		}
		if err := repo.UpdateParse(ctx, id, Processing()); !errors.Is(err, ErrNotFound) {
			t.Fatalf("UpdateParse(%q) err = %v, want ErrNotFound", id, err)
		}
	}
	// No statement may reach Postgres for these ids.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
