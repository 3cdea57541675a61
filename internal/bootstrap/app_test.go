package bootstrap

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-ingest/internal/notify"
	"resume-ingest/internal/resumes"
	"resume-ingest/internal/shared/config"
)

func devConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		Env:            "dev",
		LocalStoreDir:  t.TempDir(),
		LLMProvider:    "none",
		StorageBucket:  "resumes",
		MaxUploadBytes: 5 << 20,
	}
}

func TestBuildDevUsesMemoryAndLocalStore(t *testing.T) {
	app, err := Build(devConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	assert.Nil(t, app.DB)
	assert.IsType(t, &resumes.MemoryRepo{}, app.ResumesRepo)
	assert.IsType(t, notify.Noop{}, app.Notifier)
	assert.Nil(t, app.Queue)
	require.NotNil(t, app.Processor)
	assert.Equal(t, int64(5<<20), app.ResumesService.MaxUploadBytes)

	w := httptest.NewRecorder()
	app.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBuildRequiresDatabaseOutsideDev(t *testing.T) {
	cfg := devConfig(t)
	cfg.Env = "production"

	_, err := Build(cfg)
	assert.Error(t, err)
}

func TestBuildMissingLLMKeyFallsBackInDev(t *testing.T) {
	cfg := devConfig(t)
	cfg.LLMProvider = "openai"

	app, err := Build(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	assert.NotNil(t, app.ResumesService.Parser)
}

func TestBuildS3RequiresBucket(t *testing.T) {
	cfg := devConfig(t)
	cfg.ObjectStoreType = "s3"

	_, err := Build(cfg)
	assert.Error(t, err)
}

func TestBuildClosesDatabaseWhenStoreFails(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectClose()

	prev := openDB
	openDB = func(context.Context, config.Config) (*sql.DB, error) { return sqlDB, nil }
	t.Cleanup(func() { openDB = prev })

	cfg := devConfig(t)
	cfg.ObjectStoreType = "s3"

	app, err := Build(cfg)
	assert.Error(t, err)
	assert.Nil(t, app)
	assert.NoError(t, mock.ExpectationsWereMet())
}
