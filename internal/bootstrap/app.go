package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"resume-ingest/internal/extract"
	"resume-ingest/internal/fetcher"
	"resume-ingest/internal/llm"
	"resume-ingest/internal/llm/gemini"
	"resume-ingest/internal/llm/openai"
	"resume-ingest/internal/notify"
	"resume-ingest/internal/parsing"
	"resume-ingest/internal/queue"
	"resume-ingest/internal/resumes"
	"resume-ingest/internal/shared/config"
	"resume-ingest/internal/shared/server"
	"resume-ingest/internal/shared/storage/db"
	"resume-ingest/internal/shared/storage/object"
	localstore "resume-ingest/internal/shared/storage/object/local"
	s3store "resume-ingest/internal/shared/storage/object/s3"
	"resume-ingest/internal/shared/telemetry"
)

const (
	defaultOpenAIModel = "gpt-4o-mini"
	defaultGeminiModel = "gemini-1.5-flash"
)

// App holds shared dependencies.
type App struct {
	Config         config.Config
	Router         *gin.Engine
	DB             *sql.DB
	Store          object.ObjectStore
	Queue          queue.Client
	Notifier       notify.Publisher
	ResumesRepo    resumes.Repo
	ResumesService *resumes.Service
	ResumesHandler *resumes.Handler
	// Processor runs the pipeline for queued jobs. Tests may replace it.
	Processor Processor

	closers []func() error
}

// Processor runs the ingestion pipeline for one résumé.
type Processor interface {
	Process(ctx context.Context, ownerID, resumeID string) (parsing.ParsedResume, error)
}

// Build wires every dependency and the HTTP router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()
	app := &App{Config: cfg}

	sqlDB, err := openDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.DB = sqlDB

	store, err := buildStore(ctx, cfg)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Store = store

	client, err := app.buildLLM(ctx)
	if err != nil {
		app.Close()
		return nil, err
	}

	if err := app.buildMessaging(ctx); err != nil {
		app.Close()
		return nil, err
	}

	if app.DB != nil {
		app.ResumesRepo = &resumes.PGRepo{DB: app.DB}
	} else {
		app.ResumesRepo = resumes.NewMemoryRepo()
	}

	network := fetcher.NewHTTPClient(cfg.FetchTimeout, cfg.MaxUploadBytes)
	app.ResumesService = &resumes.Service{
		Repo:           app.ResumesRepo,
		Blobs:          app.Store,
		Fetcher:        fetcher.New(app.Store, network, cfg.StorageBucket),
		Text:           extract.New(),
		Parser:         parsing.New(client),
		Notifier:       app.Notifier,
		Queue:          app.Queue,
		MaxUploadBytes: cfg.MaxUploadBytes,
		Dedupe:         cfg.ProcessDedupe,
	}
	app.Processor = app.ResumesService
	app.ResumesHandler = resumes.NewHandler(app.ResumesService)
	if app.ResumesHandler == nil {
		app.Close()
		return nil, errors.New("failed to initialize handlers")
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:         cfg,
		ResumesHandler: app.ResumesHandler,
		DB:             app.DB,
	})
	return app, nil
}

// Close releases connections opened by Build. The database handle is left
// open when it is the process-wide Lambda singleton.
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if a.DB != nil && !db.IsLambdaRuntime() {
		if err := a.DB.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// openDB is swapped in tests to hand Build a mock handle.
var openDB = buildDB

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_repo", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	sqlDB, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_repo", map[string]any{"reason": "database connect failed", "error": err.Error()})
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, s3store.Options{
			Region:          cfg.AWSRegion,
			Bucket:          cfg.S3Bucket,
			Prefix:          cfg.S3Prefix,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			KMSKeyID:        cfg.SSEKMSKeyID,
		})
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func (a *App) buildLLM(ctx context.Context) (llm.Client, error) {
	cfg := a.Config
	switch cfg.LLMProvider {
	case "openai":
		if strings.TrimSpace(cfg.OpenAIAPIKey) == "" {
			return a.placeholderLLM("OPENAI_API_KEY empty")
		}
		return openai.NewClient(cfg.OpenAIAPIKey, modelOrDefault(cfg.LLMModel, defaultOpenAIModel))
	case "gemini":
		if strings.TrimSpace(cfg.GeminiAPIKey) == "" {
			return a.placeholderLLM("GEMINI_API_KEY empty")
		}
		client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, modelOrDefault(cfg.LLMModel, defaultGeminiModel))
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client.Close)
		return client, nil
	default:
		return llm.PlaceholderClient{}, nil
	}
}

func modelOrDefault(model, def string) string {
	if m := strings.TrimSpace(model); m != "" {
		return m
	}
	return def
}

func (a *App) placeholderLLM(reason string) (llm.Client, error) {
	if !isDevLike(a.Config.Env) {
		return nil, fmt.Errorf("LLM_PROVIDER=%s: %s", a.Config.LLMProvider, reason)
	}
	telemetry.Warn("bootstrap.llm_placeholder", map[string]any{"provider": a.Config.LLMProvider, "reason": reason})
	return llm.PlaceholderClient{}, nil
}

func (a *App) buildMessaging(ctx context.Context) error {
	a.Notifier = notify.Noop{}
	if url := strings.TrimSpace(a.Config.RabbitMQURL); url != "" {
		pub, closeConn, err := notify.Dial(url, notify.DefaultExchange)
		if err != nil {
			if !isDevLike(a.Config.Env) {
				return err
			}
			telemetry.Warn("bootstrap.notify_disabled", map[string]any{"error": err.Error()})
		} else {
			a.Notifier = pub
			a.closers = append(a.closers, closeConn)
		}
	}

	if url := strings.TrimSpace(a.Config.SQSQueueURL); url != "" {
		client, err := queue.NewSQSClient(ctx, url, a.Config.AWSRegion)
		if err != nil {
			return err
		}
		a.Queue = client
	}
	return nil
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
