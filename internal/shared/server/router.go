package server

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"

	"resume-ingest/internal/resumes"
	"resume-ingest/internal/shared/config"
	"resume-ingest/internal/shared/metrics"
	"resume-ingest/internal/shared/server/middleware"
	"resume-ingest/internal/shared/server/respond"
	"resume-ingest/internal/shared/storage/db"
)

const (
	healthPath  = "/api/v1/health"
	metricsPath = "/metrics"

	rateGroupProcess = "PROCESS"
)

// RouterDeps are the handlers and resources the router needs.
type RouterDeps struct {
	Config         config.Config
	ResumesHandler *resumes.Handler
	DB             *sql.DB
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	cfg := deps.Config
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigin),
		middleware.Auth(middleware.AuthConfig{
			Env:         cfg.Env,
			Secret:      []byte(cfg.JWTSecret),
			PublicPaths: []string{healthPath, metricsPath},
		}),
	)

	r.GET(metricsPath, metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", healthHandler(deps.DB))
	registerMeRoutes(api)

	if deps.ResumesHandler != nil {
		deps.ResumesHandler.RegisterRoutes(api, processRateLimit(cfg)...)
	}
	return r
}

func healthHandler(sqlDB *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Health(c.Request.Context(), sqlDB); err != nil {
			respond.Error(c, http.StatusServiceUnavailable, "unavailable", "database unreachable", nil)
			return
		}
		storage := "memory"
		if sqlDB != nil {
			storage = "postgres"
		}
		respond.JSON(c, http.StatusOK, gin.H{"ok": true, "storage": storage})
	}
}

// processRateLimit limits parse triggers per user. It returns nothing when
// the limit is disabled.
func processRateLimit(cfg config.Config) []gin.HandlerFunc {
	if cfg.ProcessRatePerMinute <= 0 || cfg.ProcessBurst <= 0 {
		return nil
	}
	return []gin.HandlerFunc{middleware.RateLimit(middleware.RateLimitConfig{
		Rules: map[string]middleware.RateLimitRule{
			rateGroupProcess: {Rate: cfg.ProcessRatePerMinute / 60, Burst: cfg.ProcessBurst},
		},
		DefaultGroup: rateGroupProcess,
	})}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}

// Shutdown drains in-flight requests.
func Shutdown(ctx context.Context, srv *http.Server) error {
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
