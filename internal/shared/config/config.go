package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/docker/go-units"
	"github.com/joho/godotenv"
)

const (
	defaultMaxUploadSize = "5MB"
	defaultFetchTimeout  = 30 * time.Second
)

// Config holds application configuration.
type Config struct {
	Port            string
	Env             string
	DatabaseURL     string
	CORSAllowOrigin []string
	JWTSecret       string

	ObjectStoreType   string
	LocalStoreDir     string
	AWSRegion         string
	S3Bucket          string
	S3Prefix          string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
	SSEKMSKeyID       string
	// StorageBucket is the bucket name embedded in legacy public URLs.
	StorageBucket string

	LLMProvider  string
	LLMModel     string
	OpenAIAPIKey string
	GeminiAPIKey string

	FetchTimeout   time.Duration
	MaxUploadBytes int64
	ProcessDedupe  bool
	// ProcessRatePerMinute limits parse triggers per user. Zero disables it.
	ProcessRatePerMinute float64
	ProcessBurst         int

	RabbitMQURL string
	SQSQueueURL string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience. Existing
	// environment variables win.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")

	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}

	return Config{
		Port:            getEnv("PORT", "8080"),
		Env:             env,
		DatabaseURL:     dbURL,
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		JWTSecret:       os.Getenv("JWT_SECRET"),

		ObjectStoreType:   normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:     getEnv("LOCAL_STORE_DIR", "./data"),
		AWSRegion:         getEnv("AWS_REGION", "us-east-1"),
		S3Bucket:          getEnv("S3_BUCKET", ""),
		S3Prefix:          getEnv("S3_PREFIX", ""),
		S3Endpoint:        getEnv("S3_ENDPOINT", ""),
		S3AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
		S3SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
		SSEKMSKeyID:       getEnv("SSE_KMS_KEY_ID", ""),
		StorageBucket:     getEnv("STORAGE_BUCKET", "resumes"),

		LLMProvider:  normalizeProvider(getEnv("LLM_PROVIDER", "openai")),
		LLMModel:     getEnv("LLM_MODEL", ""),
		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),

		FetchTimeout:         getDuration("FETCH_TIMEOUT", defaultFetchTimeout),
		MaxUploadBytes:       getSize("MAX_UPLOAD_SIZE", defaultMaxUploadSize),
		ProcessDedupe:        getBool("PROCESS_DEDUPE", false),
		ProcessRatePerMinute: getFloat("PROCESS_RATE_PER_MINUTE", 10),
		ProcessBurst:         getInt("PROCESS_BURST", 5),

		RabbitMQURL: getEnv("RABBITMQ_URL", ""),
		SQSQueueURL: getEnv("RA_SQS_QUEUE_URL", ""),
	}
}

func loadEnvFiles(paths ...string) {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			log.Printf("config: load %s: %v", path, err)
		}
	}
}

func getEnv(key, def string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return def
}

func getSize(key, def string) int64 {
	raw := getEnv(key, def)
	size, err := units.RAMInBytes(raw)
	if err != nil || size <= 0 {
		log.Printf("config: %s=%q is not a size, using %s", key, raw, def)
		size, _ = units.RAMInBytes(def)
	}
	return size
}

func getDuration(key string, def time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	log.Printf("config: %s=%q is not a duration, using %s", key, raw, def)
	return def
}

func getBool(key string, def bool) bool {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	val, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return val
}

func getInt(key string, def int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return val
}

func getFloat(key string, def float64) float64 {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def
	}
	return val
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}

func normalizeProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "gemini", "google":
		return "gemini"
	case "none", "placeholder":
		return "none"
	default:
		return "openai"
	}
}
