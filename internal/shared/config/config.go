package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	Port                     string
	Env                      string
	SessionSecret            string
	SessionTTL               time.Duration
	SessionCookieSecure      bool
	AdminUsername            string
	AdminPassword            string
	AdminPasswordHash        string
	LLMProvider              string
	LLMModel                 string
	OpenAIAPIKey             string
	OpenAIBaseURL            string
	GeminiAPIKey             string
	ExtractionTimeout        time.Duration
	MaxConcurrentExtractions int
	ExtractionQueueWait      time.Duration
	MaxUploadBytes           int64
	ImageMaxDimension        int
	ObjectStoreType          string
	LocalStoreDir            string
	AWSRegion                string
	S3Bucket                 string
	S3Prefix                 string
	SSEKMSKeyID              string
	DatabaseURL              string
	QueueBackend             string
	SQSQueueURL              string
	AMQPURL                  string
	AMQPExchange             string
	UploadRatePerSec         float64
	UploadRateBurst          int
	TrustedOrigins           []string
}

const devSessionSecret = "dev-session-secret"

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	for _, path := range []string{".env", "cmd/.env"} {
		_ = godotenv.Load(path)
	}

	env := normalizeEnv(getEnv("ENV", "dev"))
	secret := os.Getenv("SESSION_SECRET")
	if secret == "" {
		if env == "production" {
			log.Printf("SESSION_SECRET is required in production")
		}
		secret = devSessionSecret
	}

	return Config{
		Port:                     getEnv("PORT", "3000"),
		Env:                      env,
		SessionSecret:            secret,
		SessionTTL:               getDuration("SESSION_TTL", 12*time.Hour),
		SessionCookieSecure:      getBool("SESSION_COOKIE_SECURE", env == "production"),
		AdminUsername:            getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword:            getEnv("ADMIN_PASSWORD", "admin"),
		AdminPasswordHash:        os.Getenv("ADMIN_PASSWORD_HASH"),
		LLMProvider:              normalizeProvider(getEnv("LLM_PROVIDER", "openai")),
		LLMModel:                 getEnv("LLM_MODEL", ""),
		OpenAIAPIKey:             os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:            getEnv("OPENAI_BASE_URL", ""),
		GeminiAPIKey:             os.Getenv("GEMINI_API_KEY"),
		ExtractionTimeout:        getDuration("EXTRACTION_TIMEOUT", 120*time.Second),
		MaxConcurrentExtractions: getInt("MAX_CONCURRENT_EXTRACTIONS", 4),
		ExtractionQueueWait:      getDuration("EXTRACTION_QUEUE_WAIT", 30*time.Second),
		MaxUploadBytes:           int64(getInt("MAX_UPLOAD_BYTES", 10<<20)),
		ImageMaxDimension:        getInt("IMAGE_MAX_DIMENSION", 0),
		ObjectStoreType:          normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:            getEnv("LOCAL_STORE_DIR", "./uploads"),
		AWSRegion:                getEnv("AWS_REGION", ""),
		S3Bucket:                 getEnv("S3_BUCKET", ""),
		S3Prefix:                 getEnv("S3_PREFIX", ""),
		SSEKMSKeyID:              getEnv("SSE_KMS_KEY_ID", ""),
		DatabaseURL:              os.Getenv("DATABASE_URL"),
		QueueBackend:             normalizeQueueBackend(getEnv("QUEUE_BACKEND", "none")),
		SQSQueueURL:              getEnv("SQS_QUEUE_URL", ""),
		AMQPURL:                  getEnv("AMQP_URL", ""),
		AMQPExchange:             getEnv("AMQP_EXCHANGE", "intake"),
		UploadRatePerSec:         getFloat("UPLOAD_RATE_PER_SEC", 0.5),
		UploadRateBurst:          getInt("UPLOAD_RATE_BURST", 5),
		TrustedOrigins:           splitAndTrim(getEnv("TRUSTED_ORIGINS", "")),
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
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

func getInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("config: invalid %s=%q; using %d", key, raw, def)
		return def
	}
	return n
}

func getFloat(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Printf("config: invalid %s=%q; using %v", key, raw, def)
		return def
	}
	return f
}

func getBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return b
}

// getDuration accepts Go durations ("90s") or bare seconds ("90").
func getDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	log.Printf("config: invalid %s=%q; using %s", key, raw, def)
	return def
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
	default:
		return "openai"
	}
}

func normalizeQueueBackend(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "sqs":
		return "sqs"
	case "amqp", "rabbitmq":
		return "amqp"
	default:
		return "none"
	}
}
