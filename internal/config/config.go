package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	Port      string
	StaticDir string

	// Database
	DBDriver string // "sqlite" | "sqlite-pure" | "postgres"
	DBPath   string // SQLite path
	DBUrl    string // Postgres DSN

	// Catalog cache
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	// Generative model
	GeminiAPIKey  string
	GeminiModel   string
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string
	ModelTimeout  time.Duration

	// Fallback generator
	FallbackEnabled     bool
	FallbackDefaultKeys []string // empty = no default scene
	AliasesFile         string

	// Asset bucket (catalog seeding)
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioUseSSL    bool

	// Prompt log retention; zero keeps entries forever
	PromptLogRetention time.Duration

	// Logging
	LogLevel string
}

func Load() *Config {
	return &Config{
		Port:                firstEnv([]string{"HUB_PORT", "PORT"}, "8000"),
		StaticDir:           getEnv("HUB_STATIC_DIR", "./static"),
		DBDriver:            getEnv("HUB_DB_DRIVER", "sqlite"),
		DBPath:              getEnv("HUB_DB_PATH", "./data/text3d.db"),
		DBUrl:               getEnv("HUB_DATABASE_URL", ""),
		RedisAddr:           getEnv("HUB_REDIS_ADDR", ""),
		RedisPassword:       getEnv("HUB_REDIS_PASSWORD", ""),
		RedisDB:             getEnvInt("HUB_REDIS_DB", 0),
		CacheTTL:            getEnvDuration("HUB_CATALOG_CACHE_TTL", 10*time.Minute),
		GeminiAPIKey:        firstEnv([]string{"HUB_GEMINI_API_KEY", "GEMINI_API_KEY"}, ""),
		GeminiModel:         getEnv("HUB_GEMINI_MODEL", "gemini-1.5-pro"),
		OpenAIAPIKey:        firstEnv([]string{"HUB_OPENAI_API_KEY", "OPENAI_API_KEY"}, ""),
		OpenAIModel:         getEnv("HUB_OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:       getEnv("HUB_OPENAI_BASE_URL", "https://api.openai.com/v1"),
		ModelTimeout:        getEnvDuration("HUB_MODEL_TIMEOUT", 20*time.Second),
		FallbackEnabled:     getEnvBool("HUB_FALLBACK_ENABLED", true),
		FallbackDefaultKeys: getEnvList("HUB_FALLBACK_DEFAULT_KEYS", []string{"sun", "earth"}),
		AliasesFile:         getEnv("HUB_ALIASES_FILE", ""),
		MinioEndpoint:       getEnv("HUB_MINIO_ENDPOINT", ""),
		MinioAccessKey:      getEnv("HUB_MINIO_ACCESS_KEY", ""),
		MinioSecretKey:      getEnv("HUB_MINIO_SECRET_KEY", ""),
		MinioUseSSL:         getEnvBool("HUB_MINIO_USE_SSL", true),
		PromptLogRetention:  getEnvDuration("HUB_PROMPT_LOG_RETENTION", 30*24*time.Hour),
		LogLevel:            firstEnv([]string{"HUB_LOG_LEVEL", "LOG_LEVEL"}, "info"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// firstEnv returns the first non-empty value among keys, in order.
func firstEnv(keys []string, fallback string) string {
	for _, key := range keys {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// getEnvList splits a comma separated value. A variable that is set but blank
// yields an empty list, which is how the default scene is switched off.
func getEnvList(key string, fallback []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	out := make([]string, 0)
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, strings.ToLower(part))
		}
	}
	return out
}
