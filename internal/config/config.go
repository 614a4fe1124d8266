package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port        string
	Environment string
	DatabaseURL string
	JWKSURL     string
	CORSOrigins string
	TablePrefix string
	// AutoSaveDebounce is the quiet window before an editor snapshot is
	// persisted
	AutoSaveDebounce time.Duration
	Debug            bool
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")

	return &Config{
		Port:             getEnv("PORT", "8080"),
		Environment:      env,
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		JWKSURL:          getEnv("JWKS_URL", ""),
		CORSOrigins:      getEnv("CORS_ORIGINS", "http://localhost:3000"),
		TablePrefix:      getTablePrefix(env),
		AutoSaveDebounce: getDebounce(),
		Debug:            getEnv("DEBUG", getDefaultDebug(env)) == "true",
	}
}

// getDebounce reads AUTOSAVE_DEBOUNCE_MS, defaulting to two seconds
func getDebounce() time.Duration {
	raw := os.Getenv("AUTOSAVE_DEBOUNCE_MS")
	if raw == "" {
		return 2 * time.Second
	}
	ms, err := strconv.Atoi(raw)
	if err != nil || ms < 0 {
		return 2 * time.Second
	}
	return time.Duration(ms) * time.Millisecond
}

// getDefaultDebug returns the default debug setting based on environment
func getDefaultDebug(env string) string {
	if env == "prod" {
		return "false"
	}
	return "true"
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
