package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

type Config struct {
	Port        string
	StoreDriver string
	DatabaseURL string
	SQLiteDir   string

	AutosaveQuiet     time.Duration
	AutosaveTimeout   time.Duration
	AutosaveRetryBase time.Duration
	AutosaveRetryMax  time.Duration

	PreviewScale   float64
	ChromePath     string
	ExportAttempts int
	ArtifactDir    string

	LogLevel  string
	LogFormat string
}

// Load reads environment variables, optionally from a .env file if present.
func Load() Config {
	// Try to load .env if it exists; ignore error if file not found
	_ = godotenv.Load()

	return Config{
		Port:        getEnv("PORT", "3000"),
		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", DriverPostgres)),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		SQLiteDir:   getEnv("SQLITE_DIR", "resume-data"),

		AutosaveQuiet:     getEnvMillis("AUTOSAVE_QUIET_MS", time.Second),
		AutosaveTimeout:   getEnvMillis("AUTOSAVE_TIMEOUT_MS", 10*time.Second),
		AutosaveRetryBase: getEnvMillis("AUTOSAVE_RETRY_BASE_MS", 2*time.Second),
		AutosaveRetryMax:  getEnvMillis("AUTOSAVE_RETRY_MAX_MS", time.Minute),

		PreviewScale:   getEnvFloat("PREVIEW_SCALE", 0.75),
		ChromePath:     os.Getenv("CHROME_PATH"),
		ExportAttempts: getEnvInt("EXPORT_ATTEMPTS", 3),
		ArtifactDir:    os.Getenv("ARTIFACT_DIR"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

// getEnvMillis reads a millisecond count. Zero is allowed and disables the
// corresponding timer.
func getEnvMillis(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return time.Duration(n) * time.Millisecond
		}
	}
	return def
}
