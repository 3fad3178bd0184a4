package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL string
	AppHost     string

	// CompanyName is folded into the company part of generated asset codes.
	CompanyName string

	// MigrationsDir overrides the embedded migrations when set.
	MigrationsDir string

	RequestTimeout time.Duration
	LogLevel       string

	// WriteRateLimit is the number of mutating requests a client may send
	// per minute.
	WriteRateLimit int
}

// Load reads .env when present without overriding variables already set in
// the environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: No .env file found, falling back to system environment variables.")
	}

	return Config{
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		AppHost:        getEnv("APP_HOST", ":8080"),
		CompanyName:    getEnv("COMPANY_NAME", "Company"),
		MigrationsDir:  getEnv("MIGRATIONS_DIR", ""),
		RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 15*time.Second),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		WriteRateLimit: getEnvInt("WRITE_RATE_LIMIT", 120),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

// getEnvDuration accepts Go durations ("30s") or a plain number of seconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if seconds := getEnvInt(key, 0); seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return fallback
}
