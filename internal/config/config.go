// Package config reads kineticcore settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Storage drivers accepted in KINETICCORE_STORAGE_DRIVER.
const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

// Config holds all configuration for the kineticcore CLI.
type Config struct {
	StorageDriver string
	SQLitePath    string
	PostgresDSN   string

	BlobDriver string
	BlobFSRoot string
	S3         S3

	RedisURL    string
	Workers     int
	MetricsAddr string
	LogLevel    slog.Level
}

// S3 holds the report archive bucket settings.
type S3 struct {
	Bucket          string
	Region          string
	Endpoint        string
	PathStyle       bool
	AccessKeyID     string
	SecretAccessKey string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{
		StorageDriver: strings.ToLower(getEnv("KINETICCORE_STORAGE_DRIVER", StorageSQLite)),
		SQLitePath:    getEnv("KINETICCORE_SQLITE_PATH", "./kineticcore.db"),
		PostgresDSN:   getEnv("KINETICCORE_POSTGRES_DSN", "postgres://localhost:5432/kineticcore?sslmode=disable"),
		BlobDriver:    strings.ToLower(getEnv("KINETICCORE_BLOB_DRIVER", "fs")),
		BlobFSRoot:    getEnv("KINETICCORE_BLOB_FS_ROOT", "./reports"),
		S3: S3{
			Bucket:          os.Getenv("KINETICCORE_BLOB_S3_BUCKET"),
			Region:          getEnv("KINETICCORE_BLOB_S3_REGION", "us-east-1"),
			Endpoint:        os.Getenv("KINETICCORE_BLOB_S3_ENDPOINT"),
			AccessKeyID:     os.Getenv("KINETICCORE_BLOB_S3_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("KINETICCORE_BLOB_S3_SECRET_ACCESS_KEY"),
		},
		RedisURL:    getEnv("KINETICCORE_REDIS_URL", "redis://localhost:6379/0"),
		MetricsAddr: getEnv("KINETICCORE_METRICS_ADDR", ":9090"),
	}

	switch cfg.StorageDriver {
	case StorageMemory, StorageSQLite, StoragePostgres:
	default:
		return nil, fmt.Errorf("KINETICCORE_STORAGE_DRIVER: unknown driver %q", cfg.StorageDriver)
	}

	pathStyle, err := strconv.ParseBool(getEnv("KINETICCORE_BLOB_S3_PATH_STYLE", "false"))
	if err != nil {
		return nil, fmt.Errorf("KINETICCORE_BLOB_S3_PATH_STYLE: %w", err)
	}
	cfg.S3.PathStyle = pathStyle

	workers, err := strconv.Atoi(getEnv("KINETICCORE_WORKERS", "1"))
	if err != nil || workers < 1 {
		return nil, fmt.Errorf("KINETICCORE_WORKERS must be a positive integer, got %q", os.Getenv("KINETICCORE_WORKERS"))
	}
	cfg.Workers = workers

	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("KINETICCORE_LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("KINETICCORE_LOG_LEVEL: %w", err)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
