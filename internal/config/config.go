package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port         string
	AllowOrigins string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	AggregatorBaseURL  string
	AggregatorClientID string
	AggregatorSecret   string

	ReqTimeoutSec  int
	SyncTimeoutSec int
	SyncRPS        float64
	SyncBurst      int
	MaxUploadMB    int64
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoi(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func atof(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func Load() *Config {
	return &Config{
		Port:         getenv("PORT", "8080"),
		AllowOrigins: getenv("ALLOW_ORIGINS", "*"),

		DBHost:     getenv("DB_HOST", "localhost"),
		DBPort:     getenv("DB_PORT", "5432"),
		DBUser:     getenv("DB_USER", "postgres"),
		DBPassword: getenv("DB_PASSWORD", ""),
		DBName:     getenv("DB_NAME", "routecrm"),
		DBSSLMode:  getenv("DB_SSLMODE", "disable"),

		AggregatorBaseURL:  getenv("AGGREGATOR_BASE_URL", "https://sandbox.plaid.com"),
		AggregatorClientID: getenv("AGGREGATOR_CLIENT_ID", ""),
		AggregatorSecret:   getenv("AGGREGATOR_SECRET", ""),

		ReqTimeoutSec:  atoi("REQUEST_TIMEOUT_SECONDS", 30),
		SyncTimeoutSec: atoi("SYNC_TIMEOUT_SECONDS", 60),
		SyncRPS:        atof("SYNC_RATE_LIMIT_RPS", 1.0/30.0),
		SyncBurst:      atoi("SYNC_RATE_LIMIT_BURST", 1),
		MaxUploadMB:    int64(atoi("MAX_UPLOAD_MB", 15)),
	}
}
