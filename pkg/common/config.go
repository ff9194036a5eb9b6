package common

import (
	"os"
	"strconv"
	"time"
)

const (
	EnvLogLevel    = "PNGME_LOG_LEVEL"
	EnvS3Region    = "PNGME_S3_REGION"
	EnvS3Endpoint  = "PNGME_S3_ENDPOINT"
	EnvS3PathStyle = "PNGME_S3_PATH_STYLE"
	EnvHTTPTimeout = "PNGME_HTTP_TIMEOUT"
	EnvScanWorkers = "PNGME_SCAN_WORKERS"

	DefaultLogLevel    = "info"
	DefaultS3Region    = "us-east-1"
	DefaultHTTPTimeout = 30 * time.Second
	DefaultScanWorkers = 8
)

// GetEnv returns the value of key, or defaultValue when it is unset or empty.
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func GetEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func GetEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// S3Region resolves the region used for s3:// locations.
func S3Region() string {
	return GetEnv(EnvS3Region, GetEnv("AWS_REGION", DefaultS3Region))
}
