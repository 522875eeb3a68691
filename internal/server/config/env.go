package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays Config with CPDVAULT_* environment variables. A .env file
// in the working directory is loaded first; real environment variables still
// win over its contents (godotenv never overrides existing values).
//
// Recognized variables:
//
//	CPDVAULT_ENDPOINT_ADDR            bind address for the HTTP endpoint
//	CPDVAULT_DATABASE_DSN             PostgreSQL DSN
//	CPDVAULT_SECRET_KEY               JWT signing secret
//	CPDVAULT_ACCESS_TOKEN_MINUTES     access token lifetime in minutes
//	CPDVAULT_REFRESH_TOKEN_MINUTES    refresh token lifetime in minutes
//	CPDVAULT_LOG_MODE                 "prod" or "dev"
//	CPDVAULT_S3_ROOT_USER             object storage access key
//	CPDVAULT_S3_ROOT_PASSWORD         object storage secret key
//	CPDVAULT_S3_BUCKET                object storage bucket
//	CPDVAULT_S3_REGION                object storage region
//	CPDVAULT_S3_BASE_ENDPOINT         object storage endpoint URL
func parseEnv(cfg *Config) {
	_ = godotenv.Load()

	if v := os.Getenv("CPDVAULT_ENDPOINT_ADDR"); v != "" {
		cfg.EndpointAddr = v
	}
	if v := os.Getenv("CPDVAULT_DATABASE_DSN"); v != "" {
		cfg.DatabaseDSN = v
	}
	if v := os.Getenv("CPDVAULT_SECRET_KEY"); v != "" {
		cfg.SecretKey = v
	}
	if v := os.Getenv("CPDVAULT_ACCESS_TOKEN_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.AccessTokenValidityDuration = time.Duration(n) * time.Minute
		}
	}
	if v := os.Getenv("CPDVAULT_REFRESH_TOKEN_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RefreshTokenValidityDuration = time.Duration(n) * time.Minute
		}
	}
	if v := os.Getenv("CPDVAULT_LOG_MODE"); v != "" {
		cfg.LogMode = v
	}
	if v := os.Getenv("CPDVAULT_S3_ROOT_USER"); v != "" {
		cfg.S3RootUser = v
	}
	if v := os.Getenv("CPDVAULT_S3_ROOT_PASSWORD"); v != "" {
		cfg.S3RootPassword = v
	}
	if v := os.Getenv("CPDVAULT_S3_BUCKET"); v != "" {
		cfg.S3Bucket = v
	}
	if v := os.Getenv("CPDVAULT_S3_REGION"); v != "" {
		cfg.S3Region = v
	}
	if v := os.Getenv("CPDVAULT_S3_BASE_ENDPOINT"); v != "" {
		cfg.S3BaseEndpoint = v
	}
}
