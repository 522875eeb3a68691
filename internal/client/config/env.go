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
//	CPDVAULT_SERVER_ADDR           base URL of the backend HTTP API
//	CPDVAULT_DB_PATH               path to the local SQLite database file
//	CPDVAULT_ONLINE_CHECK_SECONDS  online check interval in seconds
//	CPDVAULT_SYNC_SECONDS          background sync interval in seconds
//	CPDVAULT_TRANSCRIBE_LANGUAGE   language code for voice note recognition
func parseEnv(cfg *Config) {
	_ = godotenv.Load()

	if v := os.Getenv("CPDVAULT_SERVER_ADDR"); v != "" {
		cfg.ServerEndpointAddr = v
	}
	if v := os.Getenv("CPDVAULT_DB_PATH"); v != "" {
		cfg.LocalDBPath = v
	}
	if v := os.Getenv("CPDVAULT_ONLINE_CHECK_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.OnlineCheckInterval = time.Duration(n) * time.Second
		}
	}
	if v := os.Getenv("CPDVAULT_SYNC_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SyncInterval = time.Duration(n) * time.Second
		}
	}
	if v := os.Getenv("CPDVAULT_TRANSCRIBE_LANGUAGE"); v != "" {
		cfg.TranscribeLanguage = v
	}
}
