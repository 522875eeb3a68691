package config

import "time"

// Config holds runtime settings for the CPD Vault client.
//
// Fields:
//   - ServerEndpointAddr: base URL of the backend HTTP API.
//   - LocalDBPath: path to the local SQLite database file.
//   - OnlineCheckInterval: how often the client probes server reachability.
//   - SyncInterval: how often the background syncer attempts an upload pass.
//   - TranscribeLanguage: BCP-47 language code for voice note recognition.
type Config struct {
	ServerEndpointAddr  string
	LocalDBPath         string
	OnlineCheckInterval time.Duration
	SyncInterval        time.Duration
	TranscribeLanguage  string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "http://127.0.0.1:8080"
	c.LocalDBPath = "cpdvault.db"
	c.OnlineCheckInterval = 3 * time.Second
	c.SyncInterval = 5 * time.Minute
	c.TranscribeLanguage = "en-GB"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// the environment, JSON (if present) and command-line flags (if present).
// Later sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
