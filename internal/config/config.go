// Package config loads runtime configuration for the ClickNote core.
//
// Values come from environment variables (optionally seeded from a .env file)
// with sensible defaults for local use. The sync batch size defaults to 10 and
// should stay there: it is part of the drain contract the server expects.
package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all settings consumed by the core and the companion server.
type Config struct {
	DataDir       string
	ListenAddr    string
	RemoteBaseURL string
	RemoteAPIKey  string
	ActorID       string
	SyncInterval  time.Duration
	SyncBatchSize int
	ForceOffline  bool
	LogLevel      string
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, err
		}
	}

	v := viper.New()
	v.SetEnvPrefix("CLICKNOTE")
	v.AutomaticEnv()

	v.SetDefault("data_dir", "./data")
	v.SetDefault("listen_addr", "localhost:8090")
	v.SetDefault("remote_base_url", "")
	v.SetDefault("remote_api_key", "")
	v.SetDefault("actor_id", "")
	v.SetDefault("sync_interval", 15*time.Minute)
	v.SetDefault("sync_batch_size", 10)
	v.SetDefault("force_offline", false)
	v.SetDefault("log_level", "info")

	return &Config{
		DataDir:       v.GetString("data_dir"),
		ListenAddr:    v.GetString("listen_addr"),
		RemoteBaseURL: v.GetString("remote_base_url"),
		RemoteAPIKey:  v.GetString("remote_api_key"),
		ActorID:       v.GetString("actor_id"),
		SyncInterval:  v.GetDuration("sync_interval"),
		SyncBatchSize: v.GetInt("sync_batch_size"),
		ForceOffline:  v.GetBool("force_offline"),
		LogLevel:      v.GetString("log_level"),
	}, nil
}
