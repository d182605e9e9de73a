package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all client configuration
type Config struct {
	Api    ApiConfig    `mapstructure:"api"`
	Push   PushConfig   `mapstructure:"push"`
	Search SearchConfig `mapstructure:"search"`
	State  StateConfig  `mapstructure:"state"`
	Notify NotifyConfig `mapstructure:"notify"`
}

// ApiConfig holds REST collaborator configuration
type ApiConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	Token        string        `mapstructure:"token"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// PushConfig holds push channel configuration
type PushConfig struct {
	URL           string `mapstructure:"url"`
	EventBuffer   int    `mapstructure:"event_buffer"`
	CurrentUserId string `mapstructure:"current_user_id"`
}

// SearchConfig holds user search configuration
type SearchConfig struct {
	DebounceWindow time.Duration `mapstructure:"debounce_window"`
}

// StateConfig holds local state persistence configuration
type StateConfig struct {
	Path string `mapstructure:"path"`
}

// NotifyConfig holds notification configuration
type NotifyConfig struct {
	Sound bool `mapstructure:"sound"`
}

// Load loads configuration from file
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Set defaults
	if cfg.Api.BaseURL == "" {
		cfg.Api.BaseURL = "http://localhost:8080/api/v1"
	}
	if cfg.Api.DialTimeout == 0 {
		cfg.Api.DialTimeout = 10 * time.Second
	}
	if cfg.Api.ReadTimeout == 0 {
		cfg.Api.ReadTimeout = 30 * time.Second
	}
	if cfg.Api.WriteTimeout == 0 {
		cfg.Api.WriteTimeout = 30 * time.Second
	}
	if cfg.Push.URL == "" {
		cfg.Push.URL = "ws://localhost:8080/ws"
	}
	if cfg.Push.EventBuffer == 0 {
		cfg.Push.EventBuffer = 256
	}
	if cfg.Search.DebounceWindow == 0 {
		cfg.Search.DebounceWindow = 500 * time.Millisecond
	}
	if cfg.State.Path == "" {
		cfg.State.Path = "parley.db"
	}

	return &cfg, nil
}
