package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// App Settings
	LogLevel      string `envconfig:"LOG_LEVEL" default:"INFO"`
	Workers       int    `envconfig:"MAX_WORKERS" default:"4"`
	DecodeWorkers int    `envconfig:"DECODE_WORKERS" default:"4"`
	DisplayTZ     string `envconfig:"DISPLAY_TZ" default:"Local"`

	// Fetching
	FetchTimeout time.Duration `envconfig:"FETCH_TIMEOUT" default:"30s"`
	FetchRetries int           `envconfig:"FETCH_RETRIES" default:"3"`
	FetchBackoff time.Duration `envconfig:"FETCH_BACKOFF" default:"1s"`
	UserAgent    string        `envconfig:"USER_AGENT" default:"ClashForAndroid/2.5.12"`

	// File System Paths
	InputPath     string `envconfig:"INPUT_PATH" default:"subscriptions.txt"`
	OutputPath    string `envconfig:"OUTPUT_PATH" default:"reports.jsonl"`
	TxtOutputPath string `envconfig:"TXT_OUTPUT_PATH" default:"reports.txt"`
	GeoIPPath     string `envconfig:"GEOIP_PATH"`

	// Telegram (optional)
	TelegramToken  string `envconfig:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID string `envconfig:"TELEGRAM_CHAT_ID"`
}

// Load reads .env and processes environment variables
func Load() (*Config, error) {
	// Silently ignore if .env is missing (production might use real ENV vars)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return &cfg, nil
}

// Location resolves DisplayTZ.
func (c *Config) Location() (*time.Location, error) {
	switch c.DisplayTZ {
	case "", "Local":
		return time.Local, nil
	case "UTC":
		return time.UTC, nil
	}
	return time.LoadLocation(c.DisplayTZ)
}

func (c *Config) TelegramEnabled() bool {
	return c.TelegramToken != "" && c.TelegramChatID != ""
}
