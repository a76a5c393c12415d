// Package config provides runtime configuration for the chathub server,
// loaded from environment variables with sensible defaults.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the server configuration settings.
type Config struct {
	Addr            string
	DefaultRoom     string
	HistoryLimit    int
	UploadDir       string
	MaxUploadSize   int64
	ShutdownTimeout time.Duration
}

// Default returns a Config populated with default values.
func Default() *Config {
	return &Config{
		Addr:            ":8080",
		DefaultRoom:     "general",
		HistoryLimit:    100,
		UploadDir:       "uploads",
		MaxUploadSize:   10 << 20, // 10 MB
		ShutdownTimeout: 10 * time.Second,
	}
}

// FromEnv returns a Config populated from environment variables,
// falling back to defaults for anything unset or unparseable.
func FromEnv() *Config {
	cfg := Default()

	if addr := os.Getenv("SERVER_ADDR"); addr != "" {
		cfg.Addr = addr
	}
	if room := os.Getenv("DEFAULT_ROOM"); room != "" {
		cfg.DefaultRoom = room
	}
	if limit := os.Getenv("HISTORY_LIMIT"); limit != "" {
		cfg.HistoryLimit = parseInt(limit, cfg.HistoryLimit)
	}
	if dir := os.Getenv("UPLOAD_DIR"); dir != "" {
		cfg.UploadDir = dir
	}
	if size := os.Getenv("MAX_UPLOAD_SIZE"); size != "" {
		cfg.MaxUploadSize = parseInt64(size, cfg.MaxUploadSize)
	}
	if timeout := os.Getenv("SHUTDOWN_TIMEOUT"); timeout != "" {
		if seconds := parseInt(timeout, 0); seconds > 0 {
			cfg.ShutdownTimeout = time.Duration(seconds) * time.Second
		}
	}

	return cfg
}

func parseInt(value string, fallback int) int {
	if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
		return parsed
	}
	return fallback
}

func parseInt64(value string, fallback int64) int64 {
	if parsed, err := strconv.ParseInt(value, 10, 64); err == nil && parsed > 0 {
		return parsed
	}
	return fallback
}
