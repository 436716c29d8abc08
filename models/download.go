package models

import (
	"net/http"
	"time"
)

type DownloadConfig struct {
	Timeout         time.Duration     // timeout for individual HTTP requests
	RetryAttempts   int               // total attempts per segment, first try included
	RetryDelay      time.Duration     // delay between attempts
	Concurrency     int               // segments fetched ahead of the staging cursor
	Remux           bool              // whether to remux the merged file with ffmpeg
	CleanupOnFail   bool              // remove the staging directory when a run fails
	ProgressUpdater func(int, int)    // optional function to report completed/total segments
	Headers         map[string]string // custom HTTP headers for every request
	Cookies         []*http.Cookie    // cookies to send with every request
	DecryptionKey   string            // hex key or key URL overriding the playlist's directive
}

func DefaultDownloadConfig() *DownloadConfig {
	return &DownloadConfig{
		Timeout:       30 * time.Second,
		RetryAttempts: 3,
		RetryDelay:    1 * time.Second,
		Concurrency:   1,
		Headers:       make(map[string]string),
		Cookies:       make([]*http.Cookie, 0),
	}
}

// GetDownloadConfig returns a new DownloadConfig with default values merged with the provided config.
// if the provided config is nil, it returns a new config with default values.
func GetDownloadConfig(config *DownloadConfig) *DownloadConfig {
	if config == nil {
		return DefaultDownloadConfig()
	}
	config.Ensure()
	return config
}

func (cfg *DownloadConfig) Ensure() {
	defaultConfig := DefaultDownloadConfig()

	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultConfig.Timeout
	}
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = defaultConfig.RetryAttempts
	}
	if cfg.RetryDelay < 0 {
		cfg.RetryDelay = defaultConfig.RetryDelay
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConfig.Concurrency
	}
	if cfg.Headers == nil {
		cfg.Headers = make(map[string]string)
	}
	if cfg.Cookies == nil {
		cfg.Cookies = make([]*http.Cookie, 0)
	}
}
