package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"m3u8dl/models"
)

var Env = GetDefaultConfig()

func LoadEnv() error {
	if value := os.Getenv("HTTP_PROXY"); value != "" {
		Env.HTTPProxy = value
	}
	if value := os.Getenv("HTTPS_PROXY"); value != "" {
		Env.HTTPSProxy = value
	}
	if value := os.Getenv("NO_PROXY"); value != "" {
		Env.NoProxy = value
	}
	if value := os.Getenv("USER_AGENT"); value != "" {
		Env.UserAgent = value
	}
	if value := os.Getenv("RETRY_ATTEMPTS"); value != "" {
		attempts, err := strconv.Atoi(value)
		if err != nil || attempts <= 0 {
			return fmt.Errorf("RETRY_ATTEMPTS env is not a valid positive integer: %q", value)
		}
		Env.RetryAttempts = attempts
	}
	if value := os.Getenv("RETRY_DELAY"); value != "" {
		delay, err := time.ParseDuration(value)
		if err != nil || delay < 0 {
			return fmt.Errorf("RETRY_DELAY env is not a valid duration: %q", value)
		}
		Env.RetryDelay = delay
	}
	if value := os.Getenv("CONFIG_PATH"); value != "" {
		Env.ConfigPath = value
	}
	if value := os.Getenv("LOG_LEVEL"); value != "" {
		Env.LogLevel = value
	}
	if value := os.Getenv("LOG_FILE"); value != "" {
		Env.LogFile = value
	}
	return nil
}

func GetDefaultConfig() *models.EnvConfig {
	return &models.EnvConfig{
		RetryAttempts: 3,
		RetryDelay:    time.Second,
		ConfigPath:    "config.yaml",
		LogLevel:      "info",
	}
}
