package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Load reads .env (if present), the environment and the per-host yaml file.
func Load() error {
	if err := godotenv.Load(); err != nil {
		zap.S().Debugf("no .env file loaded: %v", err)
	}
	if err := LoadEnv(); err != nil {
		return err
	}
	if err := LoadHostConfigs(Env.ConfigPath); err != nil {
		return fmt.Errorf("failed to load host configs: %w", err)
	}
	return nil
}
