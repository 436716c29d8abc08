package config

import (
	"fmt"
	"maps"
	"net/url"
	"os"

	"m3u8dl/models"

	"gopkg.in/yaml.v3"
)

var hostConfigs map[string]*models.HostConfig

func LoadHostConfigs(configPath string) error {
	hostConfigs = make(map[string]*models.HostConfig)

	_, err := os.Stat(configPath)
	if os.IsNotExist(err) {
		return nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed reading config file: %w", err)
	}

	var rawConfig map[string]*models.HostConfig

	if err := yaml.Unmarshal(data, &rawConfig); err != nil {
		return fmt.Errorf("failed parsing config file: %w", err)
	}
	maps.Copy(hostConfigs, rawConfig)

	return nil
}

// GetHostConfig returns the settings for the host of rawURL,
// environment proxies and user agent fill whatever the host entry leaves empty.
func GetHostConfig(rawURL string) *models.HostConfig {
	cfg := &models.HostConfig{}
	if parsed, err := url.Parse(rawURL); err == nil {
		if hostCfg, exists := hostConfigs[parsed.Hostname()]; exists && hostCfg != nil {
			*cfg = *hostCfg
		}
	}
	if cfg.HTTPProxy == "" {
		cfg.HTTPProxy = Env.HTTPProxy
	}
	if cfg.HTTPSProxy == "" {
		cfg.HTTPSProxy = Env.HTTPSProxy
	}
	if cfg.NoProxy == "" {
		cfg.NoProxy = Env.NoProxy
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = Env.UserAgent
	}
	return cfg
}
