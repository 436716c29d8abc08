package models

import "time"

type EnvConfig struct {
	HTTPSProxy string
	HTTPProxy  string
	NoProxy    string
	UserAgent  string

	RetryAttempts int
	RetryDelay    time.Duration

	ConfigPath string
	LogLevel   string
	LogFile    string
}

// per-host overrides, keyed by hostname in the yaml file
type HostConfig struct {
	HTTPProxy  string            `yaml:"http_proxy"`
	HTTPSProxy string            `yaml:"https_proxy"`
	NoProxy    string            `yaml:"no_proxy"`
	UserAgent  string            `yaml:"user_agent"`
	Headers    map[string]string `yaml:"headers"`
}
