package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr             string        `mapstructure:"addr" yaml:"addr"`
	ServerName       string        `mapstructure:"server_name" yaml:"server_name"`
	MetricsAddr      string        `mapstructure:"metrics_addr" yaml:"metrics_addr"`
	LogLevel         string        `mapstructure:"log_level" yaml:"log_level"`
	ResolveHostnames bool          `mapstructure:"resolve_hostnames" yaml:"resolve_hostnames"`
	SendQueueDepth   int           `mapstructure:"send_queue_depth" yaml:"send_queue_depth"`
	ShutdownTimeout  time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:             ":6667",
		ServerName:       "localhost",
		MetricsAddr:      "",
		LogLevel:         "info",
		ResolveHostnames: true,
		SendQueueDepth:   64,
		ShutdownTimeout:  5 * time.Second,
	}
}
