package config

import "github.com/gettakaro/MCP/internal/common"

// NewDefaultConfig creates a configuration with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 4250,
			Host: "localhost",
			AllowedOrigins: []string{
				"http://localhost",
				"http://127.0.0.1",
			},
		},
		Takaro: TakaroConfig{
			URL: "https://api.takaro.io",
		},
		Spec: SpecConfig{
			CacheTTLHours: 24,
			FetchRetries:  3,
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data/takaro-mcp",
			},
		},
		Logging: common.LoggingConfig{
			Level:   "info",
			Outputs: []string{"console", "file"},
		},
	}
}
