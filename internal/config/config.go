package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/gettakaro/MCP/internal/common"
)

// Config represents the application configuration.
type Config struct {
	Server  ServerConfig         `toml:"server"`
	Takaro  TakaroConfig         `toml:"takaro"`
	Spec    SpecConfig           `toml:"spec"`
	Storage StorageConfig        `toml:"storage"`
	Logging common.LoggingConfig `toml:"logging"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
	// AllowedOrigins is the Origin allow-list for the MCP endpoint.
	// Requests carrying an Origin header not in this list are rejected.
	AllowedOrigins []string `toml:"allowed_origins"`
}

// TakaroConfig contains settings for the Takaro API connection.
type TakaroConfig struct {
	URL      string `toml:"url"`
	Username string `toml:"username"`
	Password string `toml:"password"`
}

// SpecConfig contains settings for OpenAPI document acquisition.
type SpecConfig struct {
	// CacheTTLHours is the freshness window for the cached document.
	CacheTTLHours int `toml:"cache_ttl_hours"`
	// FetchRetries is the number of fetch attempts before falling back
	// to a cached copy.
	FetchRetries int `toml:"fetch_retries"`
}

// StorageConfig contains storage layer settings.
type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig contains BadgerDB-specific settings.
type BadgerConfig struct {
	Path string `toml:"path"`
}

// LoadFromFile loads configuration with priority: defaults -> file -> env.
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// defaults -> file1 -> file2 -> ... -> env.
// Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		err = toml.Unmarshal(data, config)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies TAKARO_* environment variable overrides to config.
func applyEnvOverrides(config *Config) {
	if port := os.Getenv("TAKARO_MCP_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("TAKARO_MCP_HOST"); host != "" {
		config.Server.Host = host
	}
	if origins := os.Getenv("TAKARO_MCP_ALLOWED_ORIGINS"); origins != "" {
		var list []string
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				list = append(list, o)
			}
		}
		config.Server.AllowedOrigins = list
	}
	if url := os.Getenv("TAKARO_URL"); url != "" {
		config.Takaro.URL = url
	}
	if user := os.Getenv("TAKARO_USERNAME"); user != "" {
		config.Takaro.Username = user
	}
	if pass := os.Getenv("TAKARO_PASSWORD"); pass != "" {
		config.Takaro.Password = pass
	}
	if badgerPath := os.Getenv("TAKARO_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}
	if level := os.Getenv("TAKARO_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config.
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}
