/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// APIKeyEnv overrides Metadata.APIKey when set
const APIKeyEnv = "REELSHELF_OMDB_API_KEY"

// Config represents the reelshelf configuration
type Config struct {
	Storage  Storage  `yaml:"storage"`
	Metadata Metadata `yaml:"metadata"`
	Server   Server   `yaml:"server"`
	Logging  Logging  `yaml:"logging"`
}

// Storage selects the catalog backend
type Storage struct {
	Backend       string `yaml:"backend"`
	Path          string `yaml:"path"`
	QuarantineDir string `yaml:"quarantine_dir"`
}

// Metadata configures the online movie lookup used by add
type Metadata struct {
	Provider    string        `yaml:"provider"`
	APIKey      string        `yaml:"api_key"`
	BaseURL     string        `yaml:"base_url"`
	IMDbBaseURL string        `yaml:"imdb_base_url"`
	Timeout     time.Duration `yaml:"timeout"`
	Retries     int           `yaml:"retries"`
}

// Server contains HTTP API settings
type Server struct {
	Bind   string `yaml:"bind"`
	Port   int    `yaml:"port"`
	APIKey string `yaml:"api_key"` // required on write routes
}

// Logging contains logging configuration
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Storage: Storage{
			Backend: "json",
			Path:    "./data/movies.json",
		},
		Metadata: Metadata{
			Provider:    "omdb",
			BaseURL:     "https://www.omdbapi.com/",
			IMDbBaseURL: "https://www.imdb.com/",
			Timeout:     10 * time.Second,
			Retries:     2,
		},
		Server: Server{
			Bind: "127.0.0.1",
			Port: 8080,
		},
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate rejects values the rest of the program cannot act on
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "", "json", "csv":
	default:
		return fmt.Errorf("unknown storage backend %q (want json or csv)", c.Storage.Backend)
	}
	if c.Storage.Path == "" {
		return fmt.Errorf("storage path cannot be empty")
	}
	switch c.Metadata.Provider {
	case "omdb", "imdb":
	default:
		return fmt.Errorf("unknown metadata provider %q (want omdb or imdb)", c.Metadata.Provider)
	}
	if c.Metadata.Timeout < 0 {
		return fmt.Errorf("metadata timeout cannot be negative")
	}
	if c.Metadata.Retries < 0 {
		return fmt.Errorf("metadata retries cannot be negative")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if _, err := logrus.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log format %q (want text or json)", c.Logging.Format)
	}
	return nil
}

// ApplyEnv overlays environment variables on the configuration
func (c *Config) ApplyEnv() {
	if key := os.Getenv(APIKeyEnv); key != "" {
		c.Metadata.APIKey = key
	}
}

// LoadConfig loads configuration from the specified path. Fields missing from the
// file keep their defaults.
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	if !filepath.IsAbs(configPath) {
		absPath, err := filepath.Abs(configPath)
		if err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		configPath = absPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveConfig saves the configuration to the specified path with secure permissions
func SaveConfig(config *Config, configPath string) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write with secure permissions (0600), the file may hold API keys
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GenerateSecureKey generates a cryptographically secure random key
func GenerateSecureKey(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate secure key: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// BootstrapConfig writes a default configuration with a generated server API key
func BootstrapConfig(configPath string, catalogPath string) (*Config, error) {
	config := DefaultConfig()
	if catalogPath != "" {
		config.Storage.Path = catalogPath
		if strings.EqualFold(filepath.Ext(catalogPath), ".csv") {
			config.Storage.Backend = "csv"
		}
	}

	apiKey, err := GenerateSecureKey(32) // 256 bits
	if err != nil {
		return nil, fmt.Errorf("failed to generate server API key: %w", err)
	}
	config.Server.APIKey = apiKey

	if err := SaveConfig(config, configPath); err != nil {
		return nil, fmt.Errorf("failed to save bootstrap config: %w", err)
	}

	return config, nil
}

// GetDefaultConfigPath returns the default configuration path for the current platform
func GetDefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./reelshelf.yaml"
	}

	// For Linux/macOS, use ~/.config/reelshelf/config.yaml
	configDir := filepath.Join(homeDir, ".config", "reelshelf")
	return filepath.Join(configDir, "config.yaml")
}

// ConfigExists checks if a configuration file exists
func ConfigExists(configPath string) bool {
	_, err := os.Stat(configPath)
	return !os.IsNotExist(err)
}
