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

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/ssargent/pngme/pkg/chunktype"
	yamlv3 "gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for environment overrides. Sections are separated
// by a double underscore: PNGME_SERVER__API_KEY sets server.api_key.
const EnvPrefix = "PNGME_"

// Config represents the pngme configuration
type Config struct {
	DataDir string  `yaml:"data_dir" koanf:"data_dir"`
	Server  Server  `yaml:"server" koanf:"server"`
	Chunk   Chunk   `yaml:"chunk" koanf:"chunk"`
	Logging Logging `yaml:"logging" koanf:"logging"`
}

// Server contains HTTP API configuration
type Server struct {
	Bind        string `yaml:"bind" koanf:"bind"`
	Port        int    `yaml:"port" koanf:"port"`
	APIKey      string `yaml:"api_key" koanf:"api_key"`
	MaxBodySize uint32 `yaml:"max_body_size" koanf:"max_body_size"` // cap on uploaded PNG files
}

// Chunk contains chunk handling defaults
type Chunk struct {
	DefaultType string `yaml:"default_type" koanf:"default_type"`
	MaxSize     uint32 `yaml:"max_size" koanf:"max_size"`
}

// Logging contains logging configuration
type Logging struct {
	Level  string `yaml:"level" koanf:"level"`
	Format string `yaml:"format" koanf:"format"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		DataDir: "./data",
		Server: Server{
			Bind:        "127.0.0.1",
			Port:        8080,
			MaxBodySize: 4 * 16 * 1024 * 1024,
		},
		Chunk: Chunk{
			DefaultType: "ruSt",
			MaxSize:     16 * 1024 * 1024,
		},
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig loads defaults, then the YAML file at configPath (if non-empty),
// then PNGME_ environment variables.
func LoadConfig(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath != "" {
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
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	config := DefaultConfig()
	if err := k.Unmarshal("", config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return config, nil
}

// envKey maps PNGME_SERVER__API_KEY to server.api_key.
func envKey(s string) string {
	s = strings.TrimPrefix(s, EnvPrefix)
	s = strings.ToLower(s)
	return strings.ReplaceAll(s, "__", ".")
}

// Validate checks values that would otherwise fail later at use.
func (c *Config) Validate() error {
	if _, err := chunktype.Parse(c.Chunk.DefaultType); err != nil {
		return fmt.Errorf("invalid chunk.default_type %q: %w", c.Chunk.DefaultType, err)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	if c.Server.MaxBodySize == 0 || c.Server.MaxBodySize < c.Chunk.MaxSize {
		return fmt.Errorf("server.max_body_size %d must be at least chunk.max_size %d", c.Server.MaxBodySize, c.Chunk.MaxSize)
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("invalid logging.format %q", c.Logging.Format)
	}
	return nil
}

// SaveConfig saves the configuration to the specified path with secure permissions
func SaveConfig(config *Config, configPath string) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yamlv3.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write with secure permissions (0600)
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

// BootstrapConfig creates and saves a new configuration with a generated API key
func BootstrapConfig(configPath string, dataDir string) (*Config, error) {
	config := DefaultConfig()
	if dataDir != "" {
		config.DataDir = dataDir
	}

	apiKey, err := GenerateSecureKey(32) // 256 bits
	if err != nil {
		return nil, fmt.Errorf("failed to generate API key: %w", err)
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
		return "./pngme.yaml"
	}

	// For Linux/macOS, use ~/.config/pngme/config.yaml
	return filepath.Join(homeDir, ".config", "pngme", "config.yaml")
}

// ConfigExists checks if a configuration file exists
func ConfigExists(configPath string) bool {
	_, err := os.Stat(configPath)
	return !os.IsNotExist(err)
}
