// Package config loads the vault's YAML configuration with environment
// overrides for the oracle connection.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Oracle provider names accepted in configuration.
const (
	ProviderLocal  = "local"
	ProviderGemini = "gemini"
)

// OracleConfig selects and connects the extraction oracle.
type OracleConfig struct {
	// Provider is "local" for an OpenAI-compatible endpoint or "gemini".
	Provider string `yaml:"provider"`
	// BaseURL is the local endpoint, e.g. "http://localhost:11434/v1".
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
}

// QueueConfig tunes the batch worker's job queue.
type QueueConfig struct {
	Buffer     int `yaml:"buffer"`
	Workers    int `yaml:"workers"`
	MaxRetries int `yaml:"max_retries"`
}

// Config is the full application configuration.
type Config struct {
	// VaultPath is the SQLite database file.
	VaultPath string `yaml:"vault_path"`

	Oracle OracleConfig `yaml:"oracle"`
	Queue  QueueConfig  `yaml:"queue"`

	// ChunkLines is the number of content lines per extraction chunk.
	ChunkLines int `yaml:"chunk_lines"`
	// ExtractWorkers bounds concurrent oracle calls per file.
	ExtractWorkers int `yaml:"extract_workers"`
	// DateFormats adds accepted date layouts ahead of the defaults.
	DateFormats []string `yaml:"date_formats"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		VaultPath: "vault.db",
		Oracle: OracleConfig{
			Provider: ProviderLocal,
			BaseURL:  "http://localhost:11434/v1",
			Model:    "llama3.1",
		},
		Queue: QueueConfig{
			Buffer:     64,
			Workers:    2,
			MaxRetries: 2,
		},
		ExtractWorkers: 4,
	}
}

// Load reads the YAML file at path over the defaults and then applies
// environment overrides. A missing file is not an error; the defaults stand.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("VAULT_DB_PATH"); v != "" {
		c.VaultPath = v
	}
	if v := os.Getenv("VAULT_ORACLE_PROVIDER"); v != "" {
		c.Oracle.Provider = v
	}
	if v := os.Getenv("VAULT_ORACLE_BASE_URL"); v != "" {
		c.Oracle.BaseURL = v
	}
	if v := os.Getenv("VAULT_ORACLE_API_KEY"); v != "" {
		c.Oracle.APIKey = v
	}
	if v := os.Getenv("VAULT_ORACLE_MODEL"); v != "" {
		c.Oracle.Model = v
	}
	if v := os.Getenv("VAULT_EXTRACT_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.ExtractWorkers = n
		}
	}
}

func (c *Config) validate() error {
	switch c.Oracle.Provider {
	case ProviderLocal, ProviderGemini:
	default:
		return fmt.Errorf("config: unknown oracle provider %q", c.Oracle.Provider)
	}
	if c.VaultPath == "" {
		return fmt.Errorf("config: vault_path is required")
	}
	return nil
}
