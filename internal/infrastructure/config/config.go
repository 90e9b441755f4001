// Package config loads runtime settings from .spacecheck/config.yaml with
// environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/spacecheck/internal/infrastructure/storage"
)

// Config holds all runtime settings. Every field has a working default so
// a missing config file is not an error.
type Config struct {
	// Workspace connectivity.
	Host         string `yaml:"host"`
	Token        string `yaml:"token"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`

	// Judgment backend.
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`

	// Engine tuning.
	Concurrency     int           `yaml:"concurrency"`
	JudgmentTimeout time.Duration `yaml:"judgment_timeout"`
	JudgmentRetries int           `yaml:"judgment_retries"`

	// Checklist document.
	ChecklistPath string `yaml:"checklist_path"`

	// HTTP server.
	ListenAddr string `yaml:"listen_addr"`
}

// Default returns the stock configuration.
func Default() *Config {
	return &Config{
		Provider:        "databricks",
		Model:           "databricks-claude-sonnet-4",
		Concurrency:     3,
		JudgmentTimeout: 120 * time.Second,
		JudgmentRetries: 2,
		ChecklistPath:   "docs/checklist-by-schema.md",
		ListenAddr:      ":8000",
	}
}

// Load reads .spacecheck/config.yaml under root, then applies environment
// overrides. A missing file yields the defaults.
func Load(root string) (*Config, error) {
	cfg := Default()

	repo := storage.NewFilesystemRepository(root)
	path, err := repo.ResolvePath(storage.ConfigFile)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg.applyEnv()
	return cfg, nil
}

// Save writes the configuration back to .spacecheck/config.yaml.
func Save(root string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	repo := storage.NewFilesystemRepository(root)
	if err := repo.Initialize(); err != nil {
		return err
	}
	path, err := repo.ResolvePath(storage.ConfigFile)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0600)
}

func (c *Config) applyEnv() {
	if v := os.Getenv("DATABRICKS_HOST"); v != "" {
		c.Host = v
	}
	if v := os.Getenv("DATABRICKS_TOKEN"); v != "" {
		c.Token = v
	}
	if v := os.Getenv("DATABRICKS_CLIENT_ID"); v != "" {
		c.ClientID = v
	}
	if v := os.Getenv("DATABRICKS_CLIENT_SECRET"); v != "" {
		c.ClientSecret = v
	}
	if v := os.Getenv("SPACECHECK_PROVIDER"); v != "" {
		c.Provider = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		c.Model = v
	}
	if v := os.Getenv("SPACECHECK_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Concurrency = n
		}
	}
	if v := os.Getenv("SPACECHECK_JUDGMENT_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			c.JudgmentTimeout = d
		}
	}
	if v := os.Getenv("SPACECHECK_CHECKLIST"); v != "" {
		c.ChecklistPath = v
	}
	if v := os.Getenv("SPACECHECK_LISTEN_ADDR"); v != "" {
		c.ListenAddr = v
	}
}
