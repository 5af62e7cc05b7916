package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FileName is the canonical config file name in a book directory.
const FileName = "pocketbooks.yaml"

// Config represents the top-level pocketbooks.yaml configuration.
type Config struct {
	Book    BookConfig    `yaml:"book"`
	Display DisplayConfig `yaml:"display"`
}

// BookConfig identifies the ledger book and its backing store.
type BookConfig struct {
	Name            string `yaml:"name"`
	DatabasePath    string `yaml:"database_path"`
	DefaultCurrency string `yaml:"default_currency"` // preference read by the commodity registry
}

// DisplayConfig controls CLI presentation.
type DisplayConfig struct {
	ShowHidden bool `yaml:"show_hidden"`
	TreeIndent int  `yaml:"tree_indent"`
}

// Load reads a pocketbooks.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new book.
func Default(name string) *Config {
	return &Config{
		Book: BookConfig{
			Name:            name,
			DatabasePath:    "pocketbooks.db",
			DefaultCurrency: "USD",
		},
		Display: DisplayConfig{
			ShowHidden: false,
			TreeIndent: 2,
		},
	}
}
