// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents the CLI configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	// Input
	DocsDir      string   `json:"docs_dir,omitempty"`     // Directory of document files to discover from
	Docs         []string `json:"docs,omitempty"`         // Explicit document file paths
	DocxPaths    []string `json:"docx_paths,omitempty"`   // Original .docx files for location fallback
	Instructions string   `json:"instructions,omitempty"` // Extraction guidance passed to the model

	// Behavior
	NoConsolidate  bool `json:"no_consolidate,omitempty"`  // Skip the model-backed consolidation pass
	Concurrency    int  `json:"concurrency,omitempty"`     // Parallel extraction calls (0 = sequential)
	FuzzyThreshold int  `json:"fuzzy_threshold,omitempty"` // Reference similarity cutoff (0 = default)
	ValidateShape  bool `json:"validate_shape,omitempty"`  // JSON Schema validation on model responses
	Verbose        bool `json:"verbose,omitempty"`         // Print detailed debug information

	// Model overrides the extraction model name (empty = provider default).
	Model string `json:"model,omitempty"`

	// Services
	APIKey      string `json:"api_key,omitempty"`      // Gemini API key
	RedisAddr   string `json:"redis_addr,omitempty"`   // Redis address for the result cache
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL

	// Output
	Output string `json:"output,omitempty"` // Path to write the schema JSON to
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check for required fields since those are handled
// by CLI flag validation after merging.
func (c *Config) Validate() error {
	if c.DocsDir != "" && len(c.Docs) > 0 {
		return fmt.Errorf("config error: 'docs_dir' and 'docs' are mutually exclusive")
	}

	if c.Concurrency < 0 {
		return fmt.Errorf("config error: 'concurrency' must be non-negative")
	}
	if c.FuzzyThreshold < 0 || c.FuzzyThreshold > 100 {
		return fmt.Errorf("config error: 'fuzzy_threshold' must be between 0 and 100")
	}

	if c.DocsDir != "" {
		if _, err := os.Stat(c.DocsDir); os.IsNotExist(err) {
			return fmt.Errorf("config error: docs directory not found: %s", c.DocsDir)
		}
	}
	for _, doc := range c.Docs {
		if _, err := os.Stat(doc); os.IsNotExist(err) {
			return fmt.Errorf("config error: document file not found: %s", doc)
		}
	}

	return nil
}
