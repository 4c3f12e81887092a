// Package config loads optional defaults for the aiexport CLI from a YAML
// file. Command-line flags always take precedence over file values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is looked up in the user's home directory when no explicit
// config path is given.
const DefaultFileName = ".aiexport.yaml"

// Config holds the tunable defaults of the tool.
type Config struct {
	OutputDir   string        // default export directory
	Debounce    time.Duration // watch debounce window
	IgnoreNames []string      // extra base names excluded from scans
	TokenModel  string        // tokenizer model for --tokens
}

// fileConfig is the on-disk YAML shape; the debounce is a duration string
// like "500ms".
type fileConfig struct {
	OutputDir   string   `yaml:"output_dir"`
	Debounce    string   `yaml:"debounce"`
	IgnoreNames []string `yaml:"ignore_names"`
	TokenModel  string   `yaml:"token_model"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Debounce:   500 * time.Millisecond,
		TokenModel: "gpt-4o",
	}
}

// Load reads the config file at path, or the default location when path is
// empty. A missing file is not an error; built-in defaults are returned.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return cfg, nil
		}
		path = filepath.Join(home, DefaultFileName)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if fc.OutputDir != "" {
		cfg.OutputDir = fc.OutputDir
	}
	if fc.TokenModel != "" {
		cfg.TokenModel = fc.TokenModel
	}
	cfg.IgnoreNames = fc.IgnoreNames
	if fc.Debounce != "" {
		d, err := time.ParseDuration(fc.Debounce)
		if err != nil {
			return cfg, fmt.Errorf("invalid debounce in %s: %w", path, err)
		}
		if d > 0 {
			cfg.Debounce = d
		}
	}
	return cfg, nil
}
