// Package config provides configuration loading and management for hyperstack.
// It handles loading configuration from YAML or TOML files and provides default values.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"hyperstack/internal/logging"
)

// Config represents the application configuration
type Config struct {
	// Processing parameters
	Processing struct {
		// NumCores specifies how many goroutines copy planes in parallel
		NumCores int `yaml:"numCores" toml:"num_cores"`

		// Bounds is the default policy for out-of-range indices:
		// wrap, clamp, strict or ignore
		Bounds string `yaml:"bounds" toml:"bounds"`

		// Dedupe removes repeated indices from resolved selections
		Dedupe bool `yaml:"dedupe" toml:"dedupe"`

		// Sort orders resolved selections ascending
		Sort bool `yaml:"sort" toml:"sort"`

		// SkipEmpty drops work whose selection is empty instead of failing
		SkipEmpty bool `yaml:"skipEmpty" toml:"skip_empty"`
	} `yaml:"processing" toml:"processing"`

	// Montage parameters
	Montage struct {
		// Border is the gap in pixels between tiles
		Border int `yaml:"border" toml:"border"`

		// Scale multiplies the tile size (0 or 1 keeps it)
		Scale float64 `yaml:"scale" toml:"scale"`

		// DrawLabels writes each tile's label into its cell
		DrawLabels bool `yaml:"drawLabels" toml:"draw_labels"`

		// LabelPosition is top or bottom
		LabelPosition string `yaml:"labelPosition" toml:"label_position"`

		// Background is the canvas colour as #rrggbb
		Background string `yaml:"background" toml:"background"`

		// LabelColor is the label colour as #rrggbb
		LabelColor string `yaml:"labelColor" toml:"label_color"`
	} `yaml:"montage" toml:"montage"`

	// Output parameters
	Output struct {
		// Format is the image format for saved planes: png, jpeg or tiff
		Format string `yaml:"format" toml:"format"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose" toml:"verbose"`
	} `yaml:"output" toml:"output"`

	// Log destination
	Log logging.Config `yaml:"log" toml:"log"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Processing.NumCores = runtime.NumCPU()
	cfg.Processing.Bounds = "wrap"

	cfg.Montage.Border = 0
	cfg.Montage.Scale = 1.0
	cfg.Montage.LabelPosition = "top"
	cfg.Montage.Background = "#000000"
	cfg.Montage.LabelColor = "#ffffff"

	cfg.Output.Format = "png"
	cfg.Output.Verbose = false

	cfg.Log.MaxSize = 100
	cfg.Log.MaxAge = 28

	return cfg
}

// isTOML reports whether path names a TOML file; anything else is YAML.
func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// LoadConfig loads configuration from a YAML or TOML file, chosen by extension.
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := Decode(configPath, data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// Decode unmarshals data into v as TOML or YAML depending on the extension
// of path.
func Decode(path string, data []byte, v interface{}) error {
	if isTOML(path) {
		_, err := toml.Decode(string(data), v)
		return err
	}
	return yaml.Unmarshal(data, v)
}

// SaveConfig saves the configuration to a YAML or TOML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	var data []byte
	if isTOML(configPath) {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return fmt.Errorf("error marshaling config: %w", err)
		}
		data = buf.Bytes()
	} else {
		var err error
		if data, err = yaml.Marshal(cfg); err != nil {
			return fmt.Errorf("error marshaling config: %w", err)
		}
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
