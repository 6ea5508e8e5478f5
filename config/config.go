package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
)

// LogConfig controls logging
type LogConfig struct {
	Level     string `json:"level,omitempty"`     // debug, info, warn, error
	DebugFile bool   `json:"debugFile,omitempty"` // also write ~/.config/midiedit/debug.log
}

// RescaleConfig holds defaults for velocity rescaling
type RescaleConfig struct {
	Scale  float64 `json:"scale"`
	Center int8    `json:"center"`
	Offset int8    `json:"offset"`
}

// UIConfig stores terminal UI preferences
type UIConfig struct {
	Palette   string `json:"palette,omitempty"` // GIMP .gpl file, built-in palette if empty
	RollWidth int    `json:"rollWidth,omitempty"`
	LastFile  string `json:"lastFile,omitempty"`
}

// Config is the main configuration structure
type Config struct {
	Log     LogConfig     `json:"log"`
	Rescale RescaleConfig `json:"rescale"`
	Workers int           `json:"workers,omitempty"`
	UI      UIConfig      `json:"ui,omitempty"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level: "warn",
		},
		Rescale: RescaleConfig{
			Scale:  1.0,
			Center: 64,
			Offset: 64,
		},
		Workers: 1,
		UI: UIConfig{
			RollWidth: 64,
		},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "midiedit"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from disk, or returns defaults if not found.
// Fields missing from the file keep their defaults.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}

	// Create directory if it doesn't exist
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	path, err := ConfigPath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// LogLevel parses Log.Level, falling back to warn
func (c *Config) LogLevel() log.Level {
	lvl, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return log.WarnLevel
	}
	return lvl
}

// RememberFile records the last file opened in the UI
func (c *Config) RememberFile(path string) {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	c.UI.LastFile = path
}
