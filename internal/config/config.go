package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Filter modes understood by match.ByMode
const (
	ModeSubstring = "substring"
	ModeFuzzy     = "fuzzy"
	ModeQuery     = "query"
)

// Config holds the layout of the tree and application settings
type Config struct {
	Filter   FilterConfig      `toml:"filter" yaml:"filter"`
	Settings map[string]string `toml:"settings" yaml:"settings"`
	Groups   []GroupConfig     `toml:"group" yaml:"groups"`
	Folders  []FolderConfig    `toml:"folder" yaml:"folders"`

	// Session settings (not persisted to TOML, overrides persisted settings)
	sessionSettings map[string]string
}

// FilterConfig selects the visibility predicate and the filter to start with
type FilterConfig struct {
	Mode    string `toml:"mode" yaml:"mode"`
	Initial string `toml:"initial,omitempty" yaml:"initial,omitempty"`
}

// Load loads the config file from the standard location
func Load() (*Config, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return defaultConfig(), nil // Return default if can't find config path
	}

	return LoadFromFile(configPath)
}

// LoadFromFile loads config from a specific file. Files ending in .yaml or
// .yml are read as YAML, everything else as TOML.
func LoadFromFile(filePath string) (*Config, error) {
	// If file doesn't exist, return default config
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return defaultConfig(), nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return Parse(data)
	}
}

// Parse decodes a TOML document and applies defaults
func Parse(data []byte) (*Config, error) {
	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return finish(&config)
}

// ParseYAML decodes a YAML document and applies defaults
func ParseYAML(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return finish(&config)
}

func finish(config *Config) (*Config, error) {
	switch config.Filter.Mode {
	case "":
		config.Filter.Mode = ModeSubstring
	case ModeSubstring, ModeFuzzy, ModeQuery:
	default:
		return nil, fmt.Errorf("unknown filter mode %q", config.Filter.Mode)
	}

	if config.Settings == nil {
		config.Settings = make(map[string]string)
	}
	config.sessionSettings = make(map[string]string)

	return config, nil
}

// getConfigPath returns the path to the config file
func getConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}

// defaultConfig returns the default configuration
func defaultConfig() *Config {
	return &Config{
		Filter:          FilterConfig{Mode: ModeSubstring},
		Settings:        make(map[string]string),
		sessionSettings: make(map[string]string),
	}
}

// GetConfigDir returns the config directory
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "foldertree"), nil
}

// EnsureConfigDir creates the config directory if it doesn't exist
func EnsureConfigDir() error {
	configDir, err := GetConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(configDir, 0o755)
}

// FilterMode returns the filter mode, preferring a session override
func (c *Config) FilterMode() string {
	if mode := c.Get("filter.mode"); mode != "" {
		return mode
	}
	return c.Filter.Mode
}

// Set sets a session configuration value
func (c *Config) Set(key, value string) {
	if c.sessionSettings == nil {
		c.sessionSettings = make(map[string]string)
	}
	c.sessionSettings[key] = value
}

// Get retrieves a configuration value, checking session settings first.
// Returns empty string if not found in either source.
func (c *Config) Get(key string) string {
	if val, ok := c.sessionSettings[key]; ok {
		return val
	}
	return c.Settings[key]
}

// GetAll returns all configuration values, session settings taking
// precedence over persisted ones with the same key
func (c *Config) GetAll() map[string]string {
	result := make(map[string]string, len(c.Settings)+len(c.sessionSettings))
	for k, v := range c.Settings {
		result[k] = v
	}
	for k, v := range c.sessionSettings {
		result[k] = v
	}
	return result
}

// Save persists the configuration to the standard location.
// Session settings are not written.
func (c *Config) Save() error {
	configPath, err := getConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return c.SaveTo(configPath)
}

// SaveTo writes the configuration to filePath
func (c *Config) SaveTo(filePath string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(filePath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
