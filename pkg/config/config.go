/*
Package config manages the TOML config for presetserve.
*/
package config

import (
	"os"
	"path/filepath"

	"github.com/bastiangx/presetserve/internal/utils"
	"github.com/bastiangx/presetserve/pkg/preset"
	"github.com/charmbracelet/log"
)

// FileName is the config file name inside the config directory.
const FileName = "config.toml"

// Config holds the entire config structure
type Config struct {
	Search  SearchConfig  `toml:"search"`
	Server  ServerConfig  `toml:"server"`
	Catalog CatalogConfig `toml:"catalog"`
	CLI     CliConfig     `toml:"cli"`
}

// SearchConfig holds the ranking limits.
type SearchConfig struct {
	MaxResults     int `toml:"max_results"`
	MaxSuggestions int `toml:"max_suggestions"`
}

// ServerConfig has IPC server options.
type ServerConfig struct {
	MaxQuery  int `toml:"max_query"`
	Workers   int `toml:"workers"`
	MaxBatch  int `toml:"max_batch"`
	CacheSize int `toml:"cache_size"`
	// AnnounceReady writes a "ready" status message before the first request.
	AnnounceReady bool `toml:"announce_ready"`
}

// CatalogConfig lists where presets are loaded from.
type CatalogConfig struct {
	Paths           []string `toml:"paths"`
	DefaultGeometry string   `toml:"default_geometry"`
}

// CliConfig holds interactive CLI defaults.
type CliConfig struct {
	DefaultLimit    int    `toml:"default_limit"`
	DefaultGeometry string `toml:"default_geometry"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Search: SearchConfig{
			MaxResults:     preset.DefaultMaxSearchResults,
			MaxSuggestions: preset.DefaultMaxSuggestionResults,
		},
		Server: ServerConfig{
			MaxQuery:  60,
			Workers:   4,
			MaxBatch:  32,
			CacheSize: 256,
		},
		Catalog: CatalogConfig{
			Paths:           []string{"presets/"},
			DefaultGeometry: "point",
		},
		CLI: CliConfig{
			DefaultLimit:    20,
			DefaultGeometry: "point",
		},
	}
}

// CollectionOptions turns the search section into collection options.
func (c *Config) CollectionOptions() []preset.Option {
	return []preset.Option{
		preset.WithMaxSearchResults(c.Search.MaxResults),
		preset.WithMaxSuggestionResults(c.Search.MaxSuggestions),
	}
}

// Validate replaces out of range values with defaults, logging each fix.
func (c *Config) Validate() {
	def := DefaultConfig()
	fixInt := func(name string, v *int, fallback int, minimum int) {
		if *v < minimum {
			log.Warnf("Invalid %s=%d, using %d", name, *v, fallback)
			*v = fallback
		}
	}
	fixInt("search.max_results", &c.Search.MaxResults, def.Search.MaxResults, 1)
	fixInt("search.max_suggestions", &c.Search.MaxSuggestions, def.Search.MaxSuggestions, 0)
	fixInt("server.max_query", &c.Server.MaxQuery, def.Server.MaxQuery, 1)
	fixInt("server.workers", &c.Server.Workers, def.Server.Workers, 1)
	fixInt("server.max_batch", &c.Server.MaxBatch, def.Server.MaxBatch, 1)
	fixInt("server.cache_size", &c.Server.CacheSize, def.Server.CacheSize, 0)
	fixInt("cli.default_limit", &c.CLI.DefaultLimit, def.CLI.DefaultLimit, 1)

	if c.Catalog.DefaultGeometry == "" {
		c.Catalog.DefaultGeometry = def.Catalog.DefaultGeometry
	}
	if c.CLI.DefaultGeometry == "" {
		c.CLI.DefaultGeometry = c.Catalog.DefaultGeometry
	}
}

// GetConfigDir returns the config directory with fallback priority:
// 1. ~/.config/presetserve
// 2. ~/Library/Application Support/presetserve (macOS)
// 3. Current executable dir
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Errorf("Failed to get home directory: %v", err)
		return utils.GetExecutableDir()
	}
	primaryPath := filepath.Join(homeDir, ".config", "presetserve")
	if result := utils.CheckDirStatus(primaryPath); result.Writable {
		return primaryPath, nil
	}
	macOSPath := filepath.Join(homeDir, "Library", "Application Support", "presetserve")
	if result := utils.CheckDirStatus(macOSPath); result.Writable {
		return macOSPath, nil
	}
	execDir, err := utils.GetExecutableDir()
	if err != nil {
		log.Errorf("Failed to get executable directory: %v", err)
		return "", err
	}
	return execDir, nil
}

// GetDefaultConfigPath returns the default path for config.toml
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, FileName), nil
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from --config flag
// 2. Default path: [UserConfigDir]/presetserve/config.toml
// 3. Builtin defaults
//
// The returned path is empty when builtin defaults are used.
func LoadConfigWithPriority(customConfigPath string) (*Config, string, error) {
	if customConfigPath != "" {
		if _, statErr := os.Stat(customConfigPath); statErr == nil {
			config, err := LoadConfig(customConfigPath)
			if err == nil {
				log.Debugf("Loaded config from custom path: %s", customConfigPath)
				return config, customConfigPath, nil
			}
			log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customConfigPath, err)
		} else {
			log.Warnf("Custom config file not found at %s: %v. Trying default path...", customConfigPath, statErr)
		}
	}

	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		log.Warnf("Failed to determine default config path: %v. Using built-in defaults...", err)
		return DefaultConfig(), "", nil
	}

	config, err := InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Failed to load/create config at default path %s: %v. Using builtin defaults...", defaultPath, err)
		return DefaultConfig(), "", nil
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return config, defaultPath, nil
}

// InitConfig loads config from file or creates default if missing
func InitConfig(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)

	if err := utils.EnsureDir(configDir); err != nil {
		log.Warnf("Failed to create config directory %s: %v. Using built-in defaults...", configDir, err)
		return DefaultConfig(), nil
	}

	if !utils.FileExists(configPath) {
		config := DefaultConfig()
		if err := SaveConfig(config, configPath); err != nil {
			log.Warnf("Failed to create default config file at %s: %v. Using built-in defaults...", configPath, err)
			return DefaultConfig(), nil
		}
		log.Debugf("Created default config file at: %s", configPath)
		return config, nil
	}

	return LoadConfig(configPath)
}

// LoadConfig loads from a TOML file. A file that fails to decode is salvaged
// section by section; values missing from the file keep their defaults.
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if err := utils.LoadTOMLFile(configPath, config); err != nil {
		return tryPartialParse(configPath)
	}
	config.Validate()
	return config, nil
}

// tryPartialParse salvages whatever sections of a broken file still parse.
func tryPartialParse(configPath string) (*Config, error) {
	config := DefaultConfig()

	raw, err := utils.ParseTOMLWithRecovery(configPath)
	if err != nil {
		log.Warnf("Could not parse any valid configuration from %s: %v. Using all defaults.", configPath, err)
		return config, nil
	}

	if section, ok := utils.ExtractSection(raw, "search"); ok {
		extractSearchConfig(section, &config.Search)
	}
	if section, ok := utils.ExtractSection(raw, "server"); ok {
		extractServerConfig(section, &config.Server)
	}
	if section, ok := utils.ExtractSection(raw, "catalog"); ok {
		extractCatalogConfig(section, &config.Catalog)
	}
	if section, ok := utils.ExtractSection(raw, "cli"); ok {
		extractCliConfig(section, &config.CLI)
	}
	config.Validate()
	return config, nil
}

func extractSearchConfig(data map[string]any, search *SearchConfig) {
	if val, ok := utils.ExtractInt64(data, "max_results"); ok {
		search.MaxResults = val
	}
	if val, ok := utils.ExtractInt64(data, "max_suggestions"); ok {
		search.MaxSuggestions = val
	}
}

func extractServerConfig(data map[string]any, server *ServerConfig) {
	if val, ok := utils.ExtractInt64(data, "max_query"); ok {
		server.MaxQuery = val
	}
	if val, ok := utils.ExtractInt64(data, "workers"); ok {
		server.Workers = val
	}
	if val, ok := utils.ExtractInt64(data, "max_batch"); ok {
		server.MaxBatch = val
	}
	if val, ok := utils.ExtractInt64(data, "cache_size"); ok {
		server.CacheSize = val
	}
	if val, ok := utils.ExtractBool(data, "announce_ready"); ok {
		server.AnnounceReady = val
	}
}

func extractCatalogConfig(data map[string]any, catalog *CatalogConfig) {
	if val, ok := utils.ExtractStringSlice(data, "paths"); ok {
		catalog.Paths = val
	}
	if val, ok := utils.ExtractString(data, "default_geometry"); ok {
		catalog.DefaultGeometry = val
	}
}

func extractCliConfig(data map[string]any, cli *CliConfig) {
	if val, ok := utils.ExtractInt64(data, "default_limit"); ok {
		cli.DefaultLimit = val
	}
	if val, ok := utils.ExtractString(data, "default_geometry"); ok {
		cli.DefaultGeometry = val
	}
}

// RebuildConfigFile force creates a new config.toml at the default path.
func RebuildConfigFile() error {
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		return err
	}
	if err := utils.EnsureDir(filepath.Dir(defaultPath)); err != nil {
		return err
	}
	return SaveConfig(DefaultConfig(), defaultPath)
}

// GetActiveConfigPath returns the absolute path of loaded config file
func GetActiveConfigPath(configPath string) string {
	if configPath == "" {
		return "builtin defaults"
	}
	return utils.GetAbsolutePath(configPath)
}

// SaveConfig saves into a TOML file
func SaveConfig(config *Config, configPath string) error {
	return utils.SaveTOMLFile(config, configPath)
}
