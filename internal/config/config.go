// Package config loads and saves the YAML configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. CINEVERSE_TMDB_API_KEY
const EnvPrefix = "CINEVERSE"

// Config holds all application configuration
type Config struct {
	TMDB    TMDBConfig    `mapstructure:"tmdb"`
	Batcher BatcherConfig `mapstructure:"batcher"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Storage StorageConfig `mapstructure:"storage"`
	UI      UIConfig      `mapstructure:"ui"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// TMDBConfig holds metadata API configuration
type TMDBConfig struct {
	APIKey       string        `mapstructure:"api_key"`
	BaseURL      string        `mapstructure:"base_url"`
	ImageBaseURL string        `mapstructure:"image_base_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// BatcherConfig holds the rate limit applied to outbound calls
type BatcherConfig struct {
	BatchSize int           `mapstructure:"batch_size"`
	CoolDown  time.Duration `mapstructure:"cool_down"`
}

// CacheConfig selects the response cache. An empty RedisAddr keeps it in memory.
type CacheConfig struct {
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
}

// StorageConfig holds the watchlist database location.
// An empty DataDir keeps the watchlist in memory only.
type StorageConfig struct {
	DataDir string `mapstructure:"data_dir"`
}

// UIConfig holds UI configuration
type UIConfig struct {
	DefaultCategory string `mapstructure:"default_category"`
	TrendingWindow  string `mapstructure:"trending_window"` // "day" or "week"
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File       string `mapstructure:"file"`
	Level      string `mapstructure:"level"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		TMDB: TMDBConfig{
			APIKey:       "",
			BaseURL:      "https://api.themoviedb.org/3",
			ImageBaseURL: "https://image.tmdb.org/t/p",
			Timeout:      30 * time.Second,
		},
		Batcher: BatcherConfig{
			BatchSize: 35,
			CoolDown:  10 * time.Second,
		},
		Cache: CacheConfig{
			RedisDB: 0,
		},
		Storage: StorageConfig{
			DataDir: defaultDataPath(),
		},
		UI: UIConfig{
			DefaultCategory: "popular_movies",
			TrendingWindow:  "week",
		},
		Logging: LoggingConfig{
			File:       filepath.Join(defaultDataPath(), "cineverse.log"),
			Level:      "INFO",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// defaultDataPath returns the default data directory for the current OS
func defaultDataPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "cineverse")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "cineverse")
	}
}

// DefaultConfigPath returns the default config directory for the current OS
func DefaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "cineverse")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "cineverse")
	}
}

// newViper registers every key with its default so that environment
// overrides apply even when the file omits the key.
func newViper(cfg *Config) *viper.Viper {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setAll(cfg, v.SetDefault)
	return v
}

// setAll writes every field of cfg through set, using snake_case keys.
// Durations are written as strings such as "10s".
func setAll(cfg *Config, set func(key string, value any)) {
	set("tmdb.api_key", cfg.TMDB.APIKey)
	set("tmdb.base_url", cfg.TMDB.BaseURL)
	set("tmdb.image_base_url", cfg.TMDB.ImageBaseURL)
	set("tmdb.timeout", cfg.TMDB.Timeout.String())

	set("batcher.batch_size", cfg.Batcher.BatchSize)
	set("batcher.cool_down", cfg.Batcher.CoolDown.String())

	set("cache.redis_addr", cfg.Cache.RedisAddr)
	set("cache.redis_password", cfg.Cache.RedisPassword)
	set("cache.redis_db", cfg.Cache.RedisDB)

	set("storage.data_dir", cfg.Storage.DataDir)

	set("ui.default_category", cfg.UI.DefaultCategory)
	set("ui.trending_window", cfg.UI.TrendingWindow)

	set("logging.file", cfg.Logging.File)
	set("logging.level", cfg.Logging.Level)
	set("logging.max_size_mb", cfg.Logging.MaxSizeMB)
	set("logging.max_backups", cfg.Logging.MaxBackups)
	set("logging.max_age_days", cfg.Logging.MaxAgeDays)
}

// LoadConfig loads configuration from the default locations and environment
func LoadConfig() (*Config, error) {
	return LoadConfigFrom(DefaultConfigPath(), ".")
}

// LoadConfigFrom searches dirs in order for config.yaml. A missing file is
// not an error.
func LoadConfigFrom(dirs ...string) (*Config, error) {
	cfg := DefaultConfig()
	v := newViper(cfg)
	for _, dir := range dirs {
		v.AddConfigPath(dir)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	cfg.Storage.DataDir = expandHome(cfg.Storage.DataDir)
	cfg.Logging.File = expandHome(cfg.Logging.File)
	return cfg, nil
}

// SaveConfig writes cfg to the default config directory
func SaveConfig(cfg *Config) error {
	return SaveConfigTo(DefaultConfigPath(), cfg)
}

// SaveConfigTo writes cfg as dir/config.yaml
func SaveConfigTo(dir string, cfg *Config) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	setAll(cfg, v.Set)

	configFile := filepath.Join(dir, "config.yaml")
	if err := v.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	// The file carries the API key
	if err := os.Chmod(configFile, 0600); err != nil {
		return fmt.Errorf("failed to restrict config file: %w", err)
	}
	return nil
}

// IsConfigured returns true if an API key is set
func (c *Config) IsConfigured() bool {
	return strings.TrimSpace(c.TMDB.APIKey) != ""
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
