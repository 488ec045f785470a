package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

type Config struct {
	DataDir  string         `mapstructure:"data_dir"`
	Twitter  TwitterConfig  `mapstructure:"twitter"`
	Raindrop RaindropConfig `mapstructure:"raindrop"`
	Import   ImportConfig   `mapstructure:"import"`
	Log      LogConfig      `mapstructure:"log"`
}

type TwitterConfig struct {
	Token string `mapstructure:"token"`
}

type RaindropConfig struct {
	Token string `mapstructure:"token"`
}

type ImportConfig struct {
	Collection   string `mapstructure:"collection"`     // default destination collection title
	PageSize     int    `mapstructure:"page_size"`      // bookmarks per source page
	MaxItems     int    `mapstructure:"max_items"`      // per-invocation cap, 0 = unlimited
	DupScanPages int    `mapstructure:"dup_scan_pages"` // safety bound on duplicate scan
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"` // relative to data dir unless absolute
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

func Load() (*Config, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	defaultDataDir := filepath.Join(homeDir, ".rainhub")

	viper.SetDefault("data_dir", defaultDataDir)
	viper.SetDefault("import.collection", "X Bookmarks")
	viper.SetDefault("import.page_size", 100)
	viper.SetDefault("import.max_items", 0)
	viper.SetDefault("import.dup_scan_pages", 100)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.file", "logs/rainhub.log")
	viper.SetDefault("log.max_size_mb", 10)
	viper.SetDefault("log.max_backups", 3)

	// Environment variable overrides
	viper.SetEnvPrefix("RAINHUB")
	viper.AutomaticEnv()
	viper.BindEnv("data_dir", "RAINHUB_DATA_DIR")
	viper.BindEnv("twitter.token", "RAINHUB_TWITTER_TOKEN")
	viper.BindEnv("raindrop.token", "RAINHUB_RAINDROP_TOKEN")
	viper.BindEnv("import.collection", "RAINHUB_IMPORT_COLLECTION")

	// Config file
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(defaultDataDir)

	// Read config file if exists (ignore error if not found)
	_ = viper.ReadInConfig()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Ensure data directory exists
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ImportsDir is where per-run state files live.
func (c *Config) ImportsDir() string {
	return filepath.Join(c.DataDir, "imports")
}

// LogPath resolves the log file location against the data dir.
func (c *Config) LogPath() string {
	if c.Log.File == "" || filepath.IsAbs(c.Log.File) {
		return c.Log.File
	}
	return filepath.Join(c.DataDir, c.Log.File)
}
