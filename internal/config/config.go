// Package config loads application configuration from file and environment
// and initializes the global logger.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Table  TableConfig  `yaml:"table" mapstructure:"table"`
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Check  CheckConfig  `yaml:"check" mapstructure:"check"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// TableConfig configures standard-name table retrieval and caching.
type TableConfig struct {
	Version  string `yaml:"version" mapstructure:"version"`
	CacheDir string `yaml:"cache_dir" mapstructure:"cache_dir"`
	BaseURL  string `yaml:"base_url" mapstructure:"base_url"`
}

// StoreConfig configures the run-history database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// CheckConfig configures check execution.
type CheckConfig struct {
	MaxConcurrentDatasets int `yaml:"max_concurrent_datasets" mapstructure:"max_concurrent_datasets"`
}

// ServerConfig configures the HTTP check server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CFCHECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("table.version", "78")
	v.SetDefault("table.cache_dir", defaultCacheDir())
	v.SetDefault("table.base_url", "https://cfconventions.org/Data/cf-standard-names")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", defaultDatabasePath())
	v.SetDefault("check.max_concurrent_datasets", 4)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

func defaultCacheDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "cfcheck")
	}
	return filepath.Join(base, "cfcheck")
}

func defaultDatabasePath() string {
	return filepath.Join(defaultCacheDir(), "cfcheck.db")
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
