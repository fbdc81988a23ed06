// Package config loads kbsync settings from the config file, the
// environment, and built-in defaults, and owns the session resources
// (open store, log sink) derived from them.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config is the resolved runtime configuration.
type Config struct {
	// Root is the knowledge-base directory containing one
	// subdirectory per organization.
	Root string `mapstructure:"root"`
	// DBPath is the SQLite store location.
	DBPath string `mapstructure:"db_path"`
	// LogFile receives structured sync logs; empty means stderr only.
	LogFile string `mapstructure:"log_file"`
	// DefaultOrg restricts sync to one organization when set.
	DefaultOrg string `mapstructure:"default_org"`
}

// Load resolves configuration in precedence order: explicit file path,
// then ~/.config/kbsync/config.yaml, then KBSYNC_* environment
// variables, then defaults. A missing config file is not an error;
// a malformed one is.
func Load(file string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	home, _ := os.UserHomeDir()
	v.SetDefault("root", filepath.Join(home, "kb"))
	v.SetDefault("db_path", filepath.Join(home, ".local", "share", "kbsync", "kbsync.db"))
	v.SetDefault("log_file", "")
	v.SetDefault("default_org", "")

	v.SetEnvPrefix("KBSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(filepath.Join(home, ".config", "kbsync"))
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Root == "" {
		return nil, fmt.Errorf("knowledge-base root is not configured")
	}
	return &cfg, nil
}
