// Package config loads runtime settings from the environment with sensible
// defaults for a local world.
package config

import (
	"fmt"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Addr          string `env:"EMBERVALE_ADDR" envDefault:":4000"`
	DataRoot      string `env:"EMBERVALE_DATA" envDefault:"data"`
	AccountsPath  string `env:"EMBERVALE_ACCOUNTS"`
	TemplatesPath string `env:"EMBERVALE_TEMPLATES"`
	AdminAccount  string `env:"EMBERVALE_ADMIN" envDefault:"admin"`
	BackupCron    string `env:"EMBERVALE_BACKUP_CRON" envDefault:"0 * * * *"`
	LogLevel      string `env:"EMBERVALE_LOG_LEVEL" envDefault:"info"`
	LogFormat     string `env:"EMBERVALE_LOG_FORMAT" envDefault:"text"`
}

// Load reads configuration from the environment. Paths not set explicitly
// derive from the data root.
func Load() (Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if cfg.AccountsPath == "" {
		cfg.AccountsPath = filepath.Join(cfg.DataRoot, "accounts.json")
	}
	if cfg.TemplatesPath == "" {
		cfg.TemplatesPath = filepath.Join(cfg.DataRoot, "templates.db")
	}
	return cfg, nil
}
