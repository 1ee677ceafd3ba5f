// Package config loads the demo harness's TOML configuration file: the
// owner and validator identifiers the vault is constructed with, where its
// state lives on disk, and how it exposes logs and metrics. A production
// deployment of the vault core itself needs none of this — it is entirely
// for cmd/magniv2.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is the demo harness's on-disk configuration.
type Config struct {
	OwnerAddress   string `toml:"OwnerAddress"`
	ValidatorKey   string `toml:"ValidatorKey"`
	DataDir        string `toml:"DataDir"`
	LogLevel       string `toml:"LogLevel"`
	MetricsAddress string `toml:"MetricsAddress"`
}

// Load reads the configuration at path, writing a default file in its place
// if none exists yet.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.OwnerAddress) == "" {
		return nil, fmt.Errorf("config: OwnerAddress is required")
	}
	if strings.TrimSpace(cfg.ValidatorKey) == "" {
		return nil, fmt.Errorf("config: ValidatorKey is required")
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./magniv2-data"
	}
	if strings.TrimSpace(cfg.LogLevel) == "" {
		cfg.LogLevel = "info"
	}
	if strings.TrimSpace(cfg.MetricsAddress) == "" {
		cfg.MetricsAddress = ":9100"
	}
	return cfg, nil
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{
		DataDir:        "./magniv2-data",
		LogLevel:       "info",
		MetricsAddress: ":9100",
	}
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, fmt.Errorf("config: wrote default config to %s, fill in OwnerAddress and ValidatorKey and rerun", path)
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}
