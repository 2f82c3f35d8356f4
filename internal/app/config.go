package app

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	BaseURL        string `yaml:"base_url" env:"DOCCHAT_BASE_URL"`
	Token          string `yaml:"token" env:"DOCCHAT_TOKEN"`
	TimeoutSeconds int    `yaml:"timeout_seconds" env:"DOCCHAT_TIMEOUT_SECONDS"`
	LogLevel       string `yaml:"log_level" env:"DOCCHAT_LOG_LEVEL"`
	Theme          string `yaml:"theme" env:"DOCCHAT_THEME"`
}

func DefaultConfig() Config {
	return Config{
		BaseURL:        "http://localhost:8000",
		TimeoutSeconds: 30,
		LogLevel:       "info",
		Theme:          "porcelain",
	}
}

// LoadConfig reads the yaml config at path (a missing file is fine), then
// applies .env and environment overrides on top. Defaults are backfilled for
// anything left empty.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, err
		}
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, err
			}
		}
	}

	// A .env in the working directory wins over the file; the real
	// environment wins over both.
	_ = godotenv.Load()
	if err := env.Parse(&cfg); err != nil {
		return cfg, err
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8000"
	}
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = 30
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Theme == "" {
		cfg.Theme = "porcelain"
	}
	return cfg, nil
}

func SaveConfig(cfg Config, path string) error {
	if path == "" {
		return errors.New("no path provided for config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func DefaultConfigPath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(base, "docchat", "config.yml")
}
