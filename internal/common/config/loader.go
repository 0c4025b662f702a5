// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	// Base config
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like REDCAP_API_TOKEN
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment overlay (config.development.yaml etc.), ignored if absent
	viper.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = viper.MergeInConfig()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile loads .env from the first location that has one. The token
// should live there rather than in config.yaml.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "redcap-client"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}
	if cfg.REDCap.APIToken == "" {
		cfg.REDCap.APIToken = os.Getenv("REDCAP_API_TOKEN")
	}
	if cfg.REDCap.APIURL == "" {
		cfg.REDCap.APIURL = os.Getenv("REDCAP_API_URL")
	}
	if cfg.REDCap.Timeout == 0 {
		cfg.REDCap.Timeout = 30000
	}
	if cfg.REDCap.MaxRetries == 0 {
		cfg.REDCap.MaxRetries = 3
	}
	if cfg.Fetch.Type == "" {
		cfg.Fetch.Type = "eav"
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = 600
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Metrics.Address == "" {
		cfg.Metrics.Address = ":9091"
	}
}

func validateConfig(cfg *Config) error {
	if cfg.REDCap.APIURL == "" {
		return fmt.Errorf("redcap.api_url is required")
	}
	if cfg.REDCap.APIToken == "" {
		return fmt.Errorf("redcap.api_token is required (set REDCAP_API_TOKEN)")
	}
	if cfg.Fetch.Type != "flat" && cfg.Fetch.Type != "eav" {
		return fmt.Errorf("fetch.type must be \"flat\" or \"eav\", got %q", cfg.Fetch.Type)
	}
	if cfg.Cache.Enabled && cfg.Cache.Address == "" {
		return fmt.Errorf("cache.address is required when cache.enabled is true")
	}
	return nil
}
