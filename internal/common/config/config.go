// internal/common/config/config.go
package config

import "time"

// Config is the main application configuration struct.
type Config struct {
	App     AppConfig     `mapstructure:"app"`
	REDCap  REDCapConfig  `mapstructure:"redcap"`
	Fetch   FetchConfig   `mapstructure:"fetch"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// --- Core App Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// REDCapConfig holds the connection settings for the REDCap API endpoint.
type REDCapConfig struct {
	APIURL     string `mapstructure:"api_url"`
	APIToken   string `mapstructure:"api_token"`
	Timeout    int    `mapstructure:"timeout"`     // milliseconds
	MaxRetries int    `mapstructure:"max_retries"` // for 502/503/504 responses
}

// FetchConfig controls how record exports are requested.
type FetchConfig struct {
	Type             string `mapstructure:"type"` // "flat" or "eav"
	SurveyFields     bool   `mapstructure:"survey_fields"`
	DataAccessGroups bool   `mapstructure:"data_access_groups"`
}

// CacheConfig holds settings for the optional redis metadata cache.
type CacheConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	TTL      int    `mapstructure:"ttl"` // seconds
}

// GetTTL returns the cache TTL as a duration.
func (c CacheConfig) GetTTL() time.Duration {
	return time.Duration(c.TTL) * time.Second
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}
