// Package config loads runtime configuration from a config file and
// STMT_-prefixed environment variables, env taking precedence.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full runtime configuration.
type Config struct {
	// Server
	Port     int    `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`

	// Extraction backend
	GeminiEnabled bool   `mapstructure:"gemini_enabled"`
	GeminiAPIKey  string `mapstructure:"gemini_api_key"`
	GeminiModel   string `mapstructure:"gemini_model"`

	// Pipeline tuning
	ChunkSize     int           `mapstructure:"chunk_size"`
	ChunkTimeout  time.Duration `mapstructure:"chunk_timeout"`
	JobTimeout    time.Duration `mapstructure:"job_timeout"`
	Policy        string        `mapstructure:"policy"`
	MaxConcurrent int           `mapstructure:"max_concurrent"`

	// Statement defaults
	DefaultCurrency string `mapstructure:"default_currency"`

	// Persistence. Storage is skipped when these are empty.
	GCSBucket  string `mapstructure:"gcs_bucket"`
	BQProject  string `mapstructure:"bq_project"`
	BQDataset  string `mapstructure:"bq_dataset"`
	JobWorkers int    `mapstructure:"job_workers"`
	JobBuffer  int    `mapstructure:"job_buffer"`
}

// PersistenceEnabled reports whether parsed statements should be written
// to BigQuery.
func (c Config) PersistenceEnabled() bool {
	return c.BQProject != "" && c.BQDataset != ""
}

// Load reads configuration. A config file is optional; environment
// variables like STMT_GEMINI_API_KEY always apply.
func Load(path string) (Config, error) {
	v := viper.New()

	v.SetDefault("port", 8080)
	v.SetDefault("log_level", "info")
	v.SetDefault("gemini_enabled", true)
	v.SetDefault("gemini_model", "gemini-2.5-flash")
	v.SetDefault("chunk_size", 2)
	v.SetDefault("chunk_timeout", 60*time.Second)
	v.SetDefault("job_timeout", 90*time.Second)
	v.SetDefault("policy", "best-effort")
	v.SetDefault("max_concurrent", 4)
	v.SetDefault("default_currency", "SGD")
	v.SetDefault("job_workers", 5)
	v.SetDefault("job_buffer", 100)

	// Keys without another default still need registering so AutomaticEnv
	// can populate them through Unmarshal.
	v.SetDefault("gemini_api_key", "")
	v.SetDefault("gcs_bucket", "")
	v.SetDefault("bq_project", "")
	v.SetDefault("bq_dataset", "")

	v.SetEnvPrefix("STMT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
