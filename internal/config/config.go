package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"
)

// Config holds all pipeline configuration
// Every component receives its piece of this struct at construction; nothing
// reads ambient state at run time, so tests can inject temporary paths
//
// Environment Variables:
// Paths:
// - DATA_DIR: directory holding movies.csv and ratings.csv (default: ml-latest-small)
// - CACHE_FILE: lookup cache file (default: omdb_cache.json)
// - DB_FILE: SQLite database file (default: movies.db)
// - LOG_FILE: run log file (default: run_log.txt)
//
// OMDb:
// - OMDB_API_URL: lookup endpoint (default: http://www.omdbapi.com/)
// - OMDB_API_KEY: API key, may also come from the -omdb-key flag
// - OMDB_TIMEOUT: per-lookup timeout in seconds (default: 10)
// - OMDB_REQUEST_DELAY_MS: delay after each network lookup in milliseconds (default: 100)
//
// Export:
// - EXPORT_DIR: report output directory (default: sample_output)
// - EXPORT_TOP_N: rows in the top-rated report (default: 10)
//
// Scheduling:
// - CRON_EXPR: schedule for -schedule mode (default: 0 3 * * *)
// - LOG_LEVEL: debug/info/warn/error (default: info)

type Config struct {
	Paths  PathsConfig  `json:"paths"`
	OMDb   OMDbConfig   `json:"omdb"`
	Export ExportConfig `json:"export"`

	CronExpr string `json:"cron_expr"`
	LogLevel string `json:"log_level"`
}

// PathsConfig holds every file and directory the pipeline touches
type PathsConfig struct {
	DataDir   string `json:"data_dir"`
	CacheFile string `json:"cache_file"`
	DBFile    string `json:"db_file"`
	LogFile   string `json:"log_file"`
}

// OMDbConfig holds the configuration for the external lookup client
type OMDbConfig struct {
	APIURL  string `json:"api_url"`
	APIKey  string `json:"api_key"`
	Timeout int    `json:"timeout"`
	DelayMS int    `json:"request_delay_ms"`
}

// RequestDelay is the pause applied after each genuine network lookup.
func (c OMDbConfig) RequestDelay() time.Duration {
	return time.Duration(c.DelayMS) * time.Millisecond
}

// ExportConfig holds the configuration for the top-rated report
type ExportConfig struct {
	Dir  string `json:"dir"`
	TopN int    `json:"top_n"`
}

// Option is a function type for configuring Config
type Option func(*Config)

// WithDataDir overrides the input data directory
func WithDataDir(dir string) Option {
	return func(c *Config) {
		if dir != "" {
			c.Paths.DataDir = dir
		}
	}
}

// WithAPIKey overrides the OMDb API key
func WithAPIKey(key string) Option {
	return func(c *Config) {
		if key != "" {
			c.OMDb.APIKey = key
		}
	}
}

// NewFromEnv creates a new Config instance with values from environment variables and options
func NewFromEnv(opts ...Option) (*Config, error) {
	config := &Config{
		Paths: PathsConfig{
			DataDir:   getEnvString("DATA_DIR", "ml-latest-small"),
			CacheFile: getEnvString("CACHE_FILE", "omdb_cache.json"),
			DBFile:    getEnvString("DB_FILE", "movies.db"),
			LogFile:   getEnvString("LOG_FILE", "run_log.txt"),
		},
		OMDb: OMDbConfig{
			APIURL:  getEnvString("OMDB_API_URL", "http://www.omdbapi.com/"),
			APIKey:  getEnvString("OMDB_API_KEY", ""),
			Timeout: getEnvInt("OMDB_TIMEOUT", 10),
			DelayMS: getEnvInt("OMDB_REQUEST_DELAY_MS", 100),
		},
		Export: ExportConfig{
			Dir:  getEnvString("EXPORT_DIR", "sample_output"),
			TopN: getEnvInt("EXPORT_TOP_N", 10),
		},
		CronExpr: getEnvString("CRON_EXPR", "0 3 * * *"),
		LogLevel: getEnvString("LOG_LEVEL", "info"),
	}

	// Apply custom options
	for _, opt := range opts {
		opt(config)
	}

	// Validate required configuration
	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// validate checks if all required configuration is properly set
func (c *Config) validate() error {
	if c.Paths.DataDir == "" {
		return fmt.Errorf("DATA_DIR is required")
	}
	if c.Paths.CacheFile == "" {
		return fmt.Errorf("CACHE_FILE is required")
	}
	if c.Paths.DBFile == "" {
		return fmt.Errorf("DB_FILE is required")
	}
	if c.OMDb.APIURL == "" {
		return fmt.Errorf("OMDB_API_URL is required")
	}
	if c.OMDb.Timeout <= 0 {
		return fmt.Errorf("OMDB_TIMEOUT must be positive")
	}
	if c.OMDb.DelayMS < 0 {
		return fmt.Errorf("OMDB_REQUEST_DELAY_MS must not be negative")
	}
	if c.Export.TopN <= 0 {
		return fmt.Errorf("EXPORT_TOP_N must be positive")
	}
	if _, err := cron.ParseStandard(c.CronExpr); err != nil {
		return fmt.Errorf("invalid CRON_EXPR: %w", err)
	}
	return nil
}

// getEnvString gets a string value from environment variables with default
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer value from environment variables with default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
