// Package config loads edgar_export settings.
//
// Settings come from defaults, an optional config.yaml and environment variables,
// in increasing order of precedence. Environment variables use the EDGAR_EXPORT_
// prefix with dots replaced by underscores, e.g. EDGAR_EXPORT_EDGAR_RATE_LIMIT.
// A .env file in the working directory is loaded first.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "EDGAR_EXPORT"

// Config is the complete application configuration.
type Config struct {
	EDGAR    EDGARConfig    `mapstructure:"edgar"    yaml:"edgar"`
	Export   ExportConfig   `mapstructure:"export"   yaml:"export"`
	Server   ServerConfig   `mapstructure:"server"   yaml:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"  yaml:"logging"`
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
}

// EDGARConfig controls registry access.
type EDGARConfig struct {
	UserAgent        string        `mapstructure:"user_agent"        yaml:"user_agent"` // SEC requires "name email"
	SearchURL        string        `mapstructure:"search_url"        yaml:"search_url"`
	SubmissionsURL   string        `mapstructure:"submissions_url"   yaml:"submissions_url"`
	ArchivesURL      string        `mapstructure:"archives_url"      yaml:"archives_url"`
	Timeout          time.Duration `mapstructure:"timeout"           yaml:"timeout"`
	RateLimit        float64       `mapstructure:"rate_limit"        yaml:"rate_limit"` // requests per second, 0 disables
	Forms            []string      `mapstructure:"forms"             yaml:"forms"`
	IndexConcurrency int           `mapstructure:"index_concurrency" yaml:"index_concurrency"`
}

// ExportConfig controls where workbooks and the export log go.
type ExportConfig struct {
	Dir    string `mapstructure:"dir"     yaml:"dir"`
	LogDir string `mapstructure:"log_dir" yaml:"log_dir"` // file export log, used without a database
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// LoggingConfig controls the process logger.
type LoggingConfig struct {
	Level      string `mapstructure:"level"       yaml:"level"`
	File       string `mapstructure:"file"        yaml:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
}

// DatabaseConfig holds the optional Postgres connection.
type DatabaseConfig struct {
	URL string `mapstructure:"url" yaml:"url"`
}

// Load reads configuration from ./config/config.yaml or ~/.edgar_export/config.yaml
// when present. A missing file is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".edgar_export"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return decode(v)
}

// LoadFromFile reads configuration from path.
func LoadFromFile(path string) (*Config, error) {
	_ = godotenv.Load()

	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// DATABASE_URL is the conventional name; honor it when not set under our prefix.
	if cfg.Database.URL == "" {
		cfg.Database.URL = os.Getenv("DATABASE_URL")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("edgar.user_agent", "edgar_export admin@example.com")
	v.SetDefault("edgar.search_url", "https://efts.sec.gov/LATEST/search-index")
	v.SetDefault("edgar.submissions_url", "https://data.sec.gov/submissions")
	v.SetDefault("edgar.archives_url", "https://www.sec.gov/Archives/edgar/data")
	v.SetDefault("edgar.timeout", 10*time.Second)
	v.SetDefault("edgar.rate_limit", 10.0)
	v.SetDefault("edgar.forms", []string{"10-K", "10-Q"})
	v.SetDefault("edgar.index_concurrency", 4)

	v.SetDefault("export.dir", "exports")
	v.SetDefault("export.log_dir", filepath.Join(".cache", "edgar_export"))

	v.SetDefault("server.addr", "localhost:8080")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.file", filepath.Join("logs", "edgar_export.log"))
	v.SetDefault("logging.max_size_mb", 5)
	v.SetDefault("logging.max_backups", 3)

	v.SetDefault("database.url", "")
}

// Validate rejects settings the registry clients cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.EDGAR.UserAgent) == "" {
		return errors.New("edgar.user_agent must be set")
	}
	if c.EDGAR.Timeout <= 0 {
		return fmt.Errorf("edgar.timeout must be positive, got %s", c.EDGAR.Timeout)
	}
	if c.EDGAR.RateLimit < 0 {
		return fmt.Errorf("edgar.rate_limit must not be negative, got %v", c.EDGAR.RateLimit)
	}
	if c.EDGAR.IndexConcurrency < 1 {
		return fmt.Errorf("edgar.index_concurrency must be at least 1, got %d", c.EDGAR.IndexConcurrency)
	}
	return nil
}

// Dump renders the effective configuration as YAML with credentials redacted.
func Dump(c *Config) (string, error) {
	out := *c
	out.Database.URL = redactURL(c.Database.URL)
	data, err := yaml.Marshal(&out)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	return string(data), nil
}

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "<redacted>"
	}
	return u.Redacted()
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
