// Package settings loads client and logging configuration from the
// environment or from a YAML file.
//
// FromEnv reads HTTPCLIENT_* and LOG_* variables, loading a local .env
// file first when one exists. FromFile treats the YAML file as
// authoritative over the built-in defaults. Both produce the same
// Settings, which translate into client and logging configs.
package settings

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/redjax/go-httpclient/pkg/client"
	"github.com/redjax/go-httpclient/pkg/logging"
)

// Settings mirrors the client configuration as HTTPCLIENT_-prefixed
// environment variables and snake_case YAML keys.
type Settings struct {
	BaseURL string        `env:"HTTPCLIENT_BASE_URL" yaml:"base_url"`
	Timeout time.Duration `env:"HTTPCLIENT_TIMEOUT" envDefault:"30s" yaml:"timeout"`

	FollowRedirects bool `env:"HTTPCLIENT_FOLLOW_REDIRECTS" envDefault:"false" yaml:"follow_redirects"`
	MaxRedirects    int  `env:"HTTPCLIENT_MAX_REDIRECTS" envDefault:"20" yaml:"max_redirects"`

	Username string `env:"HTTPCLIENT_USERNAME" yaml:"username"`
	Password string `env:"HTTPCLIENT_PASSWORD" yaml:"password"`

	CacheEnabled       bool          `env:"HTTPCLIENT_CACHE_ENABLED" envDefault:"true" yaml:"cache_enabled"`
	CacheType          string        `env:"HTTPCLIENT_CACHE_TYPE" envDefault:"sqlite" yaml:"cache_type"`
	CacheTTL           time.Duration `env:"HTTPCLIENT_CACHE_TTL" envDefault:"900s" yaml:"cache_ttl"`
	CacheSweepInterval time.Duration `env:"HTTPCLIENT_CACHE_SWEEP_INTERVAL" envDefault:"60s" yaml:"cache_sweep_interval"`
	ForceCache         bool          `env:"HTTPCLIENT_FORCE_CACHE" envDefault:"false" yaml:"force_cache"`
	CacheMethods       []string      `env:"HTTPCLIENT_CACHE_METHODS" envDefault:"GET" yaml:"cache_methods"`
	CacheStatuses      []int         `env:"HTTPCLIENT_CACHE_STATUSES" envDefault:"200,201,202,301,302,308" yaml:"cache_statuses"`
	KeyHeaders         []string      `env:"HTTPCLIENT_KEY_HEADERS" yaml:"key_headers"`

	SQLitePath    string `env:"HTTPCLIENT_SQLITE_PATH" envDefault:".cache/httpclient/cache.db" yaml:"sqlite_path"`
	FileDir       string `env:"HTTPCLIENT_FILE_DIR" envDefault:".cache/httpclient/cache_files" yaml:"file_dir"`
	RedisHost     string `env:"HTTPCLIENT_REDIS_HOST" envDefault:"localhost" yaml:"redis_host"`
	RedisPort     int    `env:"HTTPCLIENT_REDIS_PORT" envDefault:"6379" yaml:"redis_port"`
	RedisDB       int    `env:"HTTPCLIENT_REDIS_DB" envDefault:"0" yaml:"redis_db"`
	RedisPassword string `env:"HTTPCLIENT_REDIS_PASSWORD" yaml:"redis_password"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info" yaml:"log_level"`
	LogPretty bool   `env:"LOG_PRETTY" envDefault:"false" yaml:"log_pretty"`
}

// FromEnv loads settings from the environment. A .env file in the
// working directory is loaded first; a missing file is not an error
// since deployed environments set variables directly.
func FromEnv() (*Settings, error) {
	_ = godotenv.Load()

	var s Settings
	if err := env.Parse(&s); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &s, nil
}

// FromFile loads settings from a YAML file layered over the defaults.
// Keys absent from the file keep their default values; the environment
// is not consulted.
func FromFile(path string) (*Settings, error) {
	s, err := defaults()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read settings file: %w", err)
	}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parse settings file: %w", err)
	}
	return s, nil
}

// defaults parses the envDefault tags against an empty environment.
func defaults() (*Settings, error) {
	var s Settings
	err := env.ParseWithOptions(&s, env.Options{Environment: map[string]string{}})
	if err != nil {
		return nil, fmt.Errorf("parse defaults: %w", err)
	}
	return &s, nil
}

// ClientConfig translates the settings into a client configuration.
func (s *Settings) ClientConfig() client.Config {
	cfg := client.DefaultConfig()
	cfg.BaseURL = s.BaseURL
	cfg.Timeout = s.Timeout
	cfg.FollowRedirects = s.FollowRedirects
	cfg.MaxRedirects = s.MaxRedirects
	cfg.Username = s.Username
	cfg.Password = s.Password
	cfg.CacheEnabled = s.CacheEnabled
	cfg.CacheType = s.CacheType
	cfg.CacheTTL = s.CacheTTL
	cfg.CacheSweepInterval = s.CacheSweepInterval
	cfg.ForceCache = s.ForceCache
	cfg.CacheMethods = s.CacheMethods
	cfg.CacheStatuses = s.CacheStatuses
	cfg.KeyHeaders = s.KeyHeaders
	cfg.SQLitePath = s.SQLitePath
	cfg.FileDir = s.FileDir
	cfg.RedisHost = s.RedisHost
	cfg.RedisPort = s.RedisPort
	cfg.RedisDB = s.RedisDB
	cfg.RedisPassword = s.RedisPassword
	return cfg
}

// LoggingConfig translates the settings into a logging configuration.
func (s *Settings) LoggingConfig() logging.Config {
	return logging.Config{
		Level:  logging.LogLevel(s.LogLevel),
		Pretty: s.LogPretty,
	}
}
