package adjuster

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/readstyle/shield"
)

// Config holds all readstyle service configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store"`
	HTTP     HTTPConfig     `yaml:"http"`
	Browser  BrowserConfig  `yaml:"browser"`
	Analysis AnalysisConfig `yaml:"analysis"`
}

// StoreConfig selects the preference backend.
type StoreConfig struct {
	// Backend is sqlite, redis or memory.
	Backend       string `yaml:"backend"`
	DBPath        string `yaml:"db_path"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	RedisPrefix   string `yaml:"redis_prefix"`
}

// HTTPConfig configures the HTTP surface.
type HTTPConfig struct {
	Addr        string        `yaml:"addr"`
	ReadTimeout time.Duration `yaml:"read_timeout"`
	// RateLimits maps "METHOD /path" to a per-client limit.
	RateLimits map[string]shield.Rule `yaml:"rate_limits"`
}

// BrowserConfig configures live page rendering. Rendering is off unless
// Enabled is set.
type BrowserConfig struct {
	Enabled          bool          `yaml:"enabled"`
	RemoteURL        string        `yaml:"remote_url"`
	Stealth          bool          `yaml:"stealth"`
	NavTimeout       time.Duration `yaml:"nav_timeout"`
	ResourceBlocking []string      `yaml:"resource_blocking"`
	AllowPrivate     bool          `yaml:"allow_private"`
}

// AnalysisConfig tunes page analysis.
type AnalysisConfig struct {
	ExcerptMaxChars int `yaml:"excerpt_max_chars"`
}

// Store backends.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

func (c *Config) defaults() {
	if c.Store.Backend == "" {
		c.Store.Backend = BackendSQLite
	}
	if c.Store.DBPath == "" {
		c.Store.DBPath = "data/readstyle.db"
	}
	if c.Store.RedisAddr == "" {
		c.Store.RedisAddr = "localhost:6379"
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8420"
	}
	if c.HTTP.ReadTimeout <= 0 {
		c.HTTP.ReadTimeout = 15 * time.Second
	}
	if c.HTTP.RateLimits == nil {
		c.HTTP.RateLimits = map[string]shield.Rule{
			"POST /v1/analyze": {MaxRequests: 60, Window: time.Minute},
			"POST /v1/preview": {MaxRequests: 60, Window: time.Minute},
		}
	}
	if c.Browser.NavTimeout <= 0 {
		c.Browser.NavTimeout = 30 * time.Second
	}
	if c.Analysis.ExcerptMaxChars <= 0 {
		c.Analysis.ExcerptMaxChars = 600
	}
}

// LoadConfigFile reads a YAML config file. Unset fields get their defaults
// when the config is used.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("adjuster: config: %w", err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("adjuster: config %s: %w", path, err)
	}
	return cfg, nil
}
