package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:generate go run ../../cmd/schema/main.go schema.json

// source types
const (
	SourceNewsdata = "newsdata"
	SourceRSS      = "rss"
)

// Config holds the application configuration
type Config struct {
	Server ServerConfig `yaml:"server" json:"server" jsonschema:"description=Server configuration"`
	Source SourceConfig `yaml:"source" json:"source" jsonschema:"description=Paginated news source configuration"`
	Auth   AuthConfig   `yaml:"auth" json:"auth" jsonschema:"description=Login gate configuration"`
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Listen     string        `yaml:"listen" json:"listen" jsonschema:"default=:8080,description=HTTP server listen address"`
	Timeout    time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=HTTP server timeout"`
	SessionTTL time.Duration `yaml:"session_ttl" json:"session_ttl" jsonschema:"default=24h,description=Idle time after which a session is logged out"`
}

// SourceConfig holds settings of the paginated news source
type SourceConfig struct {
	Type         string        `yaml:"type" json:"type" jsonschema:"default=newsdata,enum=newsdata,enum=rss,description=Source type"`
	Endpoint     string        `yaml:"endpoint" json:"endpoint" jsonschema:"default=https://newsdata.io/api/1/news,description=newsdata.io compatible API endpoint"`
	APIKey       string        `yaml:"api_key" json:"api_key" jsonschema:"description=API key (can use environment variable)"`
	Language     string        `yaml:"language" json:"language" jsonschema:"default=en,description=Language filter applied to every request"`
	Query        string        `yaml:"query" json:"query" jsonschema:"description=Optional search query"`
	Category     string        `yaml:"category" json:"category" jsonschema:"description=Optional category filter"`
	Country      string        `yaml:"country" json:"country" jsonschema:"description=Optional country filter"`
	RSSURL       string        `yaml:"rss_url" json:"rss_url" jsonschema:"description=Feed URL for rss source"`
	PageSize     int           `yaml:"page_size" json:"page_size" jsonschema:"default=10,minimum=1,description=Items per page for rss source"`
	Timeout      time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=Request timeout"`
	Retries      int           `yaml:"retries" json:"retries" jsonschema:"default=1,minimum=1,maximum=10,description=Attempts per fetch for transient failures"`
	UserAgent    string        `yaml:"user_agent" json:"user_agent" jsonschema:"default=Scrollfeed/1.0,description=User agent for HTTP requests"`
	ErrorMessage string        `yaml:"error_message" json:"error_message" jsonschema:"description=Message shown when a page can't be loaded"`
}

// AuthConfig holds login gate credentials, empty username accepts any login
type AuthConfig struct {
	Username string `yaml:"username" json:"username" jsonschema:"description=Login username, empty accepts any"`
	Password string `yaml:"password" json:"password" jsonschema:"description=Login password"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // file path comes from CLI flag
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// expand environment variables
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()

	// validate configuration
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	verifySchema(&cfg)

	return &cfg, nil
}

// Default returns configuration with all defaults set, used when no config file given
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

func (c *Config) setDefaults() {
	// set defaults for server
	if c.Server.Listen == "" {
		c.Server.Listen = ":8080"
	}
	if c.Server.Timeout == 0 {
		c.Server.Timeout = 30 * time.Second
	}
	if c.Server.SessionTTL == 0 {
		c.Server.SessionTTL = 24 * time.Hour
	}

	// set defaults for source
	if c.Source.Type == "" {
		c.Source.Type = SourceNewsdata
	}
	if c.Source.Endpoint == "" {
		c.Source.Endpoint = "https://newsdata.io/api/1/news"
	}
	if c.Source.Language == "" {
		c.Source.Language = "en"
	}
	if c.Source.PageSize == 0 {
		c.Source.PageSize = 10
	}
	if c.Source.Timeout == 0 {
		c.Source.Timeout = 30 * time.Second
	}
	if c.Source.Retries == 0 {
		c.Source.Retries = 1
	}
	if c.Source.UserAgent == "" {
		c.Source.UserAgent = "Scrollfeed/1.0"
	}
}

// verifySchema checks config against the embedded schema and only warns,
// validate has the hard rules
func verifySchema(cfg *Config) {
	if err := VerifyAgainstEmbeddedSchema(cfg); err != nil {
		log.Printf("[WARN] schema validation failed: %v", err)
	}
}

// validate checks configuration for correctness
func validate(cfg *Config) error {
	// validate source config
	switch cfg.Source.Type {
	case SourceNewsdata:
		if cfg.Source.APIKey == "" {
			return fmt.Errorf("source.api_key is required for newsdata source")
		}
	case SourceRSS:
		if cfg.Source.RSSURL == "" {
			return fmt.Errorf("source.rss_url is required for rss source")
		}
	default:
		return fmt.Errorf("unknown source.type %q", cfg.Source.Type)
	}
	if cfg.Source.PageSize < 1 {
		return fmt.Errorf("source.page_size must be at least 1")
	}
	if cfg.Source.Retries < 1 || cfg.Source.Retries > 10 {
		return fmt.Errorf("source.retries must be between 1 and 10")
	}
	if cfg.Source.Timeout < time.Second {
		return fmt.Errorf("source timeout must be at least 1 second")
	}

	// validate auth config
	if cfg.Auth.Username != "" && cfg.Auth.Password == "" {
		return fmt.Errorf("auth.password is required when auth.username is set")
	}

	// validate server config
	if cfg.Server.Timeout < time.Second {
		return fmt.Errorf("server timeout must be at least 1 second")
	}
	if cfg.Server.SessionTTL < time.Minute {
		return fmt.Errorf("server session_ttl must be at least 1 minute")
	}

	return nil
}

// GetServerConfig returns server configuration
func (c *Config) GetServerConfig() (listen string, timeout time.Duration) {
	return c.Server.Listen, c.Server.Timeout
}
