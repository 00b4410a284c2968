package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the main configuration struct, merged from the YAML file,
// TICKETDB_* environment variables and command-line flags (flags win).
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Mongo    MongoConfig    `yaml:"mongo"`
	Security SecurityConfig `yaml:"security"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Address string `yaml:"address"`
	Port    int    `yaml:"port"`
	// MaxBodySize caps request bodies; accepts human-friendly values
	// like "1MB".
	MaxBodySize ByteSize  `yaml:"max_body_size"`
	TLS         TLSConfig `yaml:"tls"`
}

// TLSConfig holds TLS certificate configuration.
type TLSConfig struct {
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// MongoConfig holds document-store connection settings.
type MongoConfig struct {
	URL         string   `yaml:"url"`
	Database    string   `yaml:"database"`
	MinPoolSize uint64   `yaml:"min_pool_size"`
	MaxPoolSize uint64   `yaml:"max_pool_size"`
	// ConnectTimeout bounds the startup connect+ping.
	ConnectTimeout Duration `yaml:"connect_timeout"`
	// RequestTimeout bounds each request's store work so a store outage
	// cannot suspend handlers indefinitely.
	RequestTimeout Duration `yaml:"request_timeout"`
}

// SecurityConfig holds CORS and rate-limit settings.
type SecurityConfig struct {
	CORS struct {
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"cors"`
	RateLimit struct {
		RPS   float64 `yaml:"rps"`
		Burst int     `yaml:"burst"`
	} `yaml:"rate_limit"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Addr returns host:port for the HTTP server.
func (c *Config) Addr() string {
	addr := c.Server.Address
	if addr == "" {
		addr = "0.0.0.0"
	}
	p := c.Server.Port
	if p == 0 {
		p = 5001
	}
	return fmt.Sprintf("%s:%d", addr, p)
}

// Load reads and parses the YAML config file at path.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &c, nil
}

// LoadEffective loads the config file (missing file is not an error) and
// applies environment overrides on top.
func LoadEffective(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg = &Config{}
		} else {
			return nil, err
		}
	}
	applyEnv(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(c *Config) {
	if c.Mongo.URL == "" {
		c.Mongo.URL = "mongodb://localhost:27017"
	}
	if c.Mongo.Database == "" {
		c.Mongo.Database = "ticketdb"
	}
	if c.Mongo.MinPoolSize == 0 {
		c.Mongo.MinPoolSize = 10
	}
	if c.Mongo.MaxPoolSize == 0 {
		c.Mongo.MaxPoolSize = 10
	}
}
