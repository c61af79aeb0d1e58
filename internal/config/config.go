// Package config loads the relay configuration from a YAML file with
// environment overrides for deployment settings.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Config is the top-level relay configuration.
type Config struct {
	Port        string         `yaml:"port"`
	GRPCPort    string         `yaml:"grpc_port"`
	Environment string         `yaml:"environment"`
	Debug       bool           `yaml:"debug"`
	Log         LogConfig      `yaml:"log"`
	Database    DatabaseConfig `yaml:"database"`
	AMQP        AMQPConfig     `yaml:"amqp"`
	Redis       RedisConfig    `yaml:"redis"`
	Tracing     TracingConfig  `yaml:"tracing"`
	Prefetch    PrefetchConfig `yaml:"prefetch"`
	MaxHistory  int            `yaml:"max_history"`
	BacklogSize int            `yaml:"backlog_size"`
	Auth        AuthConfig     `yaml:"auth"`
	Users       []UserConfig   `yaml:"users"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// DatabaseConfig selects the message log store. An empty DSN disables
// persistence.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type AMQPConfig struct {
	URL             string `yaml:"url"`
	Exchange        string `yaml:"exchange"`
	AuditRoutingKey string `yaml:"audit_routing_key"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type TracingConfig struct {
	Endpoint string `yaml:"endpoint"`
}

type PrefetchConfig struct {
	Enabled  bool          `yaml:"enabled"`
	TTL      time.Duration `yaml:"ttl"`
	MaxLinks int           `yaml:"max_links"`
}

type AuthConfig struct {
	ProxyHeader string `yaml:"proxy_header"`
}

// UserConfig describes one user and their networks.
type UserConfig struct {
	Name                string          `yaml:"name"`
	PasswordHash        string          `yaml:"password_hash"`
	Highlights          []string        `yaml:"highlights"`
	HighlightExceptions []string        `yaml:"highlight_exceptions"`
	Networks            []NetworkConfig `yaml:"networks"`
}

type NetworkConfig struct {
	UUID     string   `yaml:"uuid"`
	Name     string   `yaml:"name"`
	Host     string   `yaml:"host"`
	Nick     string   `yaml:"nick"`
	Ignore   []string `yaml:"ignore"`
	Channels []string `yaml:"channels"`
}

// Load reads the YAML file at path, applies environment overrides and
// returns a validated Config. An empty path yields a config built from
// defaults and the environment only.
func Load(path string) (*Config, error) {
	var data []byte
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}
	return build(data, getEnv)
}

// Parse unmarshals YAML bytes into a validated Config without consulting
// the environment.
func Parse(data []byte) (*Config, error) {
	return build(data, func(_, fallback string) string { return fallback })
}

func build(data []byte, env func(key, fallback string) string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyEnv(env)
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv(env func(key, fallback string) string) {
	c.Port = env("PORT", c.Port)
	c.GRPCPort = env("GRPC_PORT", c.GRPCPort)
	c.Log.Level = env("LOG_LEVEL", c.Log.Level)
	c.Database.DSN = env("DB_DSN", c.Database.DSN)
	c.AMQP.URL = env("AMQP_URL", c.AMQP.URL)
	c.Redis.Addr = env("REDIS_ADDR", c.Redis.Addr)
	c.Tracing.Endpoint = env("OTEL_EXPORTER_OTLP_ENDPOINT", c.Tracing.Endpoint)
	c.Environment = env("APP_ENV", c.Environment)
	if v := env("DEBUG_ROUTES", ""); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Debug = b
		}
	}
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Port == "" {
		c.Port = "8080"
	}
	if c.GRPCPort == "" {
		c.GRPCPort = "9090"
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.AMQP.Exchange == "" {
		c.AMQP.Exchange = "chat-relay.events"
	}
	if c.AMQP.AuditRoutingKey == "" {
		c.AMQP.AuditRoutingKey = "audit.events"
	}
	if c.Prefetch.TTL == 0 {
		c.Prefetch.TTL = time.Hour
	}
	if c.Prefetch.MaxLinks == 0 {
		c.Prefetch.MaxLinks = 5
	}
	if c.MaxHistory == 0 {
		c.MaxHistory = 10000
	}
	if c.BacklogSize == 0 {
		c.BacklogSize = 100
	}
	for i := range c.Users {
		u := &c.Users[i]
		for j := range u.Networks {
			n := &u.Networks[j]
			if n.Name == "" {
				n.Name = n.Host
			}
			if n.Nick == "" {
				n.Nick = u.Name
			}
			if n.UUID == "" {
				n.UUID = NetworkUUID(u.Name, n.Host, n.Name)
			}
		}
	}
}

// NetworkUUID derives a stable id for a network without a configured one, so
// saved windows survive restarts.
func NetworkUUID(user, host, name string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("irc://"+user+"@"+host+"/"+name)).String()
}

// validate checks required fields and constraints.
func (c *Config) validate() error {
	var errs []string
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	if c.MaxHistory < 0 {
		errs = append(errs, "max_history must be >= 0")
	}
	if c.BacklogSize < 0 {
		errs = append(errs, "backlog_size must be >= 0")
	}

	users := map[string]bool{}
	networks := map[string]bool{}
	for i, u := range c.Users {
		if u.Name == "" {
			errs = append(errs, fmt.Sprintf("users[%d]: name is required", i))
		} else if users[u.Name] {
			errs = append(errs, fmt.Sprintf("users[%d]: duplicate name %q", i, u.Name))
		}
		users[u.Name] = true

		for j, n := range u.Networks {
			if n.Host == "" {
				errs = append(errs, fmt.Sprintf("users[%d].networks[%d]: host is required", i, j))
			}
			if networks[n.UUID] {
				errs = append(errs, fmt.Sprintf("users[%d].networks[%d]: duplicate uuid %q", i, j, n.UUID))
			}
			networks[n.UUID] = true
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// PasswordHashes maps user names to their bcrypt hashes.
func (c *Config) PasswordHashes() map[string]string {
	out := make(map[string]string, len(c.Users))
	for _, u := range c.Users {
		out[u.Name] = u.PasswordHash
	}
	return out
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}
