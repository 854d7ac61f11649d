// Package config merges parkdash.yaml, a .env file and PARKDASH_* environment
// variables into a Config.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/aretw0/parkdash/pkg/domain"
	"github.com/aretw0/parkdash/pkg/store"
	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultFile is read from the working directory when no file is given.
	DefaultFile = "parkdash.yaml"
	// DefaultEnvFile is read from the working directory when no env file is given.
	DefaultEnvFile = ".env"
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "PARKDASH_"
)

// Store backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

type Config struct {
	BaseURL      string        `mapstructure:"base_url" yaml:"base_url"`
	Session      string        `mapstructure:"session" yaml:"session"`
	Timeout      time.Duration `mapstructure:"timeout" yaml:"timeout"`
	LogLevel     string        `mapstructure:"log_level" yaml:"log_level"`
	LogFormat    string        `mapstructure:"log_format" yaml:"log_format"`
	SettlePolicy string        `mapstructure:"settle_policy" yaml:"settle_policy"`
	Store        StoreConfig   `mapstructure:"store" yaml:"store"`
	Serve        ServeConfig   `mapstructure:"serve" yaml:"serve"`
}

type StoreConfig struct {
	Backend       string      `mapstructure:"backend" yaml:"backend"`
	Path          string      `mapstructure:"path" yaml:"path"`
	EncryptionKey string      `mapstructure:"encryption_key" yaml:"encryption_key"`
	FallbackKeys  []string    `mapstructure:"fallback_keys" yaml:"fallback_keys"`
	Redis         RedisConfig `mapstructure:"redis" yaml:"redis"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr" yaml:"addr"`
	Password string        `mapstructure:"password" yaml:"password"`
	DB       int           `mapstructure:"db" yaml:"db"`
	Prefix   string        `mapstructure:"prefix" yaml:"prefix"`
	TTL      time.Duration `mapstructure:"ttl" yaml:"ttl"`
	LockTTL  time.Duration `mapstructure:"lock_ttl" yaml:"lock_ttl"`
}

type ServeConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
	// Refresh is a cron expression ("@every 30s", "*/5 * * * *"). Empty disables it.
	Refresh    string   `mapstructure:"refresh" yaml:"refresh"`
	Operations []string `mapstructure:"operations" yaml:"operations"`
}

// envKeys maps environment variables to config paths.
var envKeys = map[string]string{
	"BASE_URL":             "base_url",
	"SESSION":              "session",
	"TIMEOUT":              "timeout",
	"LOG_LEVEL":            "log_level",
	"LOG_FORMAT":           "log_format",
	"SETTLE_POLICY":        "settle_policy",
	"STORE_BACKEND":        "store.backend",
	"STORE_PATH":           "store.path",
	"ENCRYPTION_KEY":       "store.encryption_key",
	"ENCRYPTION_FALLBACKS": "store.fallback_keys",
	"REDIS_ADDR":           "store.redis.addr",
	"REDIS_PASSWORD":       "store.redis.password",
	"REDIS_DB":             "store.redis.db",
	"REDIS_PREFIX":         "store.redis.prefix",
	"REDIS_TTL":            "store.redis.ttl",
	"REDIS_LOCK_TTL":       "store.redis.lock_ttl",
	"SERVE_ADDR":           "serve.addr",
	"SERVE_REFRESH":        "serve.refresh",
	"SERVE_OPERATIONS":     "serve.operations",
}

// EnvKeys returns the supported environment variables, prefixed.
func EnvKeys() map[string]string {
	out := make(map[string]string, len(envKeys))
	for k, v := range envKeys {
		out[EnvPrefix+k] = v
	}
	return out
}

func defaults() map[string]any {
	return map[string]any{
		"base_url":      "http://localhost:3000",
		"session":       "default",
		"timeout":       "30s",
		"log_level":     "info",
		"log_format":    "text",
		"settle_policy": store.LastDispatchedWins.String(),
		"store": map[string]any{
			"backend": BackendFile,
			"redis": map[string]any{
				"addr":     "localhost:6379",
				"prefix":   "parkdash:session:",
				"lock_ttl": "30s",
			},
		},
		"serve": map[string]any{
			"addr": "127.0.0.1:8420",
			"operations": []any{
				"arrival/getArrivals",
				"parking/getParkings",
				"parking/getDuration",
				"log-gate/getLogGate",
			},
		},
	}
}

// Loader reads configuration from its sources.
type Loader struct {
	// File is the YAML file. Missing files are ignored unless Required is set.
	File     string
	Required bool
	// EnvFile is the dotenv file. Missing files are ignored.
	EnvFile string
	// Lookup reads the process environment. Defaults to os.LookupEnv.
	Lookup func(string) (string, bool)
}

// Load reads DefaultFile and DefaultEnvFile from the working directory.
func Load() (*Config, error) {
	return (&Loader{File: DefaultFile, EnvFile: DefaultEnvFile}).Load()
}

// Load merges defaults, the YAML file, the dotenv file and the environment,
// in increasing order of precedence.
func (l *Loader) Load() (*Config, error) {
	merged := defaults()

	if l.File != "" {
		data, err := os.ReadFile(l.File)
		switch {
		case err == nil:
			var fromFile map[string]any
			if err := yaml.Unmarshal(data, &fromFile); err != nil {
				return nil, fmt.Errorf("failed to parse %s: %w", l.File, err)
			}
			merge(merged, fromFile)
		case errors.Is(err, os.ErrNotExist) && !l.Required:
		default:
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	env := map[string]string{}
	if l.EnvFile != "" {
		dotenv, err := godotenv.Read(l.EnvFile)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read %s: %w", l.EnvFile, err)
		}
		for k, v := range dotenv {
			env[k] = v
		}
	}

	lookup := l.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	for name, path := range EnvKeys() {
		if v, ok := lookup(name); ok {
			env[name] = v
		}
		if v, ok := env[name]; ok {
			set(merged, path, v)
		}
	}

	cfg, err := decode(merged)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(input map[string]any) (*Config, error) {
	var cfg Config
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(input); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the values that would otherwise fail late.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("base_url must be an absolute http(s) URL, got %q", c.BaseURL)
	}
	if c.Session == "" {
		return errors.New("session cannot be empty")
	}
	if err := domain.ValidateSessionID(c.Session); err != nil {
		return fmt.Errorf("session: %w", err)
	}
	if _, err := store.ParseSettlePolicy(c.SettlePolicy); err != nil {
		return err
	}
	switch c.Store.Backend {
	case BackendMemory, BackendFile, BackendRedis:
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	return nil
}

// merge copies src into dst, recursing into nested maps.
func merge(dst, src map[string]any) {
	for k, v := range src {
		if sub, ok := v.(map[string]any); ok {
			if existing, ok := dst[k].(map[string]any); ok {
				merge(existing, sub)
				continue
			}
		}
		dst[k] = v
	}
}

// set assigns value at a dotted path, creating intermediate maps.
func set(m map[string]any, path string, value any) {
	parts := strings.Split(path, ".")
	for _, p := range parts[:len(parts)-1] {
		next, ok := m[p].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[p] = next
		}
		m = next
	}
	m[parts[len(parts)-1]] = value
}

// Policy returns the parsed settle policy. Call after Validate.
func (c *Config) Policy() store.SettlePolicy {
	p, _ := store.ParseSettlePolicy(c.SettlePolicy)
	return p
}
