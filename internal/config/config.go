// Package config loads the qsimplify configuration file.
//
// The file is TOML, read from $XDG_CONFIG_HOME/qsimplify/config.toml (or the
// platform equivalent) unless --config names another path:
//
//	rules = "~/rules/custom.yaml"
//	iterations = 5
//	max_permutations = 100000
//	timeout = "30s"
//
//	[cache]
//	backend = "redis"
//	ttl = "72h"
//
//	[cache.redis]
//	addr = "localhost:6379"
//
//	[server]
//	addr = ":8080"
//
// Every key is optional. [Config.SetDefaults] fills the gaps and command
// line flags override file values.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"

	"github.com/matzehuels/qsimplify/pkg/cache"
	qerrors "github.com/matzehuels/qsimplify/pkg/errors"
	"github.com/matzehuels/qsimplify/pkg/pipeline"
	"github.com/matzehuels/qsimplify/pkg/rules"
)

const appName = "qsimplify"

// Cache backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// Defaults applied by SetDefaults.
const (
	DefaultServerAddr   = ":8080"
	DefaultRedisAddr    = "localhost:6379"
	DefaultRedisPrefix  = appName + ":"
	DefaultMaxBodyBytes = 1 << 20
)

// Duration is a time.Duration written as a Go duration string ("30s").
type Duration time.Duration

// UnmarshalText parses a duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText writes the duration string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the configuration file.
type Config struct {
	// Rules is a JSON or YAML rule document. Empty uses the bundled rules.
	Rules           string   `toml:"rules"`
	Iterations      int      `toml:"iterations" validate:"min=0,max=100"`
	MaxPermutations int      `toml:"max_permutations" validate:"min=0"`
	Timeout         Duration `toml:"timeout" validate:"min=0"`

	Cache  CacheConfig  `toml:"cache"`
	Server ServerConfig `toml:"server"`
}

// CacheConfig selects and configures the result cache.
type CacheConfig struct {
	Backend string   `toml:"backend" validate:"omitempty,oneof=file redis none"`
	TTL     Duration `toml:"ttl" validate:"min=0"`
	// Dir overrides the file cache directory.
	Dir   string      `toml:"dir"`
	Redis RedisConfig `toml:"redis"`
}

// RedisConfig configures the Redis backend.
type RedisConfig struct {
	Addr     string `toml:"addr" validate:"omitempty,hostname_port"`
	Password string `toml:"password"`
	DB       int    `toml:"db" validate:"min=0"`
	Prefix   string `toml:"prefix"`
}

// ServerConfig configures `qsimplify serve`.
type ServerConfig struct {
	Addr string `toml:"addr"`
	// MaxBodyBytes caps request bodies.
	MaxBodyBytes int64 `toml:"max_body_bytes" validate:"min=0"`
	// RequestTimeout caps the simplification time per request.
	RequestTimeout Duration `toml:"request_timeout" validate:"min=0"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// DefaultPath returns the per-user configuration file path.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.toml"), nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appName, "config.toml"), nil
}

// Load reads the configuration file at path and applies defaults. An empty
// path loads the default location, where a missing file is not an error.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return Default(), nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist) && !explicit:
		return Default(), nil
	case errors.Is(err, os.ErrNotExist):
		return nil, qerrors.Wrap(qerrors.ErrCodeFileNotFound, err, "config file %s", path)
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.Rules = expandHome(cfg.Rules)
	cfg.Cache.Dir = expandHome(cfg.Cache.Dir)
	return cfg, nil
}

// Parse decodes TOML, applies defaults and validates the result. Unknown
// keys are rejected.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, qerrors.Wrap(qerrors.ErrCodeInvalidFormat, err, "parse config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, qerrors.New(qerrors.ErrCodeInvalidFormat, "unknown config keys: %s", strings.Join(keys, ", "))
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.SetDefaults()
	return cfg
}

// SetDefaults fills unset values.
func (c *Config) SetDefaults() {
	if c.Iterations == 0 {
		c.Iterations = pipeline.DefaultIterations
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = BackendFile
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = Duration(cache.DefaultTTL)
	}
	if c.Cache.Redis.Addr == "" {
		c.Cache.Redis.Addr = DefaultRedisAddr
	}
	if c.Cache.Redis.Prefix == "" {
		c.Cache.Redis.Prefix = DefaultRedisPrefix
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultServerAddr
	}
	if c.Server.MaxBodyBytes == 0 {
		c.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}
}

// Validate checks value ranges and the rules path.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return qerrors.New(qerrors.ErrCodeInvalidInput, "config %s: failed %s%s", fe.Namespace(), fe.Tag(), param(fe.Param()))
		}
		return qerrors.Wrap(qerrors.ErrCodeInvalidInput, err, "config")
	}
	if c.Rules != "" {
		if err := qerrors.ValidatePath(c.Rules, false); err != nil {
			return fmt.Errorf("config rules: %w", err)
		}
	}
	return nil
}

func param(p string) string {
	if p == "" {
		return ""
	}
	return "=" + p
}

// LoadRules loads the configured rule document, or the bundled rules when
// none is set.
func (c *Config) LoadRules() (*rules.Set, error) {
	if c.Rules == "" {
		return rules.Default()
	}
	return rules.LoadFile(c.Rules)
}

// OpenCache opens the configured cache backend.
func (c *Config) OpenCache(ctx context.Context) (cache.Cache, error) {
	switch c.Cache.Backend {
	case BackendNone:
		return cache.NewNullCache(), nil
	case BackendRedis:
		return cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     c.Cache.Redis.Addr,
			Password: c.Cache.Redis.Password,
			DB:       c.Cache.Redis.DB,
			Prefix:   c.Cache.Redis.Prefix,
		})
	default:
		dir, err := c.CacheDir()
		if err != nil {
			return nil, err
		}
		return cache.NewFileCache(dir)
	}
}

// CacheDir returns the file cache directory.
func (c *Config) CacheDir() (string, error) {
	if c.Cache.Dir != "" {
		return c.Cache.Dir, nil
	}
	dir, err := cache.DefaultDir()
	if err != nil {
		return "", fmt.Errorf("cache dir: %w", err)
	}
	return dir, nil
}

// PipelineOptions returns run options carrying the configured budget.
func (c *Config) PipelineOptions() pipeline.Options {
	return pipeline.Options{
		Iterations:      c.Iterations,
		MaxPermutations: c.MaxPermutations,
		Timeout:         c.Timeout.Std(),
	}
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
