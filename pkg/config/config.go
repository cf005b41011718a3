// Package config loads memeforge settings.
//
// Settings come from a TOML file (YAML is accepted when the file ends in
// .yaml or .yml), then environment overrides, then command-line flags
// applied by the caller. A missing default file is not an error; the
// built-in defaults are used.
//
// The default location is $XDG_CONFIG_HOME/memeforge/config.toml, falling
// back to ~/.config/memeforge/config.toml.
//
// Example:
//
//	[caption]
//	provider = "gemini"
//	model = "gemini-2.5-flash"
//
//	[history]
//	backend = "redis"
//	redis_addr = "redis://localhost:6379/0"
//
//	[style]
//	font_size = 56
//	font_family = "Arial Black"
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/memeforge/pkg/history"
	"github.com/matzehuels/memeforge/pkg/meme"

	errs "github.com/matzehuels/memeforge/pkg/errors"
)

const appName = "memeforge"

// Caption providers.
const (
	ProviderGateway = "gateway"
	ProviderGemini  = "gemini"
	ProviderStatic  = "static"
)

// Storage backends shared by [history] and [cache].
const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
	BackendNone   = "none"
)

// Environment variables read by ApplyEnv.
const (
	EnvProvider  = "MEMEFORGE_CAPTION_PROVIDER"
	EnvRedisAddr = "MEMEFORGE_REDIS_ADDR"
	EnvMongoURI  = "MEMEFORGE_MONGO_URI"
	EnvAPIKey    = "MEMEFORGE_API_KEY"
	EnvGeminiKey = "GEMINI_API_KEY"
)

// Config is the full settings tree.
type Config struct {
	Caption CaptionConfig `toml:"caption" yaml:"caption"`
	Images  ImagesConfig  `toml:"images" yaml:"images"`
	History HistoryConfig `toml:"history" yaml:"history"`
	Cache   CacheConfig   `toml:"cache" yaml:"cache"`
	Server  ServerConfig  `toml:"server" yaml:"server"`
	Style   meme.Style    `toml:"style" yaml:"style"`
	Fonts   FontsConfig   `toml:"fonts" yaml:"fonts"`
}

// CaptionConfig selects the caption provider.
type CaptionConfig struct {
	Provider  string `toml:"provider" yaml:"provider"`
	Model     string `toml:"model,omitempty" yaml:"model,omitempty"`
	Endpoint  string `toml:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	APIKeyEnv string `toml:"api_key_env" yaml:"api_key_env"`

	// APIKey is resolved from the environment and never written to disk.
	APIKey string `toml:"-" yaml:"-"`
}

// ImagesConfig points at the meme template API.
type ImagesConfig struct {
	Endpoint string `toml:"endpoint,omitempty" yaml:"endpoint,omitempty"`
}

// HistoryConfig selects the history backend.
type HistoryConfig struct {
	Backend       string `toml:"backend" yaml:"backend"`
	Limit         int    `toml:"limit" yaml:"limit"`
	Dir           string `toml:"dir,omitempty" yaml:"dir,omitempty"`
	RedisAddr     string `toml:"redis_addr,omitempty" yaml:"redis_addr,omitempty"`
	MongoURI      string `toml:"mongo_uri,omitempty" yaml:"mongo_uri,omitempty"`
	MongoDatabase string `toml:"mongo_database,omitempty" yaml:"mongo_database,omitempty"`
}

// CacheConfig selects the HTTP response cache backend.
type CacheConfig struct {
	Backend   string `toml:"backend" yaml:"backend"`
	Dir       string `toml:"dir,omitempty" yaml:"dir,omitempty"`
	RedisAddr string `toml:"redis_addr,omitempty" yaml:"redis_addr,omitempty"`
	Size      int    `toml:"size,omitempty" yaml:"size,omitempty"`

	// Prefix is prepended to every key, so deployments can share a Redis.
	Prefix string `toml:"prefix,omitempty" yaml:"prefix,omitempty"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr    string `toml:"addr" yaml:"addr"`
	BaseURL string `toml:"base_url,omitempty" yaml:"base_url,omitempty"`

	// AllowedHosts lists the image hosts /api/render may fetch from. Empty
	// means the server default (imgflip); "*" allows any host.
	AllowedHosts []string `toml:"allowed_hosts,omitempty" yaml:"allowed_hosts,omitempty"`
}

// FontsConfig adds font search directories.
type FontsConfig struct {
	Dirs   []string `toml:"dirs,omitempty" yaml:"dirs,omitempty"`
	Strict bool     `toml:"strict,omitempty" yaml:"strict,omitempty"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Caption: CaptionConfig{Provider: ProviderGateway, APIKeyEnv: EnvAPIKey},
		History: HistoryConfig{Backend: BackendFile, Limit: history.DefaultLimit},
		Cache:   CacheConfig{Backend: BackendFile},
		Server:  ServerConfig{Addr: ":8080"},
		Style:   meme.DefaultStyle(),
	}
}

// Dir returns the memeforge config directory.
func Dir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".config", appName), nil
}

// DefaultPath returns the config file used when none is given.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// CacheDir returns the default response cache directory
// ($XDG_CACHE_HOME/memeforge or ~/.cache/memeforge).
func CacheDir() (string, error) {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".cache", appName), nil
}

// Load reads path on top of Default and applies environment overrides.
// An empty path loads DefaultPath and tolerates its absence; an explicit
// path must exist.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return cfg, err
		}
		path = p
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := Decode(path, data, &cfg); err != nil {
			return cfg, err
		}
	case os.IsNotExist(err) && !explicit:
	default:
		return cfg, errs.Wrap(errs.ErrCodeInvalidPath, err, "read config %s", path)
	}

	cfg.ApplyEnv(os.Getenv)
	cfg.Style = cfg.Style.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Decode parses data into cfg, choosing YAML or TOML by the extension of
// name.
func Decode(name string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return errs.Wrap(errs.ErrCodeInvalidInput, err, "parse %s", name)
		}
	default:
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return errs.Wrap(errs.ErrCodeInvalidInput, err, "parse %s", name)
		}
		if undec := md.Undecoded(); len(undec) > 0 {
			return errs.New(errs.ErrCodeInvalidInput, "%s: unknown key %q", name, undec[0].String())
		}
	}
	return nil
}

// Encode renders cfg as TOML.
func Encode(cfg Config) ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return buf.Bytes(), nil
}

// Write stores cfg at path as TOML, creating parent directories.
func Write(path string, cfg Config) error {
	data, err := Encode(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// ApplyEnv overrides settings from environment variables read via getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvProvider); v != "" {
		c.Caption.Provider = strings.ToLower(v)
	}
	if v := getenv(EnvRedisAddr); v != "" {
		c.History.RedisAddr = v
		c.Cache.RedisAddr = v
	}
	if v := getenv(EnvMongoURI); v != "" {
		c.History.MongoURI = v
	}

	keyEnv := c.Caption.APIKeyEnv
	if keyEnv == "" {
		keyEnv = EnvAPIKey
	}
	c.Caption.APIKey = getenv(keyEnv)
	if c.Caption.APIKey == "" && c.Caption.Provider == ProviderGemini {
		c.Caption.APIKey = getenv(EnvGeminiKey)
	}
}

// Validate checks enumerated settings and the default style.
func (c Config) Validate() error {
	if !slices.Contains([]string{ProviderGateway, ProviderGemini, ProviderStatic}, c.Caption.Provider) {
		return errs.New(errs.ErrCodeInvalidInput, "unknown caption provider %q", c.Caption.Provider)
	}
	if !slices.Contains([]string{BackendFile, BackendMemory, BackendRedis, BackendMongo}, c.History.Backend) {
		return errs.New(errs.ErrCodeInvalidInput, "unknown history backend %q", c.History.Backend)
	}
	if c.History.Backend == BackendRedis && c.History.RedisAddr == "" {
		return errs.New(errs.ErrCodeInvalidInput, "history backend redis requires redis_addr")
	}
	if c.History.Backend == BackendMongo && c.History.MongoURI == "" {
		return errs.New(errs.ErrCodeInvalidInput, "history backend mongo requires mongo_uri")
	}
	if !slices.Contains([]string{BackendFile, BackendMemory, BackendRedis, BackendNone}, c.Cache.Backend) {
		return errs.New(errs.ErrCodeInvalidInput, "unknown cache backend %q", c.Cache.Backend)
	}
	if c.Cache.Backend == BackendRedis && c.Cache.RedisAddr == "" {
		return errs.New(errs.ErrCodeInvalidInput, "cache backend redis requires redis_addr")
	}
	if c.History.Limit < 0 {
		return errs.New(errs.ErrCodeInvalidInput, "history limit must not be negative")
	}
	if slices.ContainsFunc(c.Server.AllowedHosts, func(h string) bool { return strings.TrimSpace(h) == "" }) {
		return errs.New(errs.ErrCodeInvalidInput, "server allowed_hosts must not contain empty entries")
	}
	return c.Style.Validate()
}
