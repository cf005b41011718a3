package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/memeforge/pkg/cache"
	"github.com/matzehuels/memeforge/pkg/compose"
	"github.com/matzehuels/memeforge/pkg/config"
	"github.com/matzehuels/memeforge/pkg/fonts"
	"github.com/matzehuels/memeforge/pkg/history"
	"github.com/matzehuels/memeforge/pkg/integrations/caption"
	"github.com/matzehuels/memeforge/pkg/integrations/imgflip"
	"github.com/matzehuels/memeforge/pkg/observability"
	"github.com/matzehuels/memeforge/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "memeforge"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	cfg        *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level. Debug level also routes pipeline,
// cache and HTTP events to the logger.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
	if level <= log.DebugLevel {
		observability.NewLogHooks(c.Logger).Install()
	}
}

// config loads the configuration once per process.
func (c *CLI) config() (config.Config, error) {
	if c.cfg != nil {
		return *c.cfg, nil
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return cfg, err
	}
	c.cfg = &cfg
	return cfg, nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// runnerOpts are per-command overrides of the configured backends.
type runnerOpts struct {
	noCache   bool
	noHistory bool // in-memory history, nothing persisted
	provider  string
}

// newRunner builds a pipeline runner from the configuration. The caller
// must Close it.
func (c *CLI) newRunner(ctx context.Context, opts runnerOpts) (*pipeline.Runner, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	if opts.provider != "" {
		cfg.Caption.Provider = opts.provider
		if cfg.Caption.APIKey == "" && opts.provider == config.ProviderGemini {
			cfg.Caption.APIKey = os.Getenv(config.EnvGeminiKey)
		}
	}

	store, err := newCache(ctx, cfg.Cache, opts.noCache)
	if err != nil {
		return nil, err
	}

	hist, err := newHistory(ctx, cfg.History, opts.noHistory)
	if err != nil {
		store.Close()
		return nil, err
	}

	gen, err := newCaptions(ctx, cfg.Caption)
	if err != nil {
		store.Close()
		hist.Close()
		return nil, err
	}

	return pipeline.NewRunner(pipeline.Deps{
		Templates: imgflip.NewClient(store, cfg.Images.Endpoint, cache.TTLHTTP),
		Captions:  gen,
		Engine:    compose.NewEngine(newFonts(cfg.Fonts)),
		History:   hist,
		Cache:     store,
		Logger:    c.Logger,
	}), nil
}

// newCache opens the configured response cache, wrapped so cache events
// reach the observability hooks.
func newCache(ctx context.Context, cfg config.CacheConfig, disabled bool) (cache.Cache, error) {
	if disabled || cfg.Backend == config.BackendNone {
		return cache.NewNullCache(), nil
	}

	var (
		c   cache.Cache
		err error
	)
	switch cfg.Backend {
	case config.BackendMemory:
		size := cfg.Size
		if size <= 0 {
			size = cache.DefaultMemoryEntries
		}
		c, err = cache.NewMemoryCache(size)
	case config.BackendRedis:
		c, err = cache.NewRedisCache(ctx, cfg.RedisAddr)
	default:
		dir := cfg.Dir
		if dir == "" {
			if dir, err = cacheDir(); err != nil {
				return cache.NewNullCache(), nil
			}
		}
		c, err = cache.NewFileCache(dir)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s cache: %w", cfg.Backend, err)
	}
	return cache.NewInstrumented(cache.NewScoped(c, cfg.Prefix)), nil
}

// newHistory opens the configured history store.
func newHistory(ctx context.Context, cfg config.HistoryConfig, ephemeral bool) (history.Store, error) {
	if ephemeral {
		return history.NewMemoryStore(cfg.Limit), nil
	}
	switch cfg.Backend {
	case config.BackendMemory:
		return history.NewMemoryStore(cfg.Limit), nil
	case config.BackendRedis:
		return history.NewRedisStore(ctx, cfg.RedisAddr, cfg.Limit)
	case config.BackendMongo:
		return history.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.Limit)
	default:
		return history.NewFileStore(cfg.Dir, cfg.Limit)
	}
}

// newCaptions creates the configured caption generator.
func newCaptions(ctx context.Context, cfg config.CaptionConfig) (caption.Generator, error) {
	switch cfg.Provider {
	case config.ProviderStatic:
		return caption.NewStatic(), nil
	case config.ProviderGemini:
		return caption.NewGeminiClient(ctx, cfg.APIKey, cfg.Model)
	case config.ProviderGateway:
		return caption.NewGatewayClient(cfg.Endpoint, cfg.Model, cfg.APIKey), nil
	default:
		return nil, fmt.Errorf("unknown caption provider %q", cfg.Provider)
	}
}

// newFonts creates a font registry searching the configured directories.
func newFonts(cfg config.FontsConfig) *fonts.Registry {
	var opts []fonts.Option
	if len(cfg.Dirs) > 0 {
		opts = append(opts, fonts.WithDirs(cfg.Dirs...))
	}
	if cfg.Strict {
		opts = append(opts, fonts.WithStrict())
	}
	return fonts.NewRegistry(opts...)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/memeforge/).
func cacheDir() (string, error) {
	return config.CacheDir()
}

// =============================================================================
// Command Helpers
// =============================================================================

// withRunner builds a runner, passes it to fn and closes it afterwards.
func (c *CLI) withRunner(cmd *cobra.Command, opts runnerOpts, fn func(context.Context, *pipeline.Runner) error) error {
	ctx := withLogger(cmd.Context(), c.Logger)
	runner, err := c.newRunner(ctx, opts)
	if err != nil {
		return err
	}
	defer runner.Close()
	return fn(ctx, runner)
}
