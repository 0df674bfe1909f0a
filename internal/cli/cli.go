// Package cli implements the featuremap command-line interface.
package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/matzehuels/featuremap/pkg/buildinfo"
	"github.com/matzehuels/featuremap/pkg/cache"
	"github.com/matzehuels/featuremap/pkg/config"
	ferrors "github.com/matzehuels/featuremap/pkg/errors"
	"github.com/matzehuels/featuremap/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = config.AppName

	// artifactPrefix namespaces rendered exports in a shared Redis.
	artifactPrefix = "featuremap:artifact:"
)

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

	// configPath is set by --config. Empty selects config.Path().
	configPath string
	verbose    bool

	// openStore is replaced in tests.
	openStore func(ctx context.Context, cfg *config.Config) (store.Store, error)
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger:    newLogger(w, level),
		openStore: store.Open,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// PrintError reports a failed command on w without the error code prefix.
func PrintError(w io.Writer, err error) {
	printError(w, "%s", ferrors.UserMessage(err))
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "featuremap",
		Short:         "Featuremap edits node-link maps of groups and features",
		Long:          `Featuremap is an interactive editor for node-link diagrams of feature groups, their features and the links between them. Boards are stored locally, in Redis or in MongoDB, and can be exported as JSON, DOT or SVG.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			level, _ := cfg.LogLevel()
			if c.verbose {
				level = LogDebug
			}
			c.SetLogLevel(level)
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/featuremap/config.toml)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(c.editCommand())
	root.AddCommand(c.importCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.boardsCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Shared Resources
// =============================================================================

// loadConfig reads the configuration selected by --config.
func (c *CLI) loadConfig() (*config.Config, error) {
	return config.Load(c.configPath)
}

// boards loads the configuration and opens the configured board store.
func (c *CLI) boards(ctx context.Context) (*config.Config, store.Store, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	s, err := c.openStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	c.Logger.Debug("store opened", "backend", store.Backend(s))
	return cfg, s, nil
}

// newCache opens the artifact cache. Deployments on the Redis backend share
// rendered exports through the same Redis; everything else uses the user
// cache directory. Failures degrade to a NullCache.
func (c *CLI) newCache(ctx context.Context, cfg *config.Config, noCache bool) cache.Cache {
	if noCache {
		return cache.NewNullCache()
	}
	if cfg.Store.Backend == config.BackendRedis {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Store.RedisAddr,
			Password: cfg.Store.RedisPassword,
			DB:       cfg.Store.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err == nil {
			return cache.NewRedisCache(client, artifactPrefix)
		}
		c.Logger.Warn("redis cache unavailable, using local cache", "addr", cfg.Store.RedisAddr)
		_ = client.Close()
	}
	dir, err := config.CacheDir()
	if err != nil {
		return cache.NewNullCache()
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		c.Logger.Warn("file cache unavailable", "dir", dir, "err", err)
		return cache.NewNullCache()
	}
	return fc
}
