// Package config loads featuremap's TOML configuration.
//
// The file lives at $XDG_CONFIG_HOME/featuremap/config.toml (falling back to
// ~/.config/featuremap/config.toml). Every key is optional; a missing file
// yields [Default]. Unknown keys are rejected so typos do not go unnoticed.
//
//	[physics]
//	group_follow = 0.0001
//	edge_spring_range = 6.0
//
//	[history]
//	depth = 120
//
//	[store]
//	backend = "redis"
//	redis_addr = "localhost:6379"
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	ferrors "github.com/matzehuels/featuremap/pkg/errors"
	"github.com/matzehuels/featuremap/pkg/history"
	"github.com/matzehuels/featuremap/pkg/physics"
	"github.com/matzehuels/featuremap/pkg/pick"
	"github.com/matzehuels/featuremap/pkg/viewport"
)

// Store backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendMongo = "mongo"
)

// Config is the complete configuration.
type Config struct {
	Physics physics.Params `toml:"physics"`
	History HistoryConfig  `toml:"history"`
	View    ViewConfig     `toml:"view"`
	Store   StoreConfig    `toml:"store"`
	Log     LogConfig      `toml:"log"`
}

// HistoryConfig bounds the undo stack.
type HistoryConfig struct {
	Depth int `toml:"depth"`
}

// ViewConfig tunes interaction and the terminal renderer.
type ViewConfig struct {
	// PickPadding is added around feature circles when picking, in pixels.
	PickPadding float64 `toml:"pick_padding"`
	// FlyDurationMS is the length of camera fly-to animations.
	FlyDurationMS int `toml:"fly_duration_ms"`
	// CellWidth and CellHeight are the pixel size of one terminal cell.
	CellWidth  float64 `toml:"cell_width"`
	CellHeight float64 `toml:"cell_height"`
}

// FlyDuration returns FlyDurationMS as a duration.
func (v ViewConfig) FlyDuration() time.Duration {
	return time.Duration(v.FlyDurationMS) * time.Millisecond
}

// StoreConfig selects and configures the board store.
type StoreConfig struct {
	Backend string `toml:"backend"`

	// Dir overrides the board directory of the file backend.
	Dir string `toml:"dir"`

	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
	RedisPrefix   string `toml:"redis_prefix"`

	MongoURI        string `toml:"mongo_uri"`
	MongoDatabase   string `toml:"mongo_database"`
	MongoCollection string `toml:"mongo_collection"`

	// CacheTTLMinutes is the lifetime of rendered SVG artifacts. 0 keeps
	// them until the board changes.
	CacheTTLMinutes int `toml:"cache_ttl_minutes"`
}

// CacheTTL returns CacheTTLMinutes as a duration.
func (s StoreConfig) CacheTTL() time.Duration {
	return time.Duration(s.CacheTTLMinutes) * time.Minute
}

// LogConfig sets the default log level. --verbose overrides it.
type LogConfig struct {
	Level string `toml:"level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Physics: physics.DefaultParams(),
		History: HistoryConfig{Depth: history.DefaultDepth},
		View: ViewConfig{
			PickPadding:   pick.DefaultPadding,
			FlyDurationMS: int(viewport.DefaultFlyDuration / time.Millisecond),
			CellWidth:     8,
			CellHeight:    16,
		},
		Store: StoreConfig{
			Backend:         BackendFile,
			RedisAddr:       "localhost:6379",
			RedisPrefix:     "featuremap:",
			MongoURI:        "mongodb://localhost:27017",
			MongoDatabase:   "featuremap",
			MongoCollection: "boards",
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads the configuration at path on top of [Default]. An empty path
// selects [Path]. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		p, err := Path()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	md, err := toml.DecodeFile(path, cfg)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, ferrors.Wrap(ferrors.ErrCodeInvalidConfig, err, "read %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, ferrors.New(ferrors.ErrCodeInvalidConfig, "%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to path, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := toml.NewEncoder(f).Encode(c); err != nil {
		f.Close()
		return fmt.Errorf("encode: %w", err)
	}
	return f.Close()
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	p := c.Physics
	switch {
	case p.GroupFollow < 0 || p.GroupFollow > 1:
		return invalid("physics.group_follow must be in [0, 1]")
	case p.FeatureCohesion < 0 || p.FeatureCohesion > 1:
		return invalid("physics.feature_cohesion must be in [0, 1]")
	case p.EdgeSpringK < 0 || p.EdgeSpringK > 1:
		return invalid("physics.edge_spring_k must be in [0, 1]")
	case p.EdgeSpringRange <= 0:
		return invalid("physics.edge_spring_range must be positive")
	case p.MaxStep < 0:
		return invalid("physics.max_step must not be negative")
	}
	if c.History.Depth < 1 {
		return invalid("history.depth must be at least 1")
	}
	if c.View.PickPadding < 0 {
		return invalid("view.pick_padding must not be negative")
	}
	if c.View.FlyDurationMS < 1 {
		return invalid("view.fly_duration_ms must be positive")
	}
	if c.View.CellWidth <= 0 || c.View.CellHeight <= 0 {
		return invalid("view.cell_width and view.cell_height must be positive")
	}
	switch c.Store.Backend {
	case BackendFile, BackendRedis, BackendMongo:
	default:
		return invalid("store.backend must be one of file, redis, mongo; got %q", c.Store.Backend)
	}
	if c.Store.CacheTTLMinutes < 0 {
		return invalid("store.cache_ttl_minutes must not be negative")
	}
	if _, err := c.LogLevel(); err != nil {
		return invalid("log.level: %v", err)
	}
	return nil
}

// LogLevel parses Log.Level.
func (c *Config) LogLevel() (log.Level, error) {
	return log.ParseLevel(c.Log.Level)
}

func invalid(format string, args ...any) error {
	return ferrors.New(ferrors.ErrCodeInvalidConfig, format, args...)
}
