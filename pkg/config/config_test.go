package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/featuremap/pkg/errors"
	"github.com/matzehuels/featuremap/pkg/physics"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if cfg.Physics != physics.DefaultParams() {
		t.Error("default physics should match physics.DefaultParams")
	}
	if cfg.View.FlyDuration() != 450*time.Millisecond {
		t.Errorf("FlyDuration = %v", cfg.View.FlyDuration())
	}
	if lvl, _ := cfg.LogLevel(); lvl != log.InfoLevel {
		t.Errorf("LogLevel = %v", lvl)
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.History.Depth != 120 {
		t.Errorf("Depth = %d, want default", cfg.History.Depth)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[physics]
edge_spring_range = 4.5

[history]
depth = 10

[store]
backend = "redis"
redis_addr = "cache:6379"
cache_ttl_minutes = 5

[log]
level = "debug"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Physics.EdgeSpringRange != 4.5 {
		t.Errorf("EdgeSpringRange = %v", cfg.Physics.EdgeSpringRange)
	}
	if cfg.Physics.GroupFollow != physics.DefaultParams().GroupFollow {
		t.Error("unset keys should keep their defaults")
	}
	if cfg.History.Depth != 10 || cfg.Store.Backend != BackendRedis || cfg.Store.RedisAddr != "cache:6379" {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.Store.CacheTTL() != 5*time.Minute {
		t.Errorf("CacheTTL = %v", cfg.Store.CacheTTL())
	}
	if cfg.Store.MongoDatabase != "featuremap" {
		t.Error("untouched store keys should keep defaults")
	}
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"Syntax", "[physics\n", "read"},
		{"UnknownKey", "[view]\npick_pading = 3\n", "pick_pading"},
		{"BadBackend", "[store]\nbackend = \"s3\"\n", "store.backend"},
		{"BadDepth", "[history]\ndepth = 0\n", "history.depth"},
		{"BadLevel", "[log]\nlevel = \"loud\"\n", "log.level"},
		{"NegativePadding", "[view]\npick_padding = -1\n", "pick_padding"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Fatalf("err = %v, want INVALID_CONFIG", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Store.Backend = BackendMongo
	cfg.View.CellWidth = 10
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if *got != *cfg {
		t.Errorf("round trip mismatch:\ngot  %+v\nwant %+v", got, cfg)
	}
}

func TestPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/cfg")
	t.Setenv("XDG_DATA_HOME", "/tmp/data")
	t.Setenv("XDG_CACHE_HOME", "/tmp/cache")

	if dir, _ := Dir(); dir != filepath.Join("/tmp/cfg", AppName) {
		t.Errorf("Dir = %q", dir)
	}
	if p, _ := Path(); p != filepath.Join("/tmp/cfg", AppName, "config.toml") {
		t.Errorf("Path = %q", p)
	}
	if dir, _ := CacheDir(); dir != filepath.Join("/tmp/cache", AppName) {
		t.Errorf("CacheDir = %q", dir)
	}

	cfg := Default()
	if dir, _ := cfg.BoardDir(); dir != filepath.Join("/tmp/data", AppName, "boards") {
		t.Errorf("BoardDir = %q", dir)
	}
	cfg.Store.Dir = "/srv/boards"
	if dir, _ := cfg.BoardDir(); dir != "/srv/boards" {
		t.Errorf("BoardDir override = %q", dir)
	}
}

func TestPathsFallBackToHome(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if dir, _ := Dir(); dir != filepath.Join(home, ".config", AppName) {
		t.Errorf("Dir = %q", dir)
	}
}
