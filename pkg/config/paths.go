package config

import (
	"os"
	"path/filepath"
)

// AppName names the per-user directories.
const AppName = "featuremap"

// Dir returns the configuration directory ($XDG_CONFIG_HOME/featuremap or
// ~/.config/featuremap).
func Dir() (string, error) {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// Path returns the default configuration file.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// DataDir returns the data directory ($XDG_DATA_HOME/featuremap or
// ~/.local/share/featuremap). The file store keeps boards below it.
func DataDir() (string, error) {
	return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

// CacheDir returns the cache directory ($XDG_CACHE_HOME/featuremap or
// ~/.cache/featuremap).
func CacheDir() (string, error) {
	return xdgDir("XDG_CACHE_HOME", ".cache")
}

// BoardDir returns the directory of the file store: Store.Dir when set,
// otherwise DataDir()/boards.
func (c *Config) BoardDir() (string, error) {
	if c.Store.Dir != "" {
		return c.Store.Dir, nil
	}
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "boards"), nil
}

func xdgDir(env, fallback string) (string, error) {
	if base := os.Getenv(env); base != "" {
		return filepath.Join(base, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, fallback, AppName), nil
}
