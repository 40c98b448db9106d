// Package config loads the small YAML configuration document this
// tool needs: where to fetch the compact index from, where to cache
// it, and what tooling-version string to stamp into a written
// lockfile's BUNDLED WITH line.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk, user-editable configuration.
type Config struct {
	SourceURL   string `yaml:"source_url"`
	CacheDir    string `yaml:"cache_dir"`
	BundledWith string `yaml:"bundled_with"`
}

// Default returns the configuration used when no config file is
// present: rubygems.org as the source, the user's cache directory, and
// a fixed tooling-version string.
func Default() Config {
	cacheRoot, err := os.UserCacheDir()
	if err != nil {
		cacheRoot = os.TempDir()
	}

	return Config{
		SourceURL:   "https://rubygems.org",
		CacheDir:    filepath.Join(cacheRoot, "bundle"),
		BundledWith: "2.5.22",
	}
}

// Load reads and merges a YAML config file over Default(); a missing
// file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	} else if err != nil {
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}
