package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/spf13/afero"
)

// Config represents the optional ferry configuration file.
type Config struct {
	Defaults DefaultsConfig `toml:"defaults"`
}

// DefaultsConfig holds persistent flag defaults. Unset keys stay nil so the
// caller can tell them apart from explicit zero values.
type DefaultsConfig struct {
	Preserve      *bool   `toml:"preserve"`
	Verify        *bool   `toml:"verify"`
	Interruptible *bool   `toml:"interruptible"`
	IOURing       *bool   `toml:"iouring"`
	Sparse        *bool   `toml:"sparse"`
	BWLimit       *string `toml:"bwlimit"`
	Jobs          *int    `toml:"jobs"`
	LogLevel      *string `toml:"log_level"`
}

// Path returns the resolved path to the config file.
func Path() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "ferry", "config.toml")
}

// Load reads the config file at the XDG path from the OS filesystem.
func Load() (Config, error) {
	return LoadFrom(afero.NewOsFs(), Path())
}

// LoadFrom reads the config file at path from fsys. Returns a zero Config
// (no error) if path is empty or the file does not exist.
func LoadFrom(fsys afero.Fs, path string) (Config, error) {
	if path == "" {
		return Config{}, nil
	}

	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, nil
		}
		return Config{}, err
	}

	var cfg Config
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("parse %s: unknown key %q", path, undecoded[0].String())
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	d := c.Defaults
	if d.Jobs != nil && *d.Jobs < 1 {
		return fmt.Errorf("defaults.jobs must be at least 1, got %d", *d.Jobs)
	}
	if d.BWLimit != nil {
		if _, err := ParseSize(*d.BWLimit); err != nil {
			return fmt.Errorf("defaults.bwlimit: %w", err)
		}
	}
	if d.LogLevel != nil {
		switch *d.LogLevel {
		case "debug", "info", "warn", "error":
		default:
			return fmt.Errorf("defaults.log_level: unknown level %q", *d.LogLevel)
		}
	}
	return nil
}

// Values flattens the set keys into a map keyed by CLI flag name, for use
// as settings defaults.
func (c Config) Values() map[string]any {
	d := c.Defaults
	m := make(map[string]any)
	if d.Preserve != nil {
		m["preserve"] = *d.Preserve
	}
	if d.Verify != nil {
		m["verify"] = *d.Verify
	}
	if d.Interruptible != nil {
		m["interruptible"] = *d.Interruptible
	}
	if d.IOURing != nil {
		m["iouring"] = *d.IOURing
	}
	if d.Sparse != nil {
		m["sparse"] = *d.Sparse
	}
	if d.BWLimit != nil {
		m["bwlimit"] = *d.BWLimit
	}
	if d.Jobs != nil {
		m["jobs"] = *d.Jobs
	}
	if d.LogLevel != nil {
		m["log-level"] = *d.LogLevel
	}
	return m
}
