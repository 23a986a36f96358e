// Package config handles loading and managing pstview configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/wesm/pstview/internal/textutil"
)

// ErrUnknownEncoding is returned when a configured encoding name cannot be
// resolved.
var ErrUnknownEncoding = textutil.ErrUnknownEncoding

// Config represents the pstview configuration.
type Config struct {
	Store  StoreConfig  `toml:"store"`
	Export ExportConfig `toml:"export"`

	// Computed paths (not from config file)
	HomeDir string `toml:"-"`
}

// StoreConfig controls how archives are parsed.
type StoreConfig struct {
	// ANSIEncoding decodes pre-Unicode string properties.
	ANSIEncoding string `toml:"ansi_encoding"`
}

// ExportConfig controls where and how exports are written.
type ExportConfig struct {
	Dir           string `toml:"dir"`
	VCardEncoding string `toml:"vcard_encoding"`
}

// DefaultHome returns the default pstview home directory.
// Respects PSTVIEW_HOME environment variable.
func DefaultHome() string {
	if h := os.Getenv("PSTVIEW_HOME"); h != "" {
		return expandPath(h)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".pstview"
	}
	return filepath.Join(home, ".pstview")
}

// NewDefaultConfig returns the configuration used when no file exists.
func NewDefaultConfig() *Config {
	return defaultsFor(DefaultHome())
}

func defaultsFor(homeDir string) *Config {
	return &Config{
		HomeDir: homeDir,
		Store: StoreConfig{
			ANSIEncoding: textutil.DefaultANSIEncoding,
		},
		Export: ExportConfig{
			Dir:           filepath.Join(homeDir, "exports"),
			VCardEncoding: "utf-8",
		},
	}
}

// Load reads the configuration. homeDir overrides the home directory (as
// --home does); path names an explicit config file, which must exist. With
// neither, <home>/config.toml is read if present.
func Load(path, homeDir string) (*Config, error) {
	explicit := path != ""
	if homeDir != "" {
		homeDir = expandPath(homeDir)
	} else if explicit {
		homeDir = filepath.Dir(expandPath(path))
	} else {
		homeDir = DefaultHome()
	}
	if !explicit {
		path = filepath.Join(homeDir, "config.toml")
	}
	path = expandPath(path)

	cfg := defaultsFor(homeDir)

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if explicit {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w%s", path, err, backslashHint(err))
	}

	cfg.Export.Dir = expandPath(cfg.Export.Dir)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks that the configured encodings resolve.
func (c *Config) Validate() error {
	if _, err := textutil.LookupEncoding(c.Store.ANSIEncoding); err != nil {
		return fmt.Errorf("store.ansi_encoding: %w", err)
	}
	if _, err := textutil.LookupEncoding(c.Export.VCardEncoding); err != nil {
		return fmt.Errorf("export.vcard_encoding: %w", err)
	}
	return nil
}

// ConfigPath returns the path of the default config file.
func (c *Config) ConfigPath() string {
	return filepath.Join(c.HomeDir, "config.toml")
}

// LogPath is where logs go while the terminal UI owns the screen.
func (c *Config) LogPath() string {
	return filepath.Join(c.HomeDir, "pstview.log")
}

// backslashHint explains the usual cause of TOML escape errors: Windows
// paths in double-quoted strings.
func backslashHint(err error) string {
	msg := err.Error()
	if !strings.Contains(msg, "escape") && !strings.Contains(msg, "hexadecimal digits") {
		return ""
	}
	return "\nhint: use forward slashes (C:/Users/me/exports) or single quotes ('C:\\Users\\me\\exports') for Windows paths"
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if path == "" {
		return path
	}
	if path == "~" || strings.HasPrefix(path, "~/") || strings.HasPrefix(path, `~\`) {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}
