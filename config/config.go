// Package config loads polyglot settings from .polyglot.yaml and the
// environment.
//
// Precedence, lowest first: built-in defaults, the YAML file, POLYGLOT_*
// environment variables. The CLI applies its flags on top.
//
// Example .polyglot.yaml:
//
//	root: /srv/polyglot
//	manifest_url: https://example.org/dictionaries/manifest.json
//	mirror_from: https://raw.githubusercontent.com/
//	mirror_to: https://raw.gitmirror.com/
//	timeout: 10s
//	refresh_interval: 6h
//	locale: de
//	log_level: debug
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// FileName is the default config file name.
const FileName = ".polyglot.yaml"

// EnvPrefix prefixes every environment variable.
const EnvPrefix = "POLYGLOT_"

const dataDirName = "polyglot"

// Defaults.
const (
	DefaultManifestURL = "https://raw.githubusercontent.com/minios-linux/polyglot-dictionaries/main/manifest.json"
	DefaultMirrorFrom  = "https://raw.githubusercontent.com/"
	DefaultMirrorTo    = "https://raw.gitmirror.com/"
	DefaultTimeout     = 30 * time.Second
	DefaultLogLevel    = "info"
	DefaultWorkers     = 4
)

// Config holds the resolved settings.
type Config struct {
	// Root is the storage root: a directory or a blob URL (file://, mem://).
	Root string `yaml:"root" env:"ROOT"`
	// ManifestURL is the remote catalog location. Empty disables the catalog.
	ManifestURL string `yaml:"manifest_url" env:"MANIFEST_URL"`
	// MirrorFrom/MirrorTo rewrite catalog download URLs by prefix.
	MirrorFrom string `yaml:"mirror_from" env:"MIRROR_FROM"`
	MirrorTo   string `yaml:"mirror_to"   env:"MIRROR_TO"`
	// Proxy overrides HTTP_PROXY/HTTPS_PROXY for catalog requests.
	Proxy   string        `yaml:"proxy"   env:"PROXY"`
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
	// RefreshInterval enables periodic catalog refresh when positive.
	RefreshInterval time.Duration `yaml:"refresh_interval" env:"REFRESH_INTERVAL"`
	// Locale is the preferred global locale; empty keeps base locales.
	Locale   string `yaml:"locale"    env:"LOCALE"`
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL"`
	// Workers bounds parallel downloads.
	Workers int `yaml:"workers" env:"WORKERS"`

	// path is the config file that was read, if any.
	path string
}

// Default returns the built-in configuration.
func Default() Config {
	root, err := DataDir()
	if err != nil {
		root = dataDirName
	}
	return Config{
		Root:        root,
		ManifestURL: DefaultManifestURL,
		MirrorFrom:  DefaultMirrorFrom,
		MirrorTo:    DefaultMirrorTo,
		Timeout:     DefaultTimeout,
		LogLevel:    DefaultLogLevel,
		Workers:     DefaultWorkers,
	}
}

// DataDir returns the XDG data directory for polyglot:
// $XDG_DATA_HOME/polyglot, falling back to ~/.local/share/polyglot.
func DataDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, dataDirName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", dataDirName), nil
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads dir/.polyglot.yaml when present, then the environment, and
// validates the result.
func Load(dir string) (Config, error) {
	return LoadFile(filepath.Join(dir, FileName), true)
}

// LoadFile is Load for an explicit file. With optional set, a missing file
// is not an error.
func LoadFile(path string, optional bool) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing %s: %w", path, err)
		}
		cfg.path = path
	case errors.Is(err, os.ErrNotExist) && optional:
	default:
		return Config{}, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("reading environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		if cfg.path != "" {
			return Config{}, fmt.Errorf("%s: %w", cfg.path, err)
		}
		return Config{}, err
	}
	return cfg, nil
}

// Path returns the config file that was read, or "".
func (c Config) Path() string { return c.path }

// Validate checks the settings for consistency.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Root) == "" {
		return fmt.Errorf("root must not be empty")
	}
	if c.ManifestURL != "" {
		if err := checkHTTPURL(c.ManifestURL); err != nil {
			return fmt.Errorf("manifest_url: %w", err)
		}
	}
	if (c.MirrorFrom == "") != (c.MirrorTo == "") {
		return fmt.Errorf("mirror_from and mirror_to must be set together")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	if c.RefreshInterval < 0 {
		return fmt.Errorf("refresh_interval must not be negative")
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1")
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

func checkHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%q is not an http(s) URL", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%q has no host", raw)
	}
	return nil
}

// SlogLevel parses LogLevel ("debug", "info", "warn", "error").
func (c Config) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return lvl, nil
}
