// Package config loads modloader settings with viper.
//
// Settings come from, in increasing priority: built-in defaults, the YAML
// config file, MODLOADER_* environment variables, and explicit overrides
// passed to Load. The config file lives in the data directory unless a path
// is given.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/roach88/modloader/internal/mod"
)

const (
	// AppName names the data directory under the user config dir.
	AppName = "modloader"

	// FileName is the config file name inside the data directory.
	FileName = "config.yaml"

	// EnvPrefix prefixes environment overrides, e.g. MODLOADER_DESTINATION_ROOT.
	EnvPrefix = "MODLOADER"

	// LocalizationDir must exist directly under a destination root.
	LocalizationDir = "localization"
)

// Config is the resolved settings snapshot.
type Config struct {
	Destination    Destination   `mapstructure:"destination" json:"destination" yaml:"destination"`
	DataDir        string        `mapstructure:"data_dir" json:"data_dir" yaml:"data_dir"`
	Store          Store         `mapstructure:"store" json:"store" yaml:"store"`
	ConfirmTimeout time.Duration `mapstructure:"confirm_timeout" json:"confirm_timeout" yaml:"confirm_timeout"`
	Workers        int           `mapstructure:"workers" json:"workers" yaml:"workers"`
}

// Destination locates the target application installation.
type Destination struct {
	Root     string `mapstructure:"root" json:"root" yaml:"root"`
	Language string `mapstructure:"language" json:"language" yaml:"language"`
}

// Store tunes the persistent store.
type Store struct {
	FlushInterval time.Duration `mapstructure:"flush_interval" json:"flush_interval" yaml:"flush_interval"`
	CacheCapacity int           `mapstructure:"cache_capacity" json:"cache_capacity" yaml:"cache_capacity"`
}

// Defaults returns the built-in settings. DataDir is left empty when the
// user config directory cannot be determined.
func Defaults() Config {
	dataDir, _ := DefaultDataDir()
	return Config{
		DataDir: dataDir,
		Store: Store{
			FlushInterval: 500 * time.Millisecond,
			CacheCapacity: 10 << 20,
		},
		ConfirmTimeout: 5 * time.Minute,
		Workers:        4,
	}
}

// DefaultDataDir is <user config dir>/modloader.
func DefaultDataDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate user config directory: %w", err)
	}
	return filepath.Join(dir, AppName), nil
}

// LoadOptions carries command-line overrides.
type LoadOptions struct {
	// ConfigFile replaces <data_dir>/config.yaml. It must exist.
	ConfigFile string

	// DataDir overrides data_dir from every other source.
	DataDir string
}

// Provider holds the loaded settings and answers destination queries.
type Provider struct {
	path string
	cfg  Config
}

// Load resolves settings. A missing default config file is not an error.
func Load(opts LoadOptions) (*Provider, error) {
	v := viper.New()

	defaults := Defaults()
	v.SetDefault("destination.root", "")
	v.SetDefault("destination.language", "")
	v.SetDefault("data_dir", defaults.DataDir)
	v.SetDefault("store.flush_interval", defaults.Store.FlushInterval)
	v.SetDefault("store.cache_capacity", defaults.Store.CacheCapacity)
	v.SetDefault("confirm_timeout", defaults.ConfirmTimeout)
	v.SetDefault("workers", defaults.Workers)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.DataDir != "" {
		v.Set("data_dir", opts.DataDir)
	}

	path := opts.ConfigFile
	if path == "" {
		dataDir := v.GetString("data_dir")
		if dataDir == "" {
			return nil, mod.ConfigError("data directory is not set", nil)
		}
		path = filepath.Join(dataDir, FileName)
	} else if !fileExists(path) {
		return nil, mod.ConfigError("config file not found", fmt.Errorf("%s", path))
	}

	if fileExists(path) {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, mod.ConfigError("read config file", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, mod.ConfigError("parse config", err)
	}
	if cfg.DataDir == "" {
		return nil, mod.ConfigError("data directory is not set", nil)
	}
	if cfg.Workers < 1 {
		return nil, mod.ConfigError(fmt.Sprintf("workers must be at least 1, got %d", cfg.Workers), nil)
	}
	if cfg.Destination.Language != "" {
		lang, err := ParseLanguage(cfg.Destination.Language)
		if err != nil {
			return nil, err
		}
		cfg.Destination.Language = lang
	}

	return &Provider{path: path, cfg: cfg}, nil
}

// Config returns the resolved settings.
func (p *Provider) Config() Config {
	return p.cfg
}

// Path is the config file read at load time and written by SetDestination.
func (p *Provider) Path() string {
	return p.path
}

// DestinationRoot returns the configured installation root, if any.
func (p *Provider) DestinationRoot() (string, bool) {
	return p.cfg.Destination.Root, p.cfg.Destination.Root != ""
}

// DestinationLanguage returns the configured language name, if any.
func (p *Provider) DestinationLanguage() (string, bool) {
	return p.cfg.Destination.Language, p.cfg.Destination.Language != ""
}

// SetDestination validates root and language and persists them to the
// config file. It reports whether the stored destination changed.
func (p *Provider) SetDestination(root, language string) (bool, error) {
	abs, err := ValidateRoot(root)
	if err != nil {
		return false, err
	}
	lang, err := ParseLanguage(language)
	if err != nil {
		return false, err
	}

	changed := abs != p.cfg.Destination.Root || lang != p.cfg.Destination.Language
	if !changed {
		return false, nil
	}

	// Only file-backed keys are written; env and flag overrides stay out.
	fv := viper.New()
	fv.SetConfigFile(p.path)
	fv.SetConfigType("yaml")
	if fileExists(p.path) {
		if err := fv.ReadInConfig(); err != nil {
			return false, mod.ConfigError("read config file", err)
		}
	}
	fv.Set("destination.root", abs)
	fv.Set("destination.language", lang)

	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return false, mod.IOError("create config directory", err)
	}
	if err := fv.WriteConfigAs(p.path); err != nil {
		return false, mod.IOError("write config file", err)
	}

	p.cfg.Destination = Destination{Root: abs, Language: lang}
	return true, nil
}

// ValidateRoot checks that root is a directory containing a localization
// directory, matched without regard to case, and returns its absolute path.
func ValidateRoot(root string) (string, error) {
	if strings.TrimSpace(root) == "" {
		return "", mod.ConfigError("destination root is empty", nil)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", mod.ConfigError("resolve destination root", err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", mod.ConfigError("destination root does not exist", fmt.Errorf("%s", abs))
		}
		return "", mod.IOError("stat destination root", err)
	}
	if !info.IsDir() {
		return "", mod.ConfigError("destination root is not a directory", fmt.Errorf("%s", abs))
	}

	entries, err := os.ReadDir(abs)
	if err != nil {
		return "", mod.IOError("read destination root", err)
	}
	for _, e := range entries {
		if e.IsDir() && strings.EqualFold(e.Name(), LocalizationDir) {
			return abs, nil
		}
	}
	return "", mod.ConfigError("destination root has no localization directory", fmt.Errorf("%s", abs))
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
