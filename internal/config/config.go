package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/nikbrunner/bmpop/internal/storage"
)

// listenPattern accepts "host:port", "[::1]:port" and ":port".
var listenPattern = regexp.MustCompile(`^(\[[0-9a-fA-F:]+\]|[A-Za-z0-9.\-]*):[0-9]{1,5}$`)

// Config holds application configuration.
type Config struct {
	Backend string        `yaml:"backend"` // chrome | sqlite | redis
	Chrome  ChromeConfig  `yaml:"chrome"`
	SQLite  SQLiteConfig  `yaml:"sqlite"`
	Redis   RedisConfig   `yaml:"redis"`
	Log     LogConfig     `yaml:"log"`
	Server  ServerConfig  `yaml:"server"`
	Watch   bool          `yaml:"watch"`   // refresh when the store file changes
	Timeout time.Duration `yaml:"timeout"` // per store operation
}

type ChromeConfig struct {
	Path string `yaml:"path"` // Bookmarks file of the profile
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

type LogConfig struct {
	Level  string `yaml:"level"` // debug | info | warn | error
	File   string `yaml:"file"`
	Pretty bool   `yaml:"pretty"`
}

type ServerConfig struct {
	Listen string `yaml:"listen"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	dir := Dir()
	chromePath, _ := storage.DefaultChromePath()
	return Config{
		Backend: storage.BackendSQLite,
		Chrome:  ChromeConfig{Path: chromePath},
		SQLite:  SQLiteConfig{Path: filepath.Join(dir, "bookmarks.db")},
		Redis: RedisConfig{
			Addr:   "localhost:6379",
			Prefix: "bmpop",
		},
		Log: LogConfig{
			Level: "info",
			File:  filepath.Join(dir, "bmpop.log"),
		},
		Server:  ServerConfig{Listen: "127.0.0.1:8787"},
		Watch:   true,
		Timeout: 10 * time.Second,
	}
}

// Dir returns the config directory: ~/.config/bmpop
func Dir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".bmpop"
	}
	return filepath.Join(homeDir, ".config", "bmpop")
}

// DefaultPath returns the config file path. BMPOP_CONFIG overrides
// ~/.config/bmpop/config.yaml.
func DefaultPath() string {
	if p := os.Getenv("BMPOP_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(Dir(), "config.yaml")
}

// Load reads config from the YAML file, applies BMPOP_* environment
// overrides and validates the result. Creates the file with defaults if it
// doesn't exist.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// Non-fatal: keep defaults even if the file can't be written
		_ = Save(path, &cfg)
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		// Fields missing from the file keep their defaults.
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}

	cfg.Chrome.Path = expandHome(cfg.Chrome.Path)
	cfg.SQLite.Path = expandHome(cfg.SQLite.Path)
	cfg.Log.File = expandHome(cfg.Log.File)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Save writes config to the YAML file.
// Creates the directory if it doesn't exist.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// Validate checks that the selected backend is fully configured.
func (c Config) Validate() error {
	is := func(backend string) bool { return c.Backend == backend }

	return validation.Errors{
		"backend": validation.Validate(c.Backend,
			validation.Required,
			validation.In(storage.BackendChrome, storage.BackendSQLite, storage.BackendRedis),
		),
		"chrome.path": validation.Validate(c.Chrome.Path,
			validation.When(is(storage.BackendChrome), validation.Required),
		),
		"sqlite.path": validation.Validate(c.SQLite.Path,
			validation.When(is(storage.BackendSQLite), validation.Required),
		),
		"redis.addr": validation.Validate(c.Redis.Addr,
			validation.When(is(storage.BackendRedis), validation.Required),
		),
		"redis.db":  validation.Validate(c.Redis.DB, validation.Min(0)),
		"log.level": validation.Validate(c.Log.Level, validation.Required, validation.In("debug", "info", "warn", "error")),
		"server.listen": validation.Validate(c.Server.Listen,
			validation.Required,
			validation.Match(listenPattern).Error("must be host:port"),
		),
		"timeout": validation.Validate(c.Timeout, validation.Required, validation.Min(100*time.Millisecond)),
	}.Filter()
}

// StorageOptions returns the options for storage.Open.
func (c Config) StorageOptions() storage.Options {
	return storage.Options{
		Backend:    c.Backend,
		ChromePath: c.Chrome.Path,
		SQLitePath: c.SQLite.Path,
		Redis: storage.RedisOptions{
			Addr:        c.Redis.Addr,
			Username:    c.Redis.Username,
			Password:    c.Redis.Password,
			DB:          c.Redis.DB,
			Prefix:      c.Redis.Prefix,
			DialTimeout: c.Timeout,
		},
	}
}

// WatchPath returns the file to watch for external changes, or "" when the
// backend has none.
func (c Config) WatchPath() string {
	if !c.Watch {
		return ""
	}
	switch c.Backend {
	case storage.BackendChrome:
		return c.Chrome.Path
	case storage.BackendSQLite:
		return c.SQLite.Path
	}
	return ""
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(homeDir, strings.TrimPrefix(path, "~"))
}

// applyEnv overrides cfg with BMPOP_* variables.
func applyEnv(cfg *Config) error {
	cfg.Backend = getenv("BMPOP_BACKEND", cfg.Backend)
	cfg.Chrome.Path = getenv("BMPOP_CHROME_PATH", cfg.Chrome.Path)
	cfg.SQLite.Path = getenv("BMPOP_SQLITE_PATH", cfg.SQLite.Path)
	cfg.Redis.Addr = getenv("BMPOP_REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Username = getenv("BMPOP_REDIS_USERNAME", cfg.Redis.Username)
	cfg.Redis.Password = getenv("BMPOP_REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.Prefix = getenv("BMPOP_REDIS_PREFIX", cfg.Redis.Prefix)
	cfg.Log.Level = getenv("BMPOP_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.File = getenv("BMPOP_LOG_FILE", cfg.Log.File)
	cfg.Server.Listen = getenv("BMPOP_LISTEN", cfg.Server.Listen)

	var err error
	if cfg.Redis.DB, err = getenvInt("BMPOP_REDIS_DB", cfg.Redis.DB); err != nil {
		return err
	}
	if cfg.Log.Pretty, err = getenvBool("BMPOP_LOG_PRETTY", cfg.Log.Pretty); err != nil {
		return err
	}
	if cfg.Watch, err = getenvBool("BMPOP_WATCH", cfg.Watch); err != nil {
		return err
	}
	if cfg.Timeout, err = getenvDuration("BMPOP_TIMEOUT", cfg.Timeout); err != nil {
		return err
	}
	return nil
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("invalid integer value for %s: %q", key, v)
	}
	return i, nil
}

func getenvBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, fmt.Errorf("invalid boolean value for %s: %q", key, v)
	}
	return b, nil
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def, fmt.Errorf("invalid duration value for %s: %q", key, v)
	}
	return d, nil
}
