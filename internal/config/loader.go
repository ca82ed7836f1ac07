// internal/config/loader.go
//
// Configuration loader.
//
// Context
// -------
// `Load()` builds one immutable `Config` from three layers (highest
// precedence last): defaults baked in below, an optional
// `conf/nymport.yaml`, and `NYMPORT_`-prefixed environment variables
// (`__` maps to “.”).  An optional `conf/.env` is read first so a
// developer checkout can keep the Postgres password out of the shell.
//
// A missing YAML file is not an error; the defaults run the pipeline
// against local Postgres and the Firestore emulator.  Missing or
// malformed required fields abort before any I/O happens.
//
// The dev salt deserves a loud warning: identities derived with it are
// throwaway, and importing them into production would be irreversible.

package config

import (
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

// DevSalt is the documented development-only fallback for the identity
// salt.  Never acceptable for a prod target.
const DevSalt = "dev-salt"

var current atomic.Pointer[Config]

/*──────────────────────────── root discovery ───────────────────────────*/

// rootDir resolves NYMPORT_ROOT or climbs directories until a conf/
// directory is found; a bare checkout with no conf/ falls back to the
// working directory.
func rootDir() string {
	if r := os.Getenv("NYMPORT_ROOT"); r != "" {
		return r
	}
	wd, _ := os.Getwd()
	dir := wd
	for {
		if fi, err := os.Stat(filepath.Join(dir, "conf")); err == nil && fi.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return wd
		}
		dir = parent
	}
}

/*─────────────────────────────── loader ───────────────────────────────*/

// Load reads .env, YAML, and env overrides, applies defaults, validates,
// and caches the result.
func Load() (*Config, error) {
	root := rootDir()

	// .env (optional, no error if missing).
	_ = godotenv.Load(filepath.Join(root, "conf", ".env"))

	k := koanf.New(".")

	yamlPath := filepath.Join(root, "conf", "nymport.yaml")
	if _, err := os.Stat(yamlPath); err == nil {
		if err := k.Load(file.Provider(yamlPath), yaml.Parser()); err != nil {
			zap.S().Errorw("config yaml load failed", "file", yamlPath, "err", err)
			return nil, err
		}
	}

	// Env overrides: NYMPORT_POSTGRES__HOST → postgres.host.
	if err := k.Load(env.Provider("NYMPORT_", ".", func(s string) string {
		return strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(s, "NYMPORT_"), "__", "."))
	}), nil); err != nil {
		zap.S().Errorw("config env overlay failed", "err", err)
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		zap.S().Errorw("config unmarshal failed", "err", err)
		return nil, err
	}

	applyDefaults(&cfg, root)
	cfg.Paths.Root = root

	if err := validateStruct(&cfg); err != nil {
		zap.S().Errorw("config validation failed", "err", err)
		return nil, err
	}

	if cfg.Migration.Salt == DevSalt {
		zap.S().Warnw("using development identity salt; derived identities are throwaway")
	}

	current.Store(&cfg)
	zap.S().Infow("config loaded",
		"pg_host", cfg.Postgres.Host,
		"pg_database", cfg.Postgres.Database,
		"output_dir", cfg.Migration.OutputDir,
		"batch_size", cfg.Migration.BatchSize,
	)
	return &cfg, nil
}

// applyDefaults documents every fallback in one place.
func applyDefaults(c *Config, root string) {
	if c.Postgres.Host == "" {
		c.Postgres.Host = "localhost"
	}
	if c.Postgres.Port == 0 {
		c.Postgres.Port = 5432
	}
	if c.Postgres.User == "" {
		c.Postgres.User = "postgres"
	}
	if c.Postgres.Password == "" {
		c.Postgres.Password = "postgres"
	}
	if c.Postgres.Database == "" {
		c.Postgres.Database = "threads_development"
	}
	if c.Migration.OutputDir == "" {
		c.Migration.OutputDir = filepath.Join(root, "out")
	}
	if c.Migration.Salt == "" {
		c.Migration.Salt = DevSalt
	}
	if c.Migration.BatchSize == 0 {
		c.Migration.BatchSize = 450
	}
	if c.Migration.PauseMS == 0 {
		c.Migration.PauseMS = 50
	}
}

/*──────────────────────────── helpers ─────────────────────────────────*/

func Get() *Config { return current.Load() }
