// internal/config/model.go
//
// Typed configuration model for nymport.
//
// Context
// -------
// These structs define the tree that `loader.go` builds from three
// overlay layers:
//
//   • optional `conf/.env`                      – dotenv values,
//   • optional `conf/nymport.yaml`              – static file,
//   • `NYMPORT_`-prefixed environment overrides – highest precedence
//     (`__` maps to “.”, e.g. NYMPORT_POSTGRES__HOST → postgres.host).
//
// Every source field has a documented default so a developer can run the
// whole pipeline against local Postgres and the Firestore emulator with
// no configuration at all.  The salt default is usable only for
// development; the loader logs a warning whenever it is in effect.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`; Koanf ignores `yaml` tags.
//   • Oxford commas, two spaces after periods.

package config

import "fmt"

//
// Postgres section (source store)
//

// Postgres holds connection parameters for the legacy relational store.
// The pipeline only ever issues SELECTs against it.
type Postgres struct {
	Host     string `koanf:"host"     validate:"required"`
	Port     int    `koanf:"port"     validate:"required,min=1,max=65535"`
	User     string `koanf:"user"     validate:"required"`
	Password string `koanf:"password"`
	Database string `koanf:"database" validate:"required"`
}

// DSN renders lib/pq key-value form.  sslmode is left to the operator
// via PGSSLMODE; the default below suits local development.
func (p Postgres) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		p.Host, p.Port, p.User, p.Password, p.Database)
}

//
// Firestore section (target store)
//

// Firestore identifies the target project.  ProjectID may stay empty:
// the emulator accepts a placeholder, and production detects the project
// from the credential file.
type Firestore struct {
	ProjectID string `koanf:"project_id"`
}

//
// Migration section
//

// Migration holds pipeline tunables.  Salt accepts either a literal or a
// Vault reference of the form `vault:<mount/path>#<key>`.
type Migration struct {
	OutputDir string `koanf:"output_dir" validate:"required"`
	Salt      string `koanf:"salt"       validate:"required"`
	BatchSize int    `koanf:"batch_size" validate:"min=1,max=450"`
	PauseMS   int    `koanf:"pause_ms"   validate:"min=0"`
}

//
// Metrics section
//

// Metrics configures the optional debug listener; empty means disabled.
type Metrics struct {
	ListenAddr string `koanf:"listen_addr"`
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads.
type Config struct {
	Postgres  Postgres  `koanf:"postgres"`
	Firestore Firestore `koanf:"firestore"`
	Migration Migration `koanf:"migration"`
	Metrics   Metrics   `koanf:"metrics"`
	Paths     Paths     `koanf:"-"` // runtime only, never loaded
}

// Paths is resolved at runtime; YAML must not try to set it.
type Paths struct {
	Root string // NYMPORT_ROOT or discovered parent
}
