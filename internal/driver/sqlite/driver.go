// Package sqlite provides the SQLite driver, backed by the pure-Go
// modernc.org/sqlite. It registers itself with the driver registry on import.
package sqlite

import (
	"context"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/johndauphine/tblprof/internal/dbconfig"
	"github.com/johndauphine/tblprof/internal/dialect"
	"github.com/johndauphine/tblprof/internal/driver"
	"github.com/johndauphine/tblprof/internal/driver/sqlexec"
)

func init() {
	driver.Register(&Driver{})
}

// Driver implements driver.Driver for SQLite database files.
type Driver struct{}

// Name returns the primary driver name.
func (d *Driver) Name() string {
	return "sqlite"
}

// Aliases returns alternative names for this driver.
func (d *Driver) Aliases() []string {
	return []string{"sqlite3"}
}

// Defaults returns the default configuration values for SQLite.
func (d *Driver) Defaults() driver.DriverDefaults {
	return driver.DriverDefaults{
		Schema: "main",
	}
}

// Dialect returns the SQLite dialect.
func (d *Driver) Dialect() dialect.Dialect {
	return &Dialect{}
}

// NewExecutor opens cfg.DSN, or cfg.Path, or an in-memory database.
// In-memory databases live on a single connection that is never recycled.
func (d *Driver) NewExecutor(cfg *dbconfig.EngineConfig) (driver.Executor, error) {
	dsn := cfg.DSN
	if dsn == "" {
		dsn = cfg.Path
	}
	maxConns := cfg.MaxConns
	if dsn == "" || dsn == ":memory:" {
		dsn = ":memory:"
		maxConns = 1
	}

	e, err := sqlexec.Open(context.Background(), sqlexec.Config{
		Engine:     d.Name(),
		DriverName: "sqlite",
		DSN:        dsn,
		MaxConns:   maxConns,
		Settings:   cfg.Settings,
		SetStatement: func(k, v string) string {
			return fmt.Sprintf("PRAGMA %s = %s", k, sqlexec.Literal(v))
		},
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}
