// Package duckdb provides the DuckDB driver for profiling local files and
// DuckDB databases. It registers itself with the driver registry on import.
package duckdb

import (
	"context"
	"fmt"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/johndauphine/tblprof/internal/dbconfig"
	"github.com/johndauphine/tblprof/internal/dialect"
	"github.com/johndauphine/tblprof/internal/driver"
	"github.com/johndauphine/tblprof/internal/driver/sqlexec"
)

func init() {
	driver.Register(&Driver{})
}

// Driver implements driver.Driver for DuckDB.
type Driver struct{}

// Name returns the primary driver name.
func (d *Driver) Name() string {
	return "duckdb"
}

// Aliases returns alternative names for this driver.
func (d *Driver) Aliases() []string {
	return []string{"duck"}
}

// Defaults returns the default configuration values for DuckDB.
func (d *Driver) Defaults() driver.DriverDefaults {
	return driver.DriverDefaults{
		Schema: "main",
	}
}

// Dialect returns the DuckDB dialect.
func (d *Driver) Dialect() dialect.Dialect {
	return &Dialect{}
}

// NewExecutor opens cfg.DSN, or cfg.Path, or an in-memory database.
func (d *Driver) NewExecutor(cfg *dbconfig.EngineConfig) (driver.Executor, error) {
	dsn := cfg.DSN
	if dsn == "" {
		dsn = cfg.Path
	}

	e, err := sqlexec.Open(context.Background(), sqlexec.Config{
		Engine:     d.Name(),
		DriverName: "duckdb",
		DSN:        dsn,
		MaxConns:   cfg.MaxConns,
		Settings:   cfg.Settings,
		SetStatement: func(k, v string) string {
			return fmt.Sprintf("SET %s = %s", k, sqlexec.Literal(v))
		},
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}
