// Package mssql provides the SQL Server driver implementation.
// It registers itself with the driver registry on import.
package mssql

import (
	"context"
	"fmt"
	"time"

	_ "github.com/microsoft/go-mssqldb"

	"github.com/johndauphine/tblprof/internal/apperrors"
	"github.com/johndauphine/tblprof/internal/dbconfig"
	"github.com/johndauphine/tblprof/internal/dialect"
	"github.com/johndauphine/tblprof/internal/driver"
	"github.com/johndauphine/tblprof/internal/driver/sqlexec"
)

func init() {
	driver.Register(&Driver{})
}

// Driver implements driver.Driver for SQL Server databases.
type Driver struct{}

// Name returns the primary driver name.
func (d *Driver) Name() string {
	return "mssql"
}

// Aliases returns alternative names for this driver.
func (d *Driver) Aliases() []string {
	return []string{"sqlserver", "sql-server"}
}

// Defaults returns the default configuration values for SQL Server.
func (d *Driver) Defaults() driver.DriverDefaults {
	return driver.DriverDefaults{
		Port:   1433,
		Schema: "dbo",
	}
}

// Dialect returns the T-SQL dialect.
func (d *Driver) Dialect() dialect.Dialect {
	return &Dialect{}
}

// NewExecutor opens a go-mssqldb pool. Settings are issued as
// "SET <option> <value>" (e.g. LOCK_TIMEOUT 5000).
func (d *Driver) NewExecutor(cfg *dbconfig.EngineConfig) (driver.Executor, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("%w: mssql requires a dsn or host", apperrors.ErrInvalidArguments)
	}
	e, err := sqlexec.Open(context.Background(), sqlexec.Config{
		Engine:          d.Name(),
		DriverName:      "sqlserver",
		DSN:             cfg.DSN,
		MaxConns:        cfg.MaxConns,
		ConnMaxLifetime: 30 * time.Minute,
		Settings:        cfg.Settings,
		SetStatement: func(k, v string) string {
			return fmt.Sprintf("SET %s %s", k, v)
		},
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}
