// Package postgres provides the PostgreSQL driver implementation.
// It registers itself with the driver registry on import.
package postgres

import (
	"context"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/johndauphine/tblprof/internal/apperrors"
	"github.com/johndauphine/tblprof/internal/dbconfig"
	"github.com/johndauphine/tblprof/internal/dialect"
	"github.com/johndauphine/tblprof/internal/driver"
	"github.com/johndauphine/tblprof/internal/driver/sqlexec"
)

func init() {
	driver.Register(&Driver{})
}

// Driver implements driver.Driver for PostgreSQL databases.
type Driver struct{}

// Name returns the primary driver name.
func (d *Driver) Name() string {
	return "postgres"
}

// Aliases returns alternative names for this driver.
func (d *Driver) Aliases() []string {
	return []string{"postgresql", "pg"}
}

// Defaults returns the default configuration values for PostgreSQL.
func (d *Driver) Defaults() driver.DriverDefaults {
	return driver.DriverDefaults{
		Port:   5432,
		Schema: "public",
	}
}

// Dialect returns the PostgreSQL dialect.
func (d *Driver) Dialect() dialect.Dialect {
	return &Dialect{}
}

// NewExecutor opens a pgx-backed pool. cfg.DSN must be set; config builds it
// from host, port and credentials.
func (d *Driver) NewExecutor(cfg *dbconfig.EngineConfig) (driver.Executor, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("%w: postgres requires a dsn or host", apperrors.ErrInvalidArguments)
	}
	e, err := sqlexec.Open(context.Background(), sqlexec.Config{
		Engine:          d.Name(),
		DriverName:      "pgx",
		DSN:             cfg.DSN,
		MaxConns:        cfg.MaxConns,
		ConnMaxLifetime: 30 * time.Minute,
		Settings:        cfg.Settings,
		SetStatement: func(k, v string) string {
			return fmt.Sprintf("SET %s = %s", k, sqlexec.Literal(v))
		},
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}
