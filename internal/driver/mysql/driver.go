// Package mysql provides the MySQL/MariaDB driver implementation.
// It registers itself with the driver registry on import.
package mysql

import (
	"context"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/johndauphine/tblprof/internal/apperrors"
	"github.com/johndauphine/tblprof/internal/dbconfig"
	"github.com/johndauphine/tblprof/internal/dialect"
	"github.com/johndauphine/tblprof/internal/driver"
	"github.com/johndauphine/tblprof/internal/driver/sqlexec"
)

func init() {
	driver.Register(&Driver{})
}

// Driver implements driver.Driver for MySQL and MariaDB.
type Driver struct{}

// Name returns the primary driver name.
func (d *Driver) Name() string {
	return "mysql"
}

// Aliases returns alternative names for this driver.
func (d *Driver) Aliases() []string {
	return []string{"mariadb"}
}

// Defaults returns the default configuration values for MySQL.
func (d *Driver) Defaults() driver.DriverDefaults {
	return driver.DriverDefaults{
		Port: 3306,
	}
}

// Dialect returns the MySQL dialect.
func (d *Driver) Dialect() dialect.Dialect {
	return &Dialect{}
}

// NewExecutor opens a go-sql-driver/mysql pool.
func (d *Driver) NewExecutor(cfg *dbconfig.EngineConfig) (driver.Executor, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("%w: mysql requires a dsn or host", apperrors.ErrInvalidArguments)
	}
	e, err := sqlexec.Open(context.Background(), sqlexec.Config{
		Engine:          d.Name(),
		DriverName:      "mysql",
		DSN:             cfg.DSN,
		MaxConns:        cfg.MaxConns,
		ConnMaxLifetime: 30 * time.Minute,
		Settings:        cfg.Settings,
		SetStatement: func(k, v string) string {
			return fmt.Sprintf("SET SESSION %s = %s", k, sqlexec.Literal(v))
		},
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}
