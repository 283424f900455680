// Package driver provides pluggable query-execution transports.
// Each engine (Hive via beeline, Spark SQL, PostgreSQL, SQL Server, ...)
// implements the Driver interface and registers itself on import.
package driver

import (
	"github.com/johndauphine/tblprof/internal/dbconfig"
	"github.com/johndauphine/tblprof/internal/dialect"
)

// DriverDefaults contains default values for an engine.
// Used by config.applyDefaults() to fill unset connection fields.
type DriverDefaults struct {
	// Port is the default port (e.g., 10000 for HiveServer2, 5432 for PostgreSQL).
	Port int

	// Schema is the default schema or database (e.g., "default", "public", "dbo").
	Schema string

	// Binary is the default executable for command-line transports.
	Binary string
}

// Driver represents a pluggable engine: its dialect plus a way to run SQL.
//
// To add a new engine:
// 1. Create a package under internal/driver/<engine>/
// 2. Implement the Driver interface
// 3. Register via init(): driver.Register(&MyDriver{})
type Driver interface {
	// Name returns the primary driver name (e.g., "hive", "postgres").
	Name() string

	// Aliases returns alternative names for this driver.
	Aliases() []string

	// Defaults returns the default configuration values for this driver.
	Defaults() DriverDefaults

	// Dialect returns the SQL dialect for this engine.
	Dialect() dialect.Dialect

	// NewExecutor creates an Executor for this engine.
	// Returns an error wrapping apperrors.ErrToolUnavailable when the transport
	// is missing and apperrors.ErrConnectionFailure when the engine cannot be reached.
	NewExecutor(cfg *dbconfig.EngineConfig) (Executor, error)
}
