package orchestrator

// Engine drivers register themselves with the driver registry on import.
import (
	_ "github.com/johndauphine/tblprof/internal/driver/duckdb"
	_ "github.com/johndauphine/tblprof/internal/driver/hive"
	_ "github.com/johndauphine/tblprof/internal/driver/mssql"
	_ "github.com/johndauphine/tblprof/internal/driver/mysql"
	_ "github.com/johndauphine/tblprof/internal/driver/postgres"
	_ "github.com/johndauphine/tblprof/internal/driver/spark"
	_ "github.com/johndauphine/tblprof/internal/driver/sqlite"
)
