// Package spark provides the Spark SQL driver, which runs statements through
// the spark-sql command-line client.
package spark

import (
	"strings"

	"github.com/johndauphine/tblprof/internal/dbconfig"
	"github.com/johndauphine/tblprof/internal/dialect"
	"github.com/johndauphine/tblprof/internal/driver"
	"github.com/johndauphine/tblprof/internal/driver/shell"
)

func init() {
	driver.Register(&Driver{})
}

// Driver implements driver.Driver for spark-sql.
type Driver struct{}

// Name returns the primary driver name.
func (d *Driver) Name() string {
	return "spark"
}

// Aliases returns alternative names for this driver.
func (d *Driver) Aliases() []string {
	return []string{"spark-sql", "sparksql"}
}

// Defaults returns the default configuration values for Spark SQL.
func (d *Driver) Defaults() driver.DriverDefaults {
	return driver.DriverDefaults{
		Schema: "default",
		Binary: "spark-sql",
	}
}

// Dialect returns the Spark SQL dialect.
func (d *Driver) Dialect() dialect.Dialect {
	return &Dialect{}
}

// NewExecutor creates a spark-sql executor. spark-sql -S prints rows
// tab-separated, without headers unless hive.cli.print.header is set.
func (d *Driver) NewExecutor(cfg *dbconfig.EngineConfig) (driver.Executor, error) {
	binary := cfg.Binary
	if binary == "" {
		binary = d.Defaults().Binary
	}
	args := append([]string{"-S"}, cfg.Flags...)
	settings := Settings(cfg)
	e, err := shell.New(shell.Config{
		Engine:      d.Name(),
		Binary:      binary,
		BaseArgs:    args,
		SettingFlag: "--conf",
		QueryFlag:   "-e",
		Delimiter:   '\t',
		Header:      PrintsHeader(settings),
		Settings:    settings,
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Settings returns the --conf values for cfg. A configured queue maps to
// spark.yarn.queue rather than the MapReduce setting Hive uses.
func Settings(cfg *dbconfig.EngineConfig) map[string]string {
	out := make(map[string]string, len(cfg.Settings)+1)
	for k, v := range cfg.Settings {
		out[k] = v
	}
	if cfg.Queue != "" {
		if _, ok := out["spark.yarn.queue"]; !ok {
			out["spark.yarn.queue"] = cfg.Queue
		}
	}
	return out
}

// PrintsHeader reports whether spark-sql will print column headers under
// settings.
func PrintsHeader(settings map[string]string) bool {
	for _, k := range []string{"hive.cli.print.header", "spark.hadoop.hive.cli.print.header"} {
		if strings.EqualFold(strings.TrimSpace(settings[k]), "true") {
			return true
		}
	}
	return false
}
