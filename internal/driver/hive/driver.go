// Package hive provides the Hive driver, which runs HiveQL through beeline.
// It registers itself with the driver registry on import.
package hive

import (
	"fmt"
	"strings"

	"github.com/johndauphine/tblprof/internal/dbconfig"
	"github.com/johndauphine/tblprof/internal/dialect"
	"github.com/johndauphine/tblprof/internal/driver"
	"github.com/johndauphine/tblprof/internal/driver/shell"
)

func init() {
	driver.Register(&Driver{})
}

// Driver implements driver.Driver for HiveServer2 via beeline.
type Driver struct{}

// Name returns the primary driver name.
func (d *Driver) Name() string {
	return "hive"
}

// Aliases returns alternative names for this driver.
func (d *Driver) Aliases() []string {
	return []string{"beeline", "hiveserver2"}
}

// Defaults returns the default configuration values for Hive.
func (d *Driver) Defaults() driver.DriverDefaults {
	return driver.DriverDefaults{
		Port:   10000,
		Schema: "default",
		Binary: "beeline",
	}
}

// Dialect returns the HiveQL dialect.
func (d *Driver) Dialect() dialect.Dialect {
	return &Dialect{}
}

// NewExecutor creates a beeline executor.
func (d *Driver) NewExecutor(cfg *dbconfig.EngineConfig) (driver.Executor, error) {
	binary := cfg.Binary
	if binary == "" {
		binary = d.Defaults().Binary
	}
	args := BaseArgs(cfg)
	e, err := shell.New(shell.Config{
		Engine:      d.Name(),
		Binary:      binary,
		BaseArgs:    args,
		SettingFlag: "--hiveconf",
		QueryFlag:   "-e",
		Delimiter:   '|',
		Header:      ShowsHeader(args),
		Settings:    cfg.SessionSettings(),
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

// JDBCURL returns the configured HiveServer2 URL, or builds one from
// host, port and database. Empty when neither is configured, in which case
// beeline falls back to beeline-site.xml.
func JDBCURL(cfg *dbconfig.EngineConfig) string {
	if cfg.JDBCURL != "" {
		return cfg.JDBCURL
	}
	if cfg.Host == "" {
		return ""
	}
	port := cfg.Port
	if port == 0 {
		port = 10000
	}
	db := cfg.Database
	if db == "" {
		db = "default"
	}
	return fmt.Sprintf("jdbc:hive2://%s:%d/%s", cfg.Host, port, db)
}

// BaseArgs returns the beeline arguments shared by every statement:
// connection, credentials, headerless pipe-delimited output and the
// configured extra flags.
func BaseArgs(cfg *dbconfig.EngineConfig) []string {
	var args []string
	if url := JDBCURL(cfg); url != "" {
		args = append(args, "-u", url)
	}
	if cfg.User != "" {
		args = append(args, "-n", cfg.User)
	}
	if cfg.Password != "" {
		args = append(args, "-p", cfg.Password)
	}
	args = append(args,
		"--silent=true",
		"--showHeader=false",
		"--outputformat=dsv",
		"--delimiterForDSV=|",
	)
	return append(args, cfg.Flags...)
}

// ShowsHeader reports whether beeline will print a header line with args.
// The last --showHeader flag wins, so user flags can turn headers back on.
func ShowsHeader(args []string) bool {
	show := false
	for _, a := range args {
		if v, ok := strings.CutPrefix(a, "--showHeader="); ok {
			show = strings.EqualFold(v, "true")
		}
	}
	return show
}
