package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/johndauphine/tblprof/internal/apperrors"
	"github.com/johndauphine/tblprof/internal/config"
	"github.com/johndauphine/tblprof/internal/logging"
	"github.com/johndauphine/tblprof/internal/orchestrator"
	"github.com/johndauphine/tblprof/internal/sampling"
	"github.com/johndauphine/tblprof/internal/secrets"
	"github.com/johndauphine/tblprof/internal/util"
	"github.com/johndauphine/tblprof/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newApp().RunContext(ctx, os.Args)
	stop()

	if err != nil {
		logging.Error("%v", err)
		logging.Sync()
		os.Exit(apperrors.ExitCode(err))
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    version.Name,
		Usage:   version.Description,
		Version: version.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   config.DefaultFile,
				Usage:   "Path to configuration file",
			},
			&cli.StringFlag{
				Name:    "engine",
				Aliases: []string{"e"},
				Usage:   "Engine type (hive, spark, postgres, mssql, mysql, sqlite, duckdb); overrides the config file",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error); overrides the config file",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "Log format (text, json); overrides the config file",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "columns",
				Usage:  "List the columns of a table",
				Action: listColumns,
				Flags: []cli.Flag{
					tableFlag(),
					excludeFlag(),
					formatFlag(),
				},
			},
			{
				Name:   "duplicates",
				Usage:  "Count rows that repeat an earlier row",
				Action: countDuplicates,
				Flags: []cli.Flag{
					tableFlag(),
					&cli.StringFlag{
						Name:  "columns",
						Usage: "Comma-separated columns to compare (default: all columns)",
					},
					formatFlag(),
				},
			},
			{
				Name:    "analyse",
				Aliases: []string{"analyze"},
				Usage:   "Profile tables: min, max, max length, distinct % and null % per column",
				Action:  analyseTables,
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "table",
						Aliases: []string{"t"},
						Usage:   "Table to profile, as table or schema.table (repeatable, required)",
					},
					&cli.StringFlag{
						Name:    "sample",
						Aliases: []string{"s"},
						Usage:   "Rows to scan: a count above 1, or a fraction between 0 and 1",
					},
					excludeFlag(),
					formatFlag(),
					&cli.BoolFlag{
						Name:  "output-json",
						Usage: "Write the full result as JSON to stdout",
					},
					&cli.StringFlag{
						Name:  "output-file",
						Usage: "Also write the full result as JSON to this file",
					},
				},
			},
			{
				Name:   "check",
				Usage:  "Check that the engine's tools are present and the engine answers",
				Action: healthCheck,
				Flags:  []cli.Flag{formatFlag()},
			},
			{
				Name:  "history",
				Usage: "List recorded runs, or view details of a specific run",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "run",
						Usage: "Show details for a specific run ID",
					},
				},
				Action: showHistory,
			},
			{
				Name:   "init-secrets",
				Usage:  "Create a secrets file template for engine credentials",
				Action: initSecrets,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Overwrite an existing secrets file",
					},
				},
			},
		},
	}
}

func tableFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "table",
		Aliases: []string{"t"},
		Usage:   "Table name, as table or schema.table (required)",
	}
}

// tableArg returns --table, failing as an invalid argument when it is blank.
func tableArg(c *cli.Context) (string, error) {
	table := strings.TrimSpace(c.String("table"))
	if table == "" {
		return "", fmt.Errorf("%w: --table is required", apperrors.ErrInvalidArguments)
	}
	return table, nil
}

// tablesArg returns the non-blank --table values of a repeatable flag.
func tablesArg(c *cli.Context) ([]string, error) {
	var tables []string
	for _, t := range c.StringSlice("table") {
		if t = strings.TrimSpace(t); t != "" {
			tables = append(tables, t)
		}
	}
	if len(tables) == 0 {
		return nil, fmt.Errorf("%w: --table is required", apperrors.ErrInvalidArguments)
	}
	return tables, nil
}

func excludeFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "exclude",
		Aliases: []string{"x"},
		Usage:   "Skip columns whose name contains this text",
	}
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Value:   "text",
		Usage:   "Output format (text, json, yaml)",
	}
}

// loadConfig loads the config file with command-line overrides and applies
// the logging settings.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"), func(cfg *config.Config) {
		if engine := c.String("engine"); engine != "" {
			cfg.Engine.Type = engine
		}
		if level := c.String("log-level"); level != "" {
			cfg.Logging.Level = level
		}
		if format := c.String("log-format"); format != "" {
			cfg.Logging.Format = format
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidArguments, err)
	}
	logging.SetLevel(level)
	logging.SetFormat(cfg.Logging.Format)
	return cfg, nil
}

func newOrchestrator(c *cli.Context) (*orchestrator.Orchestrator, *config.Config, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, nil, err
	}
	orch, err := orchestrator.New(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create orchestrator: %w", err)
	}
	orch.SetOutput(c.App.Writer)
	return orch, cfg, nil
}

func listColumns(c *cli.Context) error {
	table, err := tableArg(c)
	if err != nil {
		return err
	}
	orch, cfg, err := newOrchestrator(c)
	if err != nil {
		return err
	}
	defer orch.Close()

	exclude := cfg.Profile.Exclude
	if c.IsSet("exclude") {
		exclude = c.String("exclude")
	}

	cols, err := orch.ListColumns(c.Context, table, exclude)
	if err != nil {
		return err
	}
	return writeResult(c, cols, func(w io.Writer) {
		fmt.Fprintln(w, strings.Join(cols, ","))
	})
}

func countDuplicates(c *cli.Context) error {
	table, err := tableArg(c)
	if err != nil {
		return err
	}
	orch, _, err := newOrchestrator(c)
	if err != nil {
		return err
	}
	defer orch.Close()

	n, err := orch.CountDuplicates(c.Context, table, util.SplitColumns(c.String("columns")))
	if err != nil {
		return err
	}
	out := struct {
		Table      string `json:"table" yaml:"table"`
		Duplicates int64  `json:"duplicates" yaml:"duplicates"`
	}{table, n}
	return writeResult(c, out, func(w io.Writer) {
		fmt.Fprintln(w, n)
	})
}

func analyseTables(c *cli.Context) error {
	tables, err := tablesArg(c)
	if err != nil {
		return err
	}
	orch, cfg, err := newOrchestrator(c)
	if err != nil {
		return err
	}
	defer orch.Close()

	sample := cfg.Profile.Sample
	if c.IsSet("sample") {
		sample = c.String("sample")
	}
	spec, err := sampling.ParseSpec(sample)
	if err != nil {
		return err
	}
	exclude := cfg.Profile.Exclude
	if c.IsSet("exclude") {
		exclude = c.String("exclude")
	}

	result, runErr := orch.AnalyseTables(c.Context, tables, spec, exclude)
	if result == nil {
		return runErr
	}

	if c.Bool("output-json") || c.String("output-file") != "" {
		if err := outputJSON(c, result); err != nil {
			return err
		}
	}
	if c.Bool("output-json") {
		return runErr
	}

	if err := writeResult(c, result, func(w io.Writer) { writeProfiles(w, result.Tables) }); err != nil {
		return err
	}
	return runErr
}

// writeProfiles prints metric_name<TAB>metric_value lines, preceded by the
// table name when there is more than one table.
func writeProfiles(w io.Writer, profiles []orchestrator.TableProfile) {
	for i, p := range profiles {
		if len(profiles) > 1 {
			if i > 0 {
				fmt.Fprintln(w)
			}
			fmt.Fprintf(w, "# %s\n", p.Table)
		}
		if p.Error != "" {
			fmt.Fprintf(w, "error\t%s\n", p.Error)
			continue
		}
		for _, m := range p.Metrics {
			fmt.Fprintf(w, "%s\t%s\n", m.Name, m.Value)
		}
	}
}

func healthCheck(c *cli.Context) error {
	orch, _, err := newOrchestrator(c)
	if err != nil {
		return err
	}
	defer orch.Close()

	result, err := orch.HealthCheck(c.Context)
	if err != nil {
		return err
	}
	if err := writeResult(c, result, func(w io.Writer) {
		status := "OK"
		if !result.Healthy {
			status = "FAILED"
		}
		fmt.Fprintf(w, "Engine:  %s\n", result.Engine)
		fmt.Fprintf(w, "Status:  %s\n", status)
		fmt.Fprintf(w, "Latency: %dms\n", result.LatencyMs)
		if result.Error != "" {
			fmt.Fprintf(w, "Error:   %s\n", result.Error)
		}
	}); err != nil {
		return err
	}

	if !result.Healthy {
		if result.Err != nil {
			return fmt.Errorf("health check failed: %w", result.Err)
		}
		return fmt.Errorf("%w: health check failed", apperrors.ErrConnectionFailure)
	}
	return nil
}

func showHistory(c *cli.Context) error {
	orch, _, err := newOrchestrator(c)
	if err != nil {
		return err
	}
	defer orch.Close()

	if runID := c.String("run"); runID != "" {
		return orch.ShowRunDetails(c.Context, runID)
	}
	return orch.ShowHistory(c.Context)
}

func initSecrets(c *cli.Context) error {
	path := secrets.GetSecretsPath()
	if _, err := os.Stat(path); err == nil && !c.Bool("force") {
		return fmt.Errorf("secrets file %s already exists (use --force to overwrite)", path)
	}

	if os.Getenv(secrets.SecretsFileEnvVar) == "" {
		if _, err := secrets.EnsureSecretsDir(); err != nil {
			return err
		}
	} else if err := os.MkdirAll(filepath.Dir(path), secrets.SecureDirMode); err != nil {
		return fmt.Errorf("creating secrets directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(secrets.GenerateTemplate()), secrets.SecureFileMode); err != nil {
		return fmt.Errorf("writing secrets file: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "Created %s\n", path)
	return nil
}

// writeResult prints v in the --format selected on the command; text output
// is delegated to text.
func writeResult(c *cli.Context, v any, text func(io.Writer)) error {
	w := c.App.Writer
	switch strings.ToLower(c.String("format")) {
	case "", "text":
		text(w)
		return nil
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: unknown output format %q (valid: text, json, yaml)",
			apperrors.ErrInvalidArguments, c.String("format"))
	}
}

// outputJSON writes v as indented JSON to stdout when --output-json is set
// and to the --output-file path when one is given.
func outputJSON(c *cli.Context, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	data = append(data, '\n')

	if c.Bool("output-json") {
		if _, err := c.App.Writer.Write(data); err != nil {
			return err
		}
	}
	if path := c.String("output-file"); path != "" {
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("writing output file: %w", err)
		}
		logging.Info("Result written to %s", path)
	}
	return nil
}
