// Package shell runs SQL through an engine's command-line client
// (beeline, spark-sql) and parses its delimited output.
package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sort"

	"github.com/johndauphine/tblprof/internal/apperrors"
	"github.com/johndauphine/tblprof/internal/driver"
	"github.com/johndauphine/tblprof/internal/logging"
)

// Config describes how to invoke one command-line client.
type Config struct {
	// Engine names the engine in errors and logs.
	Engine string

	// Binary is the executable name or path.
	Binary string

	// BaseArgs precede every invocation (connection URL, output format).
	BaseArgs []string

	// SettingFlag prefixes each k=v session setting ("--hiveconf", "--conf").
	SettingFlag string

	// QueryFlag precedes the SQL text ("-e").
	QueryFlag string

	// Delimiter separates fields in the client's output.
	Delimiter rune

	// Header reports that the client prints a header line before the rows.
	Header bool

	// Settings are applied to every statement; per-call settings override them.
	Settings map[string]string
}

// Executor implements driver.Executor by running a client process per statement.
type Executor struct {
	cfg  Config
	path string
}

// New resolves the client binary. A missing binary yields an error wrapping
// apperrors.ErrToolUnavailable.
func New(cfg Config) (*Executor, error) {
	if cfg.Binary == "" {
		return nil, fmt.Errorf("%w: no %s client binary configured", apperrors.ErrToolUnavailable, cfg.Engine)
	}
	path, err := exec.LookPath(cfg.Binary)
	if err != nil {
		return nil, fmt.Errorf("%w: %s client %q not found: %v", apperrors.ErrToolUnavailable, cfg.Engine, cfg.Binary, err)
	}
	if cfg.QueryFlag == "" {
		cfg.QueryFlag = "-e"
	}
	if cfg.Delimiter == 0 {
		cfg.Delimiter = '|'
	}
	return &Executor{cfg: cfg, path: path}, nil
}

// Args returns the argument list used to run query with opts.
func (e *Executor) Args(query string, opts driver.Options) []string {
	args := append([]string(nil), e.cfg.BaseArgs...)
	args = append(args, opts.Flags...)

	settings := make(map[string]string, len(e.cfg.Settings)+len(opts.Settings))
	for k, v := range e.cfg.Settings {
		settings[k] = v
	}
	for k, v := range opts.Settings {
		settings[k] = v
	}
	if e.cfg.SettingFlag != "" && len(settings) > 0 {
		keys := make([]string, 0, len(settings))
		for k := range settings {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			args = append(args, e.cfg.SettingFlag, k+"="+settings[k])
		}
	}

	return append(args, e.cfg.QueryFlag, query)
}

// Execute runs query and parses the client's stdout.
func (e *Executor) Execute(ctx context.Context, query string, opts ...driver.Option) (*driver.Result, error) {
	args := e.Args(query, driver.ApplyOptions(opts))
	logging.Debug("%s: %s", e.cfg.Engine, query)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.path, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, &driver.EngineError{
				Engine:   e.cfg.Engine,
				ExitCode: exitErr.ExitCode(),
				Message:  stderr.String(),
				Err:      err,
			}
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: running %s: %v", apperrors.ErrToolUnavailable, e.path, err)
	}

	return driver.ParseDelimited(stdout.String(), e.cfg.Delimiter, e.cfg.Header), nil
}

// Ping runs a trivial statement. Any failure is reported as a connection failure.
func (e *Executor) Ping(ctx context.Context) error {
	if _, err := e.Execute(ctx, "SELECT 1"); err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrConnectionFailure, err)
	}
	return nil
}

// Close is a no-op; each statement runs in its own process.
func (e *Executor) Close() error {
	return nil
}
