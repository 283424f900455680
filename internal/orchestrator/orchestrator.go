// Package orchestrator wires schema introspection, sampling, query synthesis
// and execution into the public operations: listing columns, counting
// duplicate rows and profiling tables.
package orchestrator

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/johndauphine/tblprof/internal/config"
	"github.com/johndauphine/tblprof/internal/dialect"
	"github.com/johndauphine/tblprof/internal/driver"
	"github.com/johndauphine/tblprof/internal/history"
	"github.com/johndauphine/tblprof/internal/logging"
	"github.com/johndauphine/tblprof/internal/sampling"
	"github.com/johndauphine/tblprof/internal/schema"
)

// Options tune orchestrator behaviour independent of the engine.
type Options struct {
	// Schema qualifies table names given without one.
	Schema string

	// WideTableWarning logs a warning when a table has more columns than
	// this. Zero disables the warning.
	WideTableWarning int

	// Progress receives the batch progress bar. Nil disables it.
	Progress io.Writer
}

// Orchestrator runs profiling operations against one engine.
type Orchestrator struct {
	engine  string
	exec    driver.Executor
	dialect dialect.Dialect
	columns *schema.Provider
	sampler *sampling.Resolver
	history history.Backend
	opts    Options
	out     io.Writer

	// newExec creates the executor on first use so history views work
	// without the engine's client tools.
	newExec func() (driver.Executor, error)
}

// New creates an orchestrator from configuration. The engine executor is
// created lazily; history is opened unless disabled, and a history store
// that cannot be opened only disables history.
func New(cfg *config.Config) (*Orchestrator, error) {
	drv, err := driver.Get(cfg.Engine.Type)
	if err != nil {
		return nil, err
	}

	engineCfg := cfg.Engine
	o := &Orchestrator{
		engine:  drv.Name(),
		dialect: drv.Dialect(),
		opts: Options{
			Schema:           cfg.Engine.Schema,
			WideTableWarning: cfg.Profile.WideTableWarning,
		},
		out: os.Stdout,
		newExec: func() (driver.Executor, error) {
			return drv.NewExecutor(&engineCfg)
		},
	}
	if !cfg.Profile.HideProgress {
		o.opts.Progress = os.Stderr
	}

	if !cfg.History.Disabled {
		state, err := history.Open(cfg.History.Path)
		if err != nil {
			logging.Warn("Run history disabled: %v", err)
		} else {
			o.history = state
		}
	}

	return o, nil
}

// NewWithExecutor creates an orchestrator around an existing executor.
// History is off until SetHistory is called.
func NewWithExecutor(engine string, exec driver.Executor, d dialect.Dialect, opts Options) *Orchestrator {
	o := &Orchestrator{
		engine:  engine,
		dialect: d,
		opts:    opts,
		out:     os.Stdout,
	}
	o.attach(exec)
	return o
}

// SetHistory sets the run history store. Nil disables history.
func (o *Orchestrator) SetHistory(h history.Backend) {
	o.history = h
}

// SetOutput redirects the history views.
func (o *Orchestrator) SetOutput(w io.Writer) {
	o.out = w
}

// Engine returns the canonical engine name.
func (o *Orchestrator) Engine() string {
	return o.engine
}

// Close releases the executor and the history store.
func (o *Orchestrator) Close() error {
	var errs []error
	if o.exec != nil {
		if err := o.exec.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing executor: %w", err))
		}
	}
	if o.history != nil {
		if err := o.history.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing history: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (o *Orchestrator) attach(exec driver.Executor) {
	o.exec = exec
	o.columns = schema.NewProvider(exec, o.dialect)
	o.sampler = sampling.NewResolver(exec, o.dialect)
}

// connect creates the executor if it does not exist yet.
func (o *Orchestrator) connect() error {
	if o.exec != nil {
		return nil
	}
	if o.newExec == nil {
		return fmt.Errorf("no executor configured for %s", o.engine)
	}
	exec, err := o.newExec()
	if err != nil {
		return err
	}
	o.attach(exec)
	return nil
}

// tableRef parses a table argument and applies the default schema.
func (o *Orchestrator) tableRef(table string) (dialect.TableRef, error) {
	ref, err := dialect.ParseTableRef(table)
	if err != nil {
		return dialect.TableRef{}, err
	}
	if ref.Schema == "" && o.opts.Schema != "" {
		ref.Schema = o.opts.Schema
	}
	return ref, nil
}
