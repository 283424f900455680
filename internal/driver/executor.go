package driver

import (
	"context"
	"strings"
)

// Executor runs SQL text against an engine and returns its tabular output.
// Executors do not interpret engine error text; failures from the engine are
// returned as *EngineError carrying the engine's message verbatim.
type Executor interface {
	// Execute runs a single statement and returns all result rows.
	Execute(ctx context.Context, query string, opts ...Option) (*Result, error)

	// Ping verifies the transport is usable and the engine reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the executor.
	Close() error
}

// Options are engine-specific execution flags.
type Options struct {
	// Settings are session settings (--hiveconf k=v, --conf k=v, SET k = v).
	Settings map[string]string

	// Flags are extra command-line arguments for command-line transports.
	Flags []string
}

// Option configures a single Execute call.
type Option func(*Options)

// WithSettings adds session settings for this statement.
func WithSettings(settings map[string]string) Option {
	return func(o *Options) {
		if o.Settings == nil {
			o.Settings = make(map[string]string, len(settings))
		}
		for k, v := range settings {
			o.Settings[k] = v
		}
	}
}

// WithFlags appends command-line flags for this statement.
func WithFlags(flags ...string) Option {
	return func(o *Options) {
		o.Flags = append(o.Flags, flags...)
	}
}

// ApplyOptions folds opts into an Options value.
func ApplyOptions(opts []Option) Options {
	var o Options
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// EngineError is a failure reported by the engine itself.
// Error returns the engine's message unchanged.
type EngineError struct {
	Engine   string
	ExitCode int
	Message  string
	Err      error
}

func (e *EngineError) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" {
		msg = "query failed"
	}
	return e.Engine + ": " + msg
}

func (e *EngineError) Unwrap() error {
	return e.Err
}
