// Package drivertest provides an in-memory driver.Executor for tests.
package drivertest

import (
	"context"
	"strings"
	"sync"

	"github.com/johndauphine/tblprof/internal/driver"
)

// Response is a canned reply for queries containing Match.
type Response struct {
	Match  string
	Result *driver.Result
	Err    error
}

// Executor replays canned responses and records every query it receives.
// Responses are matched in order by substring; the first match wins.
type Executor struct {
	mu        sync.Mutex
	responses []Response
	queries   []string
	options   []driver.Options
	PingErr   error
	closed    bool
}

// New returns an Executor with the given responses.
func New(responses ...Response) *Executor {
	return &Executor{responses: responses}
}

// On appends a response for queries containing match.
func (e *Executor) On(match string, rows ...[]string) *Executor {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.responses = append(e.responses, Response{Match: match, Result: &driver.Result{Rows: rows}})
	return e
}

// OnError appends an error response for queries containing match.
func (e *Executor) OnError(match string, err error) *Executor {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.responses = append(e.responses, Response{Match: match, Err: err})
	return e
}

// Execute implements driver.Executor.
func (e *Executor) Execute(_ context.Context, query string, opts ...driver.Option) (*driver.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.queries = append(e.queries, query)
	e.options = append(e.options, driver.ApplyOptions(opts))
	for _, r := range e.responses {
		if strings.Contains(query, r.Match) {
			if r.Err != nil {
				return nil, r.Err
			}
			return r.Result, nil
		}
	}
	return &driver.Result{}, nil
}

// Ping implements driver.Executor.
func (e *Executor) Ping(context.Context) error {
	return e.PingErr
}

// Close implements driver.Executor.
func (e *Executor) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}

// Queries returns the queries executed so far.
func (e *Executor) Queries() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.queries...)
}

// Options returns the options passed with each query.
func (e *Executor) Options() []driver.Options {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]driver.Options(nil), e.options...)
}

// Closed reports whether Close was called.
func (e *Executor) Closed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}
