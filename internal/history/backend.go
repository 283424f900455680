// Package history records profiling runs and their metrics in SQLite.
// It is a log only: no operation reads it back to answer a request.
package history

import (
	"context"
	"time"
)

// Run statuses.
const (
	StatusRunning = "running"
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Backend persists run history.
type Backend interface {
	// Run management
	CreateRun(ctx context.Context, operation, engine string, tables []string) (string, error)
	CompleteRun(ctx context.Context, id, status, errorMsg string) error

	// Results
	SaveMetrics(ctx context.Context, runID, table string, metrics []Metric) error
	SaveDuplicateCount(ctx context.Context, runID, table string, count int64) error

	// History
	GetAllRuns(ctx context.Context) ([]Run, error)
	GetRunByID(ctx context.Context, id string) (*Run, error)
	GetMetrics(ctx context.Context, runID string) ([]Metric, error)

	// Lifecycle
	Close() error
}

// Run is one invocation of a profiling operation.
type Run struct {
	ID          string     `json:"id" yaml:"id"`
	Operation   string     `json:"operation" yaml:"operation"`
	Engine      string     `json:"engine" yaml:"engine"`
	Tables      []string   `json:"tables" yaml:"tables"`
	Status      string     `json:"status" yaml:"status"`
	Error       string     `json:"error,omitempty" yaml:"error,omitempty"`
	StartedAt   time.Time  `json:"started_at" yaml:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
	Duplicates  *int64     `json:"duplicates,omitempty" yaml:"duplicates,omitempty"`
}

// Duration returns how long the run took, or has taken so far.
func (r Run) Duration() time.Duration {
	if r.CompletedAt == nil {
		return time.Since(r.StartedAt)
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

// Metric is one stored metric of a run.
type Metric struct {
	Table string `json:"table" yaml:"table"`
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}
