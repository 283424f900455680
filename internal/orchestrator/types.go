package orchestrator

import "time"

// MetricRecord is one (metric_name, metric_value) pair of a table profile.
type MetricRecord struct {
	Name  string `json:"metric_name" yaml:"metric_name"`
	Value string `json:"metric_value" yaml:"metric_value"`
}

// TableProfile is the outcome of profiling one table.
type TableProfile struct {
	Table      string         `json:"table" yaml:"table"`
	Columns    []string       `json:"columns,omitempty" yaml:"columns,omitempty"`
	Sample     string         `json:"sample" yaml:"sample"`
	RowLimit   int64          `json:"row_limit,omitempty" yaml:"row_limit,omitempty"`
	Metrics    []MetricRecord `json:"metrics" yaml:"metrics"`
	DurationMs int64          `json:"duration_ms" yaml:"duration_ms"`
	Error      string         `json:"error,omitempty" yaml:"error,omitempty"`
}

// AnalyseResult contains the outcome of a batch profiling run.
type AnalyseResult struct {
	RunID           string         `json:"run_id" yaml:"run_id"`
	Engine          string         `json:"engine" yaml:"engine"`
	Status          string         `json:"status" yaml:"status"`
	StartedAt       time.Time      `json:"started_at" yaml:"started_at"`
	CompletedAt     time.Time      `json:"completed_at" yaml:"completed_at"`
	DurationSeconds float64        `json:"duration_seconds" yaml:"duration_seconds"`
	Tables          []TableProfile `json:"tables" yaml:"tables"`
	FailedTables    []string       `json:"failed_tables,omitempty" yaml:"failed_tables,omitempty"`
}

// HealthCheckResult contains connectivity test results.
type HealthCheckResult struct {
	Timestamp string `json:"timestamp" yaml:"timestamp"`
	Engine    string `json:"engine" yaml:"engine"`
	Connected bool   `json:"connected" yaml:"connected"`
	LatencyMs int64  `json:"latency_ms" yaml:"latency_ms"`
	Error     string `json:"error,omitempty" yaml:"error,omitempty"`
	Healthy   bool   `json:"healthy" yaml:"healthy"`

	// Err is the failure behind Error, for exit-status classification.
	Err error `json:"-" yaml:"-"`
}
