package orchestrator

import (
	"context"
	"time"
)

// checkTimeout bounds the connectivity probe.
const checkTimeout = 30 * time.Second

// HealthCheck verifies that the engine's transport is present and the engine
// answers a trivial statement. A missing tool or unreachable engine is
// reported in the result, not as an error.
func (o *Orchestrator) HealthCheck(ctx context.Context) (*HealthCheckResult, error) {
	result := &HealthCheckResult{
		Timestamp: time.Now().Format(time.RFC3339),
		Engine:    o.engine,
	}

	start := time.Now()
	defer func() { result.LatencyMs = time.Since(start).Milliseconds() }()

	if err := o.connect(); err != nil {
		result.Error, result.Err = err.Error(), err
		return result, nil
	}

	checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	if err := o.exec.Ping(checkCtx); err != nil {
		result.Error, result.Err = err.Error(), err
	} else {
		result.Connected = true
	}

	result.Healthy = result.Connected
	return result, nil
}
