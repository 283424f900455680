// Package schema lists a table's columns through the engine.
package schema

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/johndauphine/tblprof/internal/apperrors"
	"github.com/johndauphine/tblprof/internal/dialect"
	"github.com/johndauphine/tblprof/internal/driver"
	"github.com/johndauphine/tblprof/internal/logging"
)

// Provider retrieves ordered column lists. It holds no state between calls.
type Provider struct {
	exec    driver.Executor
	dialect dialect.Dialect
}

// NewProvider creates a Provider issuing d's column-listing query on exec.
func NewProvider(exec driver.Executor, d dialect.Dialect) *Provider {
	return &Provider{exec: exec, dialect: d}
}

// ListColumns returns table's columns in schema order, minus any whose name
// contains exclude.
//
// Fails with apperrors.ErrSchemaUnavailable when the engine call fails or
// the table has no columns. A list emptied by exclude is returned as is.
func (p *Provider) ListColumns(ctx context.Context, table dialect.TableRef, exclude string) ([]string, error) {
	if table.Name == "" {
		return nil, fmt.Errorf("%w: table name is required", apperrors.ErrInvalidArguments)
	}

	res, err := p.exec.Execute(ctx, p.dialect.ListColumnsQuery(table))
	if err != nil {
		if errors.Is(err, apperrors.ErrToolUnavailable) || errors.Is(err, apperrors.ErrConnectionFailure) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: listing columns of %s: %w", apperrors.ErrSchemaUnavailable, table, err)
	}

	columns := Normalize(res.Column(0))
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: table %s not found or has no columns", apperrors.ErrSchemaUnavailable, table)
	}

	filtered := Exclude(columns, exclude)
	if len(filtered) < len(columns) {
		logging.Debug("Excluded %d of %d columns of %s matching %q", len(columns)-len(filtered), len(columns), table, exclude)
	}
	return filtered, nil
}

// Normalize trims whitespace and drops blank entries. Header lines are
// consumed by the transport, so every remaining entry is a column name.
func Normalize(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, c := range raw {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// Exclude removes every column whose name contains substr.
// An empty substr keeps every column.
func Exclude(columns []string, substr string) []string {
	if substr == "" {
		return columns
	}
	out := make([]string, 0, len(columns))
	for _, c := range columns {
		if !strings.Contains(c, substr) {
			out = append(out, c)
		}
	}
	return out
}
