// Package querybuild synthesizes the profiling, duplicate-count and row-count
// queries from a table reference and an ordered column list.
package querybuild

import (
	"github.com/johndauphine/tblprof/internal/dialect"
)

// Output columns of the profiling query.
const (
	MetricNameColumn  = "metric_name"
	MetricValueColumn = "metric_value"
)

// MetricKind is one of the five per-column statistics.
type MetricKind string

const (
	KindMin         MetricKind = "min"
	KindMax         MetricKind = "max"
	KindMaxLength   MetricKind = "max_length"
	KindDistinctPct MetricKind = "distinct_pct"
	KindNullPct     MetricKind = "null_pct"
)

// Kinds lists the statistics in the order they are emitted per column.
var Kinds = []MetricKind{KindMin, KindMax, KindMaxLength, KindDistinctPct, KindNullPct}

// IsPercentage reports whether values of this kind are percentages.
func (k MetricKind) IsPercentage() bool {
	return k == KindDistinctPct || k == KindNullPct
}

// MetricKey identifies one entry of the metrics map.
type MetricKey struct {
	Name   string
	Kind   MetricKind
	Column string
}

// MetricName returns the map key for kind over column:
// min_<c>, max_<c>, max_length_<c>, distinct_<c>_pct, null_<c>_pct.
// Names are not namespaced, so distinct columns can produce equal keys.
func MetricName(kind MetricKind, column string) string {
	switch kind {
	case KindDistinctPct:
		return "distinct_" + column + "_pct"
	case KindNullPct:
		return "null_" + column + "_pct"
	default:
		return string(kind) + "_" + column
	}
}

// MetricKeys returns the keys for columns, five per column, in emission order.
func MetricKeys(columns []string) []MetricKey {
	keys := make([]MetricKey, 0, len(columns)*len(Kinds))
	for _, c := range columns {
		for _, k := range Kinds {
			keys = append(keys, MetricKey{Name: MetricName(k, c), Kind: k, Column: c})
		}
	}
	return keys
}

// metricExpr returns the aggregate computing kind over column.
func metricExpr(kind MetricKind, column string) dialect.Expr {
	col := dialect.Column{Name: column}
	switch kind {
	case KindMin:
		return dialect.AsString(call("MIN", col))
	case KindMax:
		return dialect.AsString(call("MAX", col))
	case KindMaxLength:
		return call("MAX", call("LENGTH", dialect.AsString(col)))
	case KindDistinctPct:
		return percentOfRows(dialect.Func{Name: "COUNT", Args: []dialect.Expr{col}, Distinct: true})
	case KindNullPct:
		return percentOfRows(call("SUM", dialect.Case{
			When: dialect.IsNull{Expr: col},
			Then: dialect.Int(1),
			Else: dialect.Int(0),
		}))
	}
	panic("querybuild: unknown metric kind " + string(kind))
}

// percentOfRows is ROUND(100.0 * n / COUNT(*), 2). An empty scan divides
// by zero; the engine decides what that yields.
func percentOfRows(n dialect.Expr) dialect.Expr {
	ratio := dialect.Binary{
		Left:  dialect.Binary{Left: dialect.Number("100.0"), Op: "*", Right: n},
		Op:    "/",
		Right: dialect.CountAll{},
	}
	return call("ROUND", ratio, dialect.Int(2))
}

func call(name string, args ...dialect.Expr) dialect.Func {
	return dialect.Func{Name: name, Args: args}
}
