// Package sampling turns a sampling directive into a row limit.
package sampling

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/johndauphine/tblprof/internal/apperrors"
	"github.com/johndauphine/tblprof/internal/dialect"
	"github.com/johndauphine/tblprof/internal/driver"
	"github.com/johndauphine/tblprof/internal/logging"
	"github.com/johndauphine/tblprof/internal/querybuild"
)

// Kind distinguishes the sampling directives.
type Kind int

const (
	None Kind = iota
	Absolute
	Fraction
)

func (k Kind) String() string {
	switch k {
	case Absolute:
		return "absolute"
	case Fraction:
		return "fraction"
	default:
		return "none"
	}
}

// Spec is a sampling directive: no limit, an absolute row count, or a
// fraction of the table's rows.
type Spec struct {
	Kind  Kind
	Value float64
}

// NoSample returns the directive for a full scan.
func NoSample() Spec { return Spec{} }

// AbsoluteLimit returns a directive for at most n rows.
func AbsoluteLimit(n float64) Spec { return Spec{Kind: Absolute, Value: n} }

// FractionLimit returns a directive for f of the table's rows.
func FractionLimit(f float64) Spec { return Spec{Kind: Fraction, Value: f} }

// IsFraction reports whether s is a fraction strictly inside (0, 1).
// Fractions outside that range are handled as absolute values.
func (s Spec) IsFraction() bool {
	return s.Kind == Fraction && s.Value > 0 && s.Value < 1
}

func (s Spec) String() string {
	if s.Kind == None {
		return "none"
	}
	return s.Kind.String() + "(" + strconv.FormatFloat(s.Value, 'f', -1, 64) + ")"
}

// ParseSpec parses command-line sampling text. Empty means no sampling;
// a number strictly between 0 and 1 is a fraction; any other number is an
// absolute row count.
func ParseSpec(s string) (Spec, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return NoSample(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return Spec{}, fmt.Errorf("%w: sample %q is not a number", apperrors.ErrInvalidArguments, s)
	}
	if v > 0 && v < 1 {
		return FractionLimit(v), nil
	}
	return AbsoluteLimit(v), nil
}

// Resolver computes effective row limits, asking the engine for a row count
// when the directive is a fraction.
type Resolver struct {
	exec    driver.Executor
	dialect dialect.Dialect
}

// NewResolver creates a Resolver running row counts on exec.
func NewResolver(exec driver.Executor, d dialect.Dialect) *Resolver {
	return &Resolver{exec: exec, dialect: d}
}

// Resolve returns the row limit for spec over table, and false when the
// scan should not be limited. Only the fraction path queries the engine.
func (r *Resolver) Resolve(ctx context.Context, spec Spec, table dialect.TableRef) (int64, bool, error) {
	switch {
	case spec.Kind == None:
		return 0, false, nil
	case spec.IsFraction():
		rows, err := r.RowCount(ctx, table)
		if err != nil {
			return 0, false, err
		}
		limit := floorToInt(spec.Value * float64(rows))
		logging.Debug("Sampling %v of %d rows of %s: limit %d", spec.Value, rows, table, limit)
		return limitIfAboveOne(limit)
	default:
		// Absolute values, and fractions outside (0, 1), compare against 1.
		if !(spec.Value > 1) {
			return 0, false, nil
		}
		return limitIfAboveOne(floorToInt(spec.Value))
	}
}

// floorToInt floors v, saturating at math.MaxInt64 where the conversion
// would overflow.
func floorToInt(v float64) int64 {
	if v >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(math.Floor(v))
}

func limitIfAboveOne(limit int64) (int64, bool, error) {
	if limit > 1 {
		return limit, true, nil
	}
	return 0, false, nil
}

// RowCount runs SELECT COUNT(*) against table and reads the first integer
// field of the output.
func (r *Resolver) RowCount(ctx context.Context, table dialect.TableRef) (int64, error) {
	q, err := querybuild.BuildRowCountQuery(r.dialect, table)
	if err != nil {
		return 0, err
	}
	res, err := r.exec.Execute(ctx, q)
	if err != nil {
		return 0, err
	}
	n, err := res.FirstInt()
	if err != nil {
		return 0, fmt.Errorf("counting rows of %s: %w", table, err)
	}
	return n, nil
}
