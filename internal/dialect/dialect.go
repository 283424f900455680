// Package dialect holds the engine-neutral SQL representation used by the
// query builders and the Dialect interface each engine implements to render it.
// Engine packages under internal/driver register their dialect on import.
package dialect

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/johndauphine/tblprof/internal/apperrors"
)

// Dialect renders the query IR for one SQL engine.
type Dialect interface {
	// DBType returns the canonical engine name (e.g. "hive", "postgres").
	DBType() string

	// QuoteIdentifier quotes a single identifier, escaping embedded quotes.
	QuoteIdentifier(name string) string

	// QualifyTable returns the quoted schema.table reference.
	// An empty schema yields the quoted table alone.
	QualifyTable(schema, table string) string

	// ColumnList returns a comma separated list of quoted identifiers.
	ColumnList(cols []string) string

	// TypeName returns the engine's spelling of a logical type.
	TypeName(t Type) string

	// FunctionName maps a logical function name to the engine's name
	// (LENGTH is LEN on SQL Server, CHAR_LENGTH on MySQL).
	FunctionName(name string) string

	// RenderSelect renders a SELECT, including the row limit.
	RenderSelect(s *Select) string

	// RenderUnpivot renders the metrics map and its explode into
	// (key, value) rows.
	RenderUnpivot(u *Unpivot) string

	// ListColumnsQuery returns the statement that lists a table's columns,
	// one per row, in schema order.
	ListColumnsQuery(ref TableRef) string
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Dialect)
)

// Register makes a dialect available under its DBType and any aliases.
func Register(d Dialect, aliases ...string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[strings.ToLower(d.DBType())] = d
	for _, a := range aliases {
		registry[strings.ToLower(a)] = d
	}
}

// GetDialect returns the dialect registered for dbType, or nil.
func GetDialect(dbType string) Dialect {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return registry[strings.ToLower(dbType)]
}

// Registered returns the sorted canonical names of all registered dialects.
func Registered() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	seen := make(map[string]bool)
	var names []string
	for _, d := range registry {
		if !seen[d.DBType()] {
			seen[d.DBType()] = true
			names = append(names, d.DBType())
		}
	}
	sort.Strings(names)
	return names
}

// TableRef is a schema-qualified table name, lower-cased for lookups.
type TableRef struct {
	Schema string `json:"schema,omitempty" yaml:"schema,omitempty"`
	Name   string `json:"name" yaml:"name"`
}

// ParseTableRef parses "table" or "schema.table".
func ParseTableRef(s string) (TableRef, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return TableRef{}, fmt.Errorf("%w: table name is required", apperrors.ErrInvalidArguments)
	}

	parts := strings.Split(s, ".")
	var ref TableRef
	switch len(parts) {
	case 1:
		ref.Name = parts[0]
	case 2:
		ref.Schema, ref.Name = parts[0], parts[1]
	default:
		return TableRef{}, fmt.Errorf("%w: table %q has too many name parts", apperrors.ErrInvalidArguments, s)
	}

	if ref.Schema != "" {
		if err := ValidateIdentifier(ref.Schema); err != nil {
			return TableRef{}, err
		}
	}
	if err := ValidateIdentifier(ref.Name); err != nil {
		return TableRef{}, err
	}
	return ref, nil
}

// String returns schema.table, or the bare table name.
func (t TableRef) String() string {
	if t.Schema == "" {
		return t.Name
	}
	return t.Schema + "." + t.Name
}

// MaxIdentifierLength bounds identifier length across supported engines.
const MaxIdentifierLength = 128

// ValidateIdentifier checks that a schema, table or column name only
// contains ASCII letters, digits and underscores.
func ValidateIdentifier(name string) error {
	if name == "" {
		return fmt.Errorf("%w: identifier cannot be empty", apperrors.ErrInvalidArguments)
	}
	if len(name) > MaxIdentifierLength {
		return fmt.Errorf("%w: identifier too long: %d characters (max %d)",
			apperrors.ErrInvalidArguments, len(name), MaxIdentifierLength)
	}
	for i, r := range name {
		if !isIdentifierChar(r) {
			return fmt.Errorf("%w: identifier contains invalid character %q at position %d: %q",
				apperrors.ErrInvalidArguments, r, i, name)
		}
	}
	return nil
}

// ValidateIdentifiers validates every name in order and returns the first failure.
func ValidateIdentifiers(names []string) error {
	for _, n := range names {
		if err := ValidateIdentifier(n); err != nil {
			return err
		}
	}
	return nil
}

func isIdentifierChar(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_'
}
