package dialect

import (
	"strconv"
	"strings"
)

// Type is a logical column type that dialects spell out.
type Type int

const (
	// TypeString is Hive STRING, PostgreSQL TEXT, SQL Server NVARCHAR, etc.
	TypeString Type = iota
)

// Expr is a node in the expression tree.
type Expr interface {
	SQL(d Dialect) string
}

// Column references a column, optionally qualified by a relation alias.
type Column struct {
	Qualifier string
	Name      string
}

func (c Column) SQL(d Dialect) string {
	if c.Qualifier != "" {
		return c.Qualifier + "." + d.QuoteIdentifier(c.Name)
	}
	return d.QuoteIdentifier(c.Name)
}

// Ref references a derived column or alias by its bare name.
type Ref struct {
	Qualifier string
	Name      string
}

func (r Ref) SQL(_ Dialect) string {
	if r.Qualifier != "" {
		return r.Qualifier + "." + r.Name
	}
	return r.Name
}

// Star is the * select item.
type Star struct{}

func (Star) SQL(_ Dialect) string { return "*" }

// Number is a numeric literal rendered verbatim.
type Number string

func (n Number) SQL(_ Dialect) string { return string(n) }

// Int returns an integer literal.
func Int(v int64) Number { return Number(strconv.FormatInt(v, 10)) }

// String is a single-quoted string literal.
type String string

func (s String) SQL(_ Dialect) string {
	return "'" + strings.ReplaceAll(string(s), "'", "''") + "'"
}

// Func is a function call. Name is the logical name, mapped by the dialect.
type Func struct {
	Name     string
	Args     []Expr
	Distinct bool
}

func (f Func) SQL(d Dialect) string {
	var b strings.Builder
	b.WriteString(d.FunctionName(f.Name))
	b.WriteByte('(')
	if f.Distinct {
		b.WriteString("DISTINCT ")
	}
	b.WriteString(exprList(d, f.Args))
	b.WriteByte(')')
	return b.String()
}

// CountAll is COUNT(*).
type CountAll struct{}

func (CountAll) SQL(_ Dialect) string { return "COUNT(*)" }

// Cast converts an expression to a logical type.
type Cast struct {
	Expr Expr
	To   Type
}

func (c Cast) SQL(d Dialect) string {
	return "CAST(" + c.Expr.SQL(d) + " AS " + d.TypeName(c.To) + ")"
}

// AsString casts e to TypeString unless it already is one.
func AsString(e Expr) Expr {
	if c, ok := e.(Cast); ok && c.To == TypeString {
		return e
	}
	return Cast{Expr: e, To: TypeString}
}

// Binary is a left-associative infix operation, rendered without parentheses.
type Binary struct {
	Left  Expr
	Op    string
	Right Expr
}

func (b Binary) SQL(d Dialect) string {
	return b.Left.SQL(d) + " " + b.Op + " " + b.Right.SQL(d)
}

// IsNull is "expr IS NULL".
type IsNull struct {
	Expr Expr
}

func (n IsNull) SQL(d Dialect) string { return n.Expr.SQL(d) + " IS NULL" }

// Case is a single-branch searched CASE.
type Case struct {
	When Expr
	Then Expr
	Else Expr
}

func (c Case) SQL(d Dialect) string {
	return "CASE WHEN " + c.When.SQL(d) + " THEN " + c.Then.SQL(d) + " ELSE " + c.Else.SQL(d) + " END"
}

// RowNumber is ROW_NUMBER() OVER (PARTITION BY ... ORDER BY ...).
type RowNumber struct {
	PartitionBy []Expr
	OrderBy     []Expr
}

func (r RowNumber) SQL(d Dialect) string {
	var b strings.Builder
	b.WriteString("ROW_NUMBER() OVER (")
	if len(r.PartitionBy) > 0 {
		b.WriteString("PARTITION BY ")
		b.WriteString(exprList(d, r.PartitionBy))
	}
	if len(r.OrderBy) > 0 {
		if len(r.PartitionBy) > 0 {
			b.WriteByte(' ')
		}
		b.WriteString("ORDER BY ")
		b.WriteString(exprList(d, r.OrderBy))
	}
	b.WriteByte(')')
	return b.String()
}

// SelectItem is one projected expression with an optional alias.
type SelectItem struct {
	Expr  Expr
	Alias string
}

// Source is something a SELECT reads from.
type Source interface {
	SQL(d Dialect) string
}

// TableSource reads a base table.
type TableSource struct {
	Ref TableRef
}

func (t TableSource) SQL(d Dialect) string {
	return d.QualifyTable(t.Ref.Schema, t.Ref.Name)
}

// Subquery reads a derived table.
type Subquery struct {
	Query *Select
	Alias string
}

func (s Subquery) SQL(d Dialect) string {
	return "(" + d.RenderSelect(s.Query) + ") " + s.Alias
}

// Select is a single-block query. Limit <= 0 means unlimited.
type Select struct {
	Items []SelectItem
	From  Source
	Where Expr
	Limit int64
}

// MapEntry is one key/value pair of the metrics map.
type MapEntry struct {
	Key   string
	Value Expr
}

// Unpivot aggregates Entries over From into one map-valued row and explodes
// it into (KeyAlias, ValueAlias) rows.
type Unpivot struct {
	Entries    []MapEntry
	From       Source
	MapAlias   string
	Alias      string
	KeyAlias   string
	ValueAlias string
}

func exprList(d Dialect, exprs []Expr) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = e.SQL(d)
	}
	return strings.Join(parts, ", ")
}
