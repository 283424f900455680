package dialect

import (
	"fmt"
	"strings"
)

// Rendering helpers shared by the engine dialects.

// QuoteWith wraps name in open/close, doubling any embedded close character.
func QuoteWith(name, open, close string) string {
	return open + strings.ReplaceAll(name, close, close+close) + close
}

// QualifyWith joins schema and table using the dialect's quoting.
func QualifyWith(d Dialect, schema, table string) string {
	if schema == "" {
		return d.QuoteIdentifier(table)
	}
	return d.QuoteIdentifier(schema) + "." + d.QuoteIdentifier(table)
}

// JoinQuoted quotes and comma-joins column names.
func JoinQuoted(d Dialect, cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = d.QuoteIdentifier(c)
	}
	return strings.Join(quoted, ", ")
}

// SelectItems renders the projection list.
func SelectItems(d Dialect, items []SelectItem) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = it.Expr.SQL(d)
		if it.Alias != "" {
			parts[i] += " AS " + it.Alias
		}
	}
	return strings.Join(parts, ", ")
}

// RenderSelectLimit renders a SELECT with a trailing LIMIT clause.
func RenderSelectLimit(d Dialect, s *Select) string {
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(SelectItems(d, s.Items))
	writeFromWhere(&b, d, s)
	if s.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", s.Limit)
	}
	return b.String()
}

// RenderSelectTop renders a SELECT with a leading TOP (n) clause.
func RenderSelectTop(d Dialect, s *Select) string {
	var b strings.Builder
	b.WriteString("SELECT ")
	if s.Limit > 0 {
		fmt.Fprintf(&b, "TOP (%d) ", s.Limit)
	}
	b.WriteString(SelectItems(d, s.Items))
	writeFromWhere(&b, d, s)
	return b.String()
}

func writeFromWhere(b *strings.Builder, d Dialect, s *Select) {
	if s.From != nil {
		b.WriteString(" FROM ")
		b.WriteString(s.From.SQL(d))
	}
	if s.Where != nil {
		b.WriteString(" WHERE ")
		b.WriteString(s.Where.SQL(d))
	}
}

// KeyValueList renders map entries as "'key'<sep>value" pairs joined by ", ".
// castValues wraps each value in a string cast for engines whose maps need a
// single value type.
func KeyValueList(d Dialect, entries []MapEntry, sep string, castValues bool) string {
	parts := make([]string, len(entries))
	for i, e := range entries {
		v := e.Value
		if castValues {
			v = AsString(v)
		}
		parts[i] = String(e.Key).SQL(d) + sep + v.SQL(d)
	}
	return strings.Join(parts, ", ")
}

// metricColumn is the derived column name holding entry i in the
// aggregate-then-lateral unpivot forms.
func metricColumn(i int) string {
	return fmt.Sprintf("m%d", i)
}

// AggregateSelect renders "SELECT e0 AS m0, e1 AS m1, ... FROM <from>",
// the aggregation half of the lateral unpivot forms.
func AggregateSelect(d Dialect, u *Unpivot) string {
	items := make([]SelectItem, len(u.Entries))
	for i, e := range u.Entries {
		items[i] = SelectItem{Expr: e.Value, Alias: metricColumn(i)}
	}
	return d.RenderSelect(&Select{Items: items, From: u.From})
}

// RenderValuesUnpivot unpivots with a lateral VALUES list. join is the
// lateral join keyword ("CROSS JOIN LATERAL", "CROSS APPLY").
func RenderValuesUnpivot(d Dialect, u *Unpivot, join string) string {
	rows := make([]string, len(u.Entries))
	for i, e := range u.Entries {
		v := Cast{Expr: Ref{Qualifier: u.Alias, Name: metricColumn(i)}, To: TypeString}
		rows[i] = fmt.Sprintf("(%d, %s, %s)", i+1, String(e.Key).SQL(d), v.SQL(d))
	}
	return fmt.Sprintf("SELECT v.%s, v.%s FROM (%s) %s %s (VALUES %s) AS v(ord, %s, %s) ORDER BY v.ord",
		u.KeyAlias, u.ValueAlias,
		AggregateSelect(d, u), u.Alias,
		join, strings.Join(rows, ", "),
		u.KeyAlias, u.ValueAlias)
}

// RenderUnionUnpivot unpivots with a lateral UNION ALL of single-row SELECTs,
// for engines without a lateral VALUES constructor.
func RenderUnionUnpivot(d Dialect, u *Unpivot, join string) string {
	rows := make([]string, len(u.Entries))
	for i, e := range u.Entries {
		v := Cast{Expr: Ref{Qualifier: u.Alias, Name: metricColumn(i)}, To: TypeString}
		if i == 0 {
			rows[i] = fmt.Sprintf("SELECT %d AS ord, %s AS %s, %s AS %s",
				i+1, String(e.Key).SQL(d), u.KeyAlias, v.SQL(d), u.ValueAlias)
		} else {
			rows[i] = fmt.Sprintf("SELECT %d, %s, %s", i+1, String(e.Key).SQL(d), v.SQL(d))
		}
	}
	return fmt.Sprintf("SELECT v.%s, v.%s FROM (%s) %s %s (%s) AS v ORDER BY v.ord",
		u.KeyAlias, u.ValueAlias,
		AggregateSelect(d, u), u.Alias,
		join, strings.Join(rows, " UNION ALL "))
}

// InformationSchemaColumns renders the ANSI information_schema lookup.
// currentSchema is the engine expression used when ref has no schema.
func InformationSchemaColumns(d Dialect, ref TableRef, currentSchema string) string {
	schema := currentSchema
	if ref.Schema != "" {
		schema = String(ref.Schema).SQL(d)
	}
	return fmt.Sprintf("SELECT column_name FROM information_schema.columns WHERE table_schema = %s AND table_name = %s ORDER BY ordinal_position",
		schema, String(ref.Name).SQL(d))
}

// RenderMapExplode renders the map-literal and LATERAL VIEW explode form
// used by Hive and Spark SQL.
func RenderMapExplode(d Dialect, u *Unpivot, castValues bool) string {
	return fmt.Sprintf("SELECT %s, %s FROM (SELECT map(%s) AS %s FROM %s) %s LATERAL VIEW explode(%s) exploded AS %s, %s",
		u.KeyAlias, u.ValueAlias,
		KeyValueList(d, u.Entries, ", ", castValues), u.MapAlias,
		u.From.SQL(d), u.Alias,
		u.MapAlias, u.KeyAlias, u.ValueAlias)
}
