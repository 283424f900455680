package sqlite

import (
	"fmt"

	"github.com/johndauphine/tblprof/internal/dialect"
)

// Dialect implements dialect.Dialect for SQLite.
type Dialect struct{}

func (d *Dialect) DBType() string { return "sqlite" }

func (d *Dialect) QuoteIdentifier(name string) string {
	return dialect.QuoteWith(name, `"`, `"`)
}

func (d *Dialect) QualifyTable(schema, table string) string {
	return dialect.QualifyWith(d, schema, table)
}

func (d *Dialect) ColumnList(cols []string) string {
	return dialect.JoinQuoted(d, cols)
}

func (d *Dialect) TypeName(t dialect.Type) string { return "TEXT" }

func (d *Dialect) FunctionName(name string) string { return name }

func (d *Dialect) RenderSelect(s *dialect.Select) string {
	return dialect.RenderSelectLimit(d, s)
}

// RenderUnpivot builds a JSON object and walks it with json_each, which
// yields keys in insertion order.
func (d *Dialect) RenderUnpivot(u *dialect.Unpivot) string {
	return fmt.Sprintf("SELECT kv.key AS %s, kv.value AS %s FROM (SELECT json_object(%s) AS %s FROM %s) %s, json_each(%s.%s) AS kv",
		u.KeyAlias, u.ValueAlias,
		dialect.KeyValueList(d, u.Entries, ", ", false), u.MapAlias,
		u.From.SQL(d), u.Alias,
		u.Alias, u.MapAlias)
}

func (d *Dialect) ListColumnsQuery(ref dialect.TableRef) string {
	table := dialect.String(ref.Name).SQL(d)
	if ref.Schema != "" {
		return fmt.Sprintf("SELECT name FROM pragma_table_info(%s, %s) ORDER BY cid", table, dialect.String(ref.Schema).SQL(d))
	}
	return fmt.Sprintf("SELECT name FROM pragma_table_info(%s) ORDER BY cid", table)
}
