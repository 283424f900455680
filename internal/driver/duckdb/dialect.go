package duckdb

import (
	"fmt"

	"github.com/johndauphine/tblprof/internal/dialect"
)

// Dialect implements dialect.Dialect for DuckDB.
type Dialect struct{}

func (d *Dialect) DBType() string { return "duckdb" }

func (d *Dialect) QuoteIdentifier(name string) string {
	return dialect.QuoteWith(name, `"`, `"`)
}

func (d *Dialect) QualifyTable(schema, table string) string {
	return dialect.QualifyWith(d, schema, table)
}

func (d *Dialect) ColumnList(cols []string) string {
	return dialect.JoinQuoted(d, cols)
}

func (d *Dialect) TypeName(t dialect.Type) string { return "VARCHAR" }

func (d *Dialect) FunctionName(name string) string { return name }

func (d *Dialect) RenderSelect(s *dialect.Select) string {
	return dialect.RenderSelectLimit(d, s)
}

// RenderUnpivot builds a MAP literal (values cast to VARCHAR, since a MAP
// has one value type) and unnests its keys and values side by side.
func (d *Dialect) RenderUnpivot(u *dialect.Unpivot) string {
	return fmt.Sprintf("SELECT unnest(map_keys(%[3]s)) AS %[1]s, unnest(map_values(%[3]s)) AS %[2]s FROM (SELECT MAP {%[4]s} AS %[3]s FROM %[5]s) %[6]s",
		u.KeyAlias, u.ValueAlias, u.MapAlias,
		dialect.KeyValueList(d, u.Entries, ": ", true),
		u.From.SQL(d), u.Alias)
}

func (d *Dialect) ListColumnsQuery(ref dialect.TableRef) string {
	return dialect.InformationSchemaColumns(d, ref, "current_schema()")
}
