package postgres

import (
	"github.com/johndauphine/tblprof/internal/dialect"
)

// Dialect implements dialect.Dialect for PostgreSQL.
type Dialect struct{}

func (d *Dialect) DBType() string { return "postgres" }

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

// RenderUnpivot aggregates once and fans the metrics out through a lateral
// VALUES list, keeping key order.
func (d *Dialect) RenderUnpivot(u *dialect.Unpivot) string {
	return dialect.RenderValuesUnpivot(d, u, "CROSS JOIN LATERAL")
}

func (d *Dialect) ListColumnsQuery(ref dialect.TableRef) string {
	return dialect.InformationSchemaColumns(d, ref, "current_schema()")
}
