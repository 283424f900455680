package spark

import (
	"github.com/johndauphine/tblprof/internal/dialect"
)

// Dialect implements dialect.Dialect for Spark SQL.
type Dialect struct{}

func (d *Dialect) DBType() string { return "spark" }

func (d *Dialect) QuoteIdentifier(name string) string {
	return dialect.QuoteWith(name, "`", "`")
}

func (d *Dialect) QualifyTable(schema, table string) string {
	return dialect.QualifyWith(d, schema, table)
}

func (d *Dialect) ColumnList(cols []string) string {
	return dialect.JoinQuoted(d, cols)
}

func (d *Dialect) TypeName(t dialect.Type) string {
	return "STRING"
}

func (d *Dialect) FunctionName(name string) string { return name }

func (d *Dialect) RenderSelect(s *dialect.Select) string {
	return dialect.RenderSelectLimit(d, s)
}

// RenderUnpivot casts every map value to STRING: under ANSI mode Spark
// refuses to build a map from mixed value types.
func (d *Dialect) RenderUnpivot(u *dialect.Unpivot) string {
	return dialect.RenderMapExplode(d, u, true)
}

func (d *Dialect) ListColumnsQuery(ref dialect.TableRef) string {
	return "SHOW COLUMNS IN " + d.QualifyTable(ref.Schema, ref.Name)
}
