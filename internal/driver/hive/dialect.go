package hive

import (
	"github.com/johndauphine/tblprof/internal/dialect"
)

// Dialect implements dialect.Dialect for HiveQL.
type Dialect struct{}

func (d *Dialect) DBType() string { return "hive" }

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

// RenderUnpivot builds a map() literal and explodes it with LATERAL VIEW.
// Hive coerces the map's mixed value types to a common type, so values are
// left uncast.
func (d *Dialect) RenderUnpivot(u *dialect.Unpivot) string {
	return dialect.RenderMapExplode(d, u, false)
}

func (d *Dialect) ListColumnsQuery(ref dialect.TableRef) string {
	return "SHOW COLUMNS IN " + d.QualifyTable(ref.Schema, ref.Name)
}
