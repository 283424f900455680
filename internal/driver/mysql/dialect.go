package mysql

import (
	"github.com/johndauphine/tblprof/internal/dialect"
)

// Dialect implements dialect.Dialect for MySQL/MariaDB.
type Dialect struct{}

func (d *Dialect) DBType() string { return "mysql" }

func (d *Dialect) QuoteIdentifier(name string) string {
	return dialect.QuoteWith(name, "`", "`")
}

func (d *Dialect) QualifyTable(schema, table string) string {
	// MySQL uses database.table, but schema is often empty (database is in DSN)
	return dialect.QualifyWith(d, schema, table)
}

func (d *Dialect) ColumnList(cols []string) string {
	return dialect.JoinQuoted(d, cols)
}

// TypeName returns CHAR, the only string target CAST accepts.
func (d *Dialect) TypeName(t dialect.Type) string { return "CHAR" }

// FunctionName maps LENGTH to CHAR_LENGTH; MySQL's LENGTH counts bytes.
func (d *Dialect) FunctionName(name string) string {
	if name == "LENGTH" {
		return "CHAR_LENGTH"
	}
	return name
}

func (d *Dialect) RenderSelect(s *dialect.Select) string {
	return dialect.RenderSelectLimit(d, s)
}

// RenderUnpivot uses a lateral UNION ALL; MySQL has no lateral VALUES list.
// Requires MySQL 8.0.14 or later.
func (d *Dialect) RenderUnpivot(u *dialect.Unpivot) string {
	return dialect.RenderUnionUnpivot(d, u, "CROSS JOIN LATERAL")
}

func (d *Dialect) ListColumnsQuery(ref dialect.TableRef) string {
	return dialect.InformationSchemaColumns(d, ref, "DATABASE()")
}
