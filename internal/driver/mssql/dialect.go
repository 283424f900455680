package mssql

import (
	"github.com/johndauphine/tblprof/internal/dialect"
)

// Dialect implements dialect.Dialect for SQL Server.
type Dialect struct{}

func (d *Dialect) DBType() string { return "mssql" }

func (d *Dialect) QuoteIdentifier(name string) string {
	return dialect.QuoteWith(name, "[", "]")
}

func (d *Dialect) QualifyTable(schema, table string) string {
	return dialect.QualifyWith(d, schema, table)
}

func (d *Dialect) ColumnList(cols []string) string {
	return dialect.JoinQuoted(d, cols)
}

func (d *Dialect) TypeName(t dialect.Type) string { return "NVARCHAR(4000)" }

// FunctionName maps LENGTH to LEN. LEN ignores trailing spaces, unlike
// LENGTH elsewhere.
func (d *Dialect) FunctionName(name string) string {
	if name == "LENGTH" {
		return "LEN"
	}
	return name
}

// RenderSelect renders the row limit as TOP (n).
func (d *Dialect) RenderSelect(s *dialect.Select) string {
	return dialect.RenderSelectTop(d, s)
}

func (d *Dialect) RenderUnpivot(u *dialect.Unpivot) string {
	return dialect.RenderValuesUnpivot(d, u, "CROSS APPLY")
}

func (d *Dialect) ListColumnsQuery(ref dialect.TableRef) string {
	return dialect.InformationSchemaColumns(d, ref, "SCHEMA_NAME()")
}
