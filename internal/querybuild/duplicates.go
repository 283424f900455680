package querybuild

import (
	"github.com/johndauphine/tblprof/internal/dialect"
)

// DuplicateCountColumn is the alias of the duplicate count.
const DuplicateCountColumn = "n"

// BuildDuplicateQuery builds a query counting rows that repeat an earlier
// row over columns:
//
//	SELECT COUNT(*) AS n FROM (SELECT <cols>, ROW_NUMBER() OVER
//	  (PARTITION BY <cols> ORDER BY <first col>) AS rn FROM <table>) t WHERE rn > 1
//
// The ORDER BY key is constant within a partition, so which row ranks first
// is arbitrary; only the count, the sum of (group size - 1), is meaningful.
func BuildDuplicateQuery(d dialect.Dialect, table dialect.TableRef, columns []string) (string, error) {
	if err := validate(table, columns); err != nil {
		return "", err
	}

	cols := make([]dialect.Expr, len(columns))
	items := make([]dialect.SelectItem, 0, len(columns)+1)
	for i, c := range columns {
		cols[i] = dialect.Column{Name: c}
		items = append(items, dialect.SelectItem{Expr: cols[i]})
	}
	items = append(items, dialect.SelectItem{
		Expr:  dialect.RowNumber{PartitionBy: cols, OrderBy: cols[:1]},
		Alias: "rn",
	})

	ranked := &dialect.Select{
		Items: items,
		From:  dialect.TableSource{Ref: table},
	}
	return d.RenderSelect(&dialect.Select{
		Items: []dialect.SelectItem{{Expr: dialect.CountAll{}, Alias: DuplicateCountColumn}},
		From:  dialect.Subquery{Query: ranked, Alias: scanAlias},
		Where: dialect.Binary{Left: dialect.Ref{Name: "rn"}, Op: ">", Right: dialect.Int(1)},
	}), nil
}
