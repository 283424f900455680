package querybuild

import (
	"fmt"

	"github.com/johndauphine/tblprof/internal/apperrors"
	"github.com/johndauphine/tblprof/internal/dialect"
)

// Aliases used in the generated SQL.
const (
	scanAlias = "t"
	mapAlias  = "metrics_map"
	expAlias  = "exp"
)

// ProfileQuery is a generated profiling statement and the metric keys it
// produces, in emission order.
type ProfileQuery struct {
	SQL   string
	Keys  []MetricKey
	Limit int64
}

// BuildProfileQuery builds the statement computing five metrics per column
// over table, limited to limit rows when limit > 0, and unpivoting them into
// (metric_name, metric_value) rows.
func BuildProfileQuery(d dialect.Dialect, table dialect.TableRef, columns []string, limit int64) (*ProfileQuery, error) {
	if err := validate(table, columns); err != nil {
		return nil, err
	}

	keys := MetricKeys(columns)
	entries := make([]dialect.MapEntry, len(keys))
	for i, k := range keys {
		entries[i] = dialect.MapEntry{Key: k.Name, Value: metricExpr(k.Kind, k.Column)}
	}

	u := &dialect.Unpivot{
		Entries:    entries,
		From:       dialect.Subquery{Query: scan(table, limit), Alias: scanAlias},
		MapAlias:   mapAlias,
		Alias:      expAlias,
		KeyAlias:   MetricNameColumn,
		ValueAlias: MetricValueColumn,
	}

	if limit < 0 {
		limit = 0
	}
	return &ProfileQuery{SQL: d.RenderUnpivot(u), Keys: keys, Limit: limit}, nil
}

// BuildRowCountQuery builds SELECT COUNT(*) FROM table.
func BuildRowCountQuery(d dialect.Dialect, table dialect.TableRef) (string, error) {
	if err := validateTable(table); err != nil {
		return "", err
	}
	return d.RenderSelect(&dialect.Select{
		Items: []dialect.SelectItem{{Expr: dialect.CountAll{}}},
		From:  dialect.TableSource{Ref: table},
	}), nil
}

// scan is SELECT * FROM table [LIMIT n].
func scan(table dialect.TableRef, limit int64) *dialect.Select {
	return &dialect.Select{
		Items: []dialect.SelectItem{{Expr: dialect.Star{}}},
		From:  dialect.TableSource{Ref: table},
		Limit: limit,
	}
}

func validate(table dialect.TableRef, columns []string) error {
	if err := validateTable(table); err != nil {
		return err
	}
	if len(columns) == 0 {
		return fmt.Errorf("%w: no columns to query for table %s", apperrors.ErrInvalidArguments, table)
	}
	if err := dialect.ValidateIdentifiers(columns); err != nil {
		return fmt.Errorf("column of %s: %w", table, err)
	}
	return nil
}

func validateTable(table dialect.TableRef) error {
	if table.Name == "" {
		return fmt.Errorf("%w: table name is required", apperrors.ErrInvalidArguments)
	}
	if table.Schema != "" {
		if err := dialect.ValidateIdentifier(table.Schema); err != nil {
			return err
		}
	}
	return dialect.ValidateIdentifier(table.Name)
}
