package mysql

import (
	"errors"
	"testing"

	"github.com/johndauphine/tblprof/internal/apperrors"
	"github.com/johndauphine/tblprof/internal/dbconfig"
	"github.com/johndauphine/tblprof/internal/dialect"
	"github.com/johndauphine/tblprof/internal/driver"
)

func TestDriverRegistered(t *testing.T) {
	d, err := driver.Get("mariadb")
	if err != nil {
		t.Fatalf("driver.Get(mariadb) error: %v", err)
	}
	if d.Name() != "mysql" || d.Defaults().Port != 3306 {
		t.Errorf("driver = %s %+v", d.Name(), d.Defaults())
	}
}

func TestDialectFunctions(t *testing.T) {
	d := &Dialect{}
	length := dialect.Func{Name: "LENGTH", Args: []dialect.Expr{dialect.AsString(dialect.Column{Name: "name"})}}
	if got, want := length.SQL(d), "CHAR_LENGTH(CAST(`name` AS CHAR))"; got != want {
		t.Errorf("LENGTH rendering = %q, want %q", got, want)
	}
	if got, want := d.FunctionName("MIN"), "MIN"; got != want {
		t.Errorf("FunctionName(MIN) = %q, want %q", got, want)
	}
}

func TestRenderUnpivot(t *testing.T) {
	d := &Dialect{}
	u := &dialect.Unpivot{
		Entries: []dialect.MapEntry{
			{Key: "min_id", Value: dialect.AsString(dialect.Func{Name: "MIN", Args: []dialect.Expr{dialect.Column{Name: "id"}}})},
			{Key: "max_id", Value: dialect.AsString(dialect.Func{Name: "MAX", Args: []dialect.Expr{dialect.Column{Name: "id"}}})},
		},
		From:       dialect.Subquery{Query: &dialect.Select{Items: []dialect.SelectItem{{Expr: dialect.Star{}}}, From: dialect.TableSource{Ref: dialect.TableRef{Name: "t"}}, Limit: 3}, Alias: "t"},
		MapAlias:   "metrics_map",
		Alias:      "exp",
		KeyAlias:   "metric_name",
		ValueAlias: "metric_value",
	}
	want := "SELECT v.metric_name, v.metric_value FROM (SELECT CAST(MIN(`id`) AS CHAR) AS m0, CAST(MAX(`id`) AS CHAR) AS m1 " +
		"FROM (SELECT * FROM `t` LIMIT 3) t) exp CROSS JOIN LATERAL (" +
		"SELECT 1 AS ord, 'min_id' AS metric_name, CAST(exp.m0 AS CHAR) AS metric_value UNION ALL " +
		"SELECT 2, 'max_id', CAST(exp.m1 AS CHAR)) AS v ORDER BY v.ord"
	if got := d.RenderUnpivot(u); got != want {
		t.Errorf("RenderUnpivot() =\n%s\nwant\n%s", got, want)
	}
}

func TestNewExecutorRequiresDSN(t *testing.T) {
	_, err := (&Driver{}).NewExecutor(&dbconfig.EngineConfig{})
	if !errors.Is(err, apperrors.ErrInvalidArguments) {
		t.Errorf("NewExecutor() error = %v, want ErrInvalidArguments", err)
	}
}
