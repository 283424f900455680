package postgres

import (
	"errors"
	"testing"

	"github.com/johndauphine/tblprof/internal/apperrors"
	"github.com/johndauphine/tblprof/internal/dbconfig"
	"github.com/johndauphine/tblprof/internal/dialect"
	"github.com/johndauphine/tblprof/internal/driver"
)

func TestDriverRegistered(t *testing.T) {
	d, err := driver.Get("pg")
	if err != nil {
		t.Fatalf("driver.Get(pg) error: %v", err)
	}
	if d.Name() != "postgres" {
		t.Errorf("Name() = %q, want postgres", d.Name())
	}
	if got := d.Defaults(); got.Port != 5432 || got.Schema != "public" {
		t.Errorf("Defaults() = %+v", got)
	}
}

func TestDialect(t *testing.T) {
	d := &Dialect{}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"quote", d.QuoteIdentifier(`a"b`), `"a""b"`},
		{"qualify", d.QualifyTable("public", "sales"), `"public"."sales"`},
		{"columns", d.ColumnList([]string{"id", "name"}), `"id", "name"`},
		{"cast", dialect.AsString(dialect.Column{Name: "id"}).SQL(d), `CAST("id" AS TEXT)`},
		{"list columns default schema", d.ListColumnsQuery(dialect.TableRef{Name: "sales"}),
			"SELECT column_name FROM information_schema.columns WHERE table_schema = current_schema() AND table_name = 'sales' ORDER BY ordinal_position"},
		{"list columns schema", d.ListColumnsQuery(dialect.TableRef{Schema: "dw", Name: "sales"}),
			"SELECT column_name FROM information_schema.columns WHERE table_schema = 'dw' AND table_name = 'sales' ORDER BY ordinal_position"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestRenderUnpivot(t *testing.T) {
	d := &Dialect{}
	u := &dialect.Unpivot{
		Entries: []dialect.MapEntry{
			{Key: "min_id", Value: dialect.AsString(dialect.Func{Name: "MIN", Args: []dialect.Expr{dialect.Column{Name: "id"}}})},
			{Key: "null_id_pct", Value: dialect.Func{Name: "ROUND", Args: []dialect.Expr{dialect.Number("1.0"), dialect.Int(2)}}},
		},
		From: dialect.Subquery{
			Query: &dialect.Select{Items: []dialect.SelectItem{{Expr: dialect.Star{}}}, From: dialect.TableSource{Ref: dialect.TableRef{Name: "t"}}, Limit: 10},
			Alias: "t",
		},
		MapAlias:   "metrics_map",
		Alias:      "exp",
		KeyAlias:   "metric_name",
		ValueAlias: "metric_value",
	}

	want := `SELECT v.metric_name, v.metric_value FROM (SELECT CAST(MIN("id") AS TEXT) AS m0, ROUND(1.0, 2) AS m1 ` +
		`FROM (SELECT * FROM "t" LIMIT 10) t) exp CROSS JOIN LATERAL (VALUES (1, 'min_id', CAST(exp.m0 AS TEXT)), ` +
		`(2, 'null_id_pct', CAST(exp.m1 AS TEXT))) AS v(ord, metric_name, metric_value) ORDER BY v.ord`
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

func TestNewExecutorUnreachable(t *testing.T) {
	_, err := (&Driver{}).NewExecutor(&dbconfig.EngineConfig{
		DSN: "postgres://u:p@127.0.0.1:1/db?sslmode=disable&connect_timeout=2",
	})
	if !errors.Is(err, apperrors.ErrConnectionFailure) {
		t.Errorf("NewExecutor() error = %v, want ErrConnectionFailure", err)
	}
}
