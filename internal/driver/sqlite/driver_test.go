package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johndauphine/tblprof/internal/dbconfig"
	"github.com/johndauphine/tblprof/internal/dialect"
	"github.com/johndauphine/tblprof/internal/driver"
	"github.com/johndauphine/tblprof/internal/driver/sqlexec"
)

func TestDriverRegistered(t *testing.T) {
	d, err := driver.Get("sqlite3")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", d.Name())
	assert.Equal(t, "main", d.Defaults().Schema)
}

func TestListColumnsQuery(t *testing.T) {
	d := &Dialect{}
	assert.Equal(t, "SELECT name FROM pragma_table_info('t') ORDER BY cid",
		d.ListColumnsQuery(dialect.TableRef{Name: "t"}))
	assert.Equal(t, "SELECT name FROM pragma_table_info('t', 'main') ORDER BY cid",
		d.ListColumnsQuery(dialect.TableRef{Schema: "main", Name: "t"}))
}

func TestInMemoryExecutor(t *testing.T) {
	ex, err := (&Driver{}).NewExecutor(&dbconfig.EngineConfig{MaxConns: 8})
	require.NoError(t, err)
	defer ex.Close()

	ctx := context.Background()
	_, err = ex.Execute(ctx, `CREATE TABLE t (id INTEGER, tmp_flag INTEGER, name TEXT)`)
	require.NoError(t, err)

	// A second statement must see the same in-memory database.
	res, err := ex.Execute(ctx, (&Dialect{}).ListColumnsQuery(dialect.TableRef{Name: "t"}))
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "tmp_flag", "name"}, res.Column(0))
}

func TestRenderUnpivotExecutes(t *testing.T) {
	ex, err := (&Driver{}).NewExecutor(&dbconfig.EngineConfig{})
	require.NoError(t, err)
	defer ex.Close()

	ctx := context.Background()
	_, err = ex.Execute(ctx, `CREATE TABLE t (id INTEGER)`)
	require.NoError(t, err)
	_, err = ex.Execute(ctx, `INSERT INTO t VALUES (3), (1), (2)`)
	require.NoError(t, err)

	d := &Dialect{}
	col := dialect.Column{Name: "id"}
	u := &dialect.Unpivot{
		Entries: []dialect.MapEntry{
			{Key: "min_id", Value: dialect.AsString(dialect.Func{Name: "MIN", Args: []dialect.Expr{col}})},
			{Key: "max_id", Value: dialect.AsString(dialect.Func{Name: "MAX", Args: []dialect.Expr{col}})},
		},
		From:       dialect.Subquery{Query: &dialect.Select{Items: []dialect.SelectItem{{Expr: dialect.Star{}}}, From: dialect.TableSource{Ref: dialect.TableRef{Name: "t"}}}, Alias: "t"},
		MapAlias:   "metrics_map",
		Alias:      "exp",
		KeyAlias:   "metric_name",
		ValueAlias: "metric_value",
	}

	res, err := ex.Execute(ctx, d.RenderUnpivot(u))
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"min_id", "1"}, {"max_id", "3"}}, res.Rows)
}

func TestFileDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.db")
	ex, err := (&Driver{}).NewExecutor(&dbconfig.EngineConfig{Path: path, MaxConns: 2})
	require.NoError(t, err)
	defer ex.Close()

	se, ok := ex.(*sqlexec.Executor)
	require.True(t, ok)
	assert.Equal(t, 2, se.DB().Stats().MaxOpenConnections)
}
