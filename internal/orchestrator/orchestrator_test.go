package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johndauphine/tblprof/internal/apperrors"
	"github.com/johndauphine/tblprof/internal/config"
	"github.com/johndauphine/tblprof/internal/dbconfig"
	"github.com/johndauphine/tblprof/internal/driver"
	"github.com/johndauphine/tblprof/internal/driver/drivertest"
	"github.com/johndauphine/tblprof/internal/driver/hive"
	"github.com/johndauphine/tblprof/internal/driver/sqlite"
	"github.com/johndauphine/tblprof/internal/history"
	"github.com/johndauphine/tblprof/internal/querybuild"
	"github.com/johndauphine/tblprof/internal/sampling"
)

// recorder wraps an executor and keeps every statement it runs.
type recorder struct {
	driver.Executor
	mu      sync.Mutex
	queries []string
}

func (r *recorder) Execute(ctx context.Context, query string, opts ...driver.Option) (*driver.Result, error) {
	r.mu.Lock()
	r.queries = append(r.queries, query)
	r.mu.Unlock()
	return r.Executor.Execute(ctx, query, opts...)
}

// newSQLite returns an orchestrator over a fresh in-memory SQLite database
// populated by the given statements.
func newSQLite(t *testing.T, setup ...string) (*Orchestrator, *recorder) {
	t.Helper()
	exec, err := (&sqlite.Driver{}).NewExecutor(&dbconfig.EngineConfig{})
	require.NoError(t, err)

	ctx := context.Background()
	for _, stmt := range setup {
		_, err := exec.Execute(ctx, stmt)
		require.NoError(t, err, stmt)
	}

	rec := &recorder{Executor: exec}
	o := NewWithExecutor("sqlite", rec, &sqlite.Dialect{}, Options{})
	t.Cleanup(func() { o.Close() })
	return o, rec
}

func metricMap(records []MetricRecord) map[string]string {
	m := make(map[string]string, len(records))
	for _, r := range records {
		m[r.Name] = r.Value
	}
	return m
}

var salesSetup = []string{
	`CREATE TABLE sales (id INTEGER, name TEXT)`,
	`INSERT INTO sales VALUES (1, 'a'), (1, 'a'), (2, 'b')`,
}

func TestCountDuplicatesFullSchema(t *testing.T) {
	o, _ := newSQLite(t, salesSetup...)
	ctx := context.Background()

	n, err := o.CountDuplicates(ctx, "sales", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	// Same input, same answer.
	again, err := o.CountDuplicates(ctx, "SALES", nil)
	require.NoError(t, err)
	assert.Equal(t, n, again)
}

func TestCountDuplicatesGroupSizes(t *testing.T) {
	o, _ := newSQLite(t,
		`CREATE TABLE events (kind TEXT, region TEXT, payload TEXT)`,
		// kind groups: x=3, y=2, z=1 -> (3-1) + (2-1) = 3
		`INSERT INTO events VALUES ('x','eu','1'),('x','eu','2'),('x','us','3'),('y','eu','4'),('y','us','5'),('z','eu','6')`,
	)
	ctx := context.Background()

	n, err := o.CountDuplicates(ctx, "events", []string{" Kind "})
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	// (x,eu)=2, everything else unique.
	n, err = o.CountDuplicates(ctx, "events", []string{"kind", "region"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = o.CountDuplicates(ctx, "events", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestCountDuplicatesInvalidColumn(t *testing.T) {
	o, rec := newSQLite(t, salesSetup...)

	_, err := o.CountDuplicates(context.Background(), "sales", []string{"id; DROP TABLE sales"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidArguments)
	assert.Empty(t, rec.queries)
}

func TestAnalyseTableAbsoluteLimitAboveRowCount(t *testing.T) {
	o, rec := newSQLite(t, salesSetup...)

	records, err := o.AnalyseTable(context.Background(), "sales", sampling.AbsoluteLimit(10000), "")
	require.NoError(t, err)

	require.Len(t, rec.queries, 2, "column listing plus one profiling query")
	assert.Contains(t, rec.queries[1], "LIMIT 10000")

	names := make([]string, len(records))
	for i, r := range records {
		names[i] = r.Name
	}
	assert.Equal(t, []string{
		"min_id", "max_id", "max_length_id", "distinct_id_pct", "null_id_pct",
		"min_name", "max_name", "max_length_name", "distinct_name_pct", "null_name_pct",
	}, names)

	m := metricMap(records)
	assert.Equal(t, "1", m["min_id"])
	assert.Equal(t, "2", m["max_id"])
	assert.Equal(t, "1", m["max_length_id"])
	assert.Equal(t, "66.67", m["distinct_id_pct"])
	assert.Equal(t, "0.00", m["null_id_pct"])
	assert.Equal(t, "a", m["min_name"])
	assert.Equal(t, "b", m["max_name"])
}

func TestAnalyseTableRepeatable(t *testing.T) {
	o, _ := newSQLite(t, salesSetup...)
	ctx := context.Background()

	for _, spec := range []sampling.Spec{sampling.NoSample(), sampling.AbsoluteLimit(2), sampling.FractionLimit(0.9)} {
		t.Run(spec.String(), func(t *testing.T) {
			first, err := o.AnalyseTable(ctx, "sales", spec, "")
			require.NoError(t, err)
			require.Len(t, first, 10)

			second, err := o.AnalyseTable(ctx, "sales", spec, "")
			require.NoError(t, err)
			assert.Equal(t, first, second)
		})
	}
}

func TestAnalyseTableNoSampleIssuesNoCount(t *testing.T) {
	o, rec := newSQLite(t, salesSetup...)

	_, err := o.AnalyseTable(context.Background(), "sales", sampling.NoSample(), "")
	require.NoError(t, err)
	require.Len(t, rec.queries, 2)
	assert.NotContains(t, rec.queries[1], "LIMIT")
}

func TestAnalyseTableExclusion(t *testing.T) {
	o, _ := newSQLite(t,
		`CREATE TABLE events (id INTEGER, tmp_flag INTEGER, name TEXT)`,
		`INSERT INTO events VALUES (1, 0, 'a'), (2, 1, 'b')`,
	)
	ctx := context.Background()

	cols, err := o.ListColumns(ctx, "events", "tmp")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name"}, cols)

	records, err := o.AnalyseTable(ctx, "events", sampling.NoSample(), "tmp")
	require.NoError(t, err)
	assert.Len(t, records, 10)
	for _, r := range records {
		assert.NotContains(t, r.Name, "tmp_flag")
	}
}

func TestAnalyseTableEverythingExcluded(t *testing.T) {
	o, rec := newSQLite(t, `CREATE TABLE t (col_a INTEGER, col_b INTEGER)`)

	_, err := o.AnalyseTable(context.Background(), "t", sampling.NoSample(), "col_")
	assert.ErrorIs(t, err, apperrors.ErrInvalidArguments)
	assert.Len(t, rec.queries, 1, "only the column listing runs")
}

func TestAnalyseTablePercentages(t *testing.T) {
	o, _ := newSQLite(t,
		`CREATE TABLE people (id INTEGER, name TEXT, city TEXT)`,
		`INSERT INTO people VALUES (1, 'ann', NULL), (2, NULL, NULL), (3, 'bob', 'oslo'), (4, 'ann', NULL)`,
	)

	records, err := o.AnalyseTable(context.Background(), "people", sampling.NoSample(), "")
	require.NoError(t, err)

	twoDecimals := regexp.MustCompile(`^\d{1,3}\.\d{2}$`)
	pct := 0
	for _, r := range records {
		if !strings.HasSuffix(r.Name, "_pct") {
			continue
		}
		pct++
		assert.Regexp(t, twoDecimals, r.Value, r.Name)
		v, err := strconv.ParseFloat(r.Value, 64)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, v, 0.0, r.Name)
		assert.LessOrEqual(t, v, 100.0, r.Name)
	}
	assert.Equal(t, 6, pct)

	m := metricMap(records)
	assert.Equal(t, "100.00", m["distinct_id_pct"])
	assert.Equal(t, "25.00", m["null_name_pct"])
	assert.Equal(t, "75.00", m["null_city_pct"])
}

func TestAnalyseTableFractionFromRowCount(t *testing.T) {
	fake := drivertest.New().
		On("LATERAL VIEW",
			[]string{"metric_name", "metric_value"},
			[]string{"null_id_pct", "0.0"},
			[]string{"max_id", "10"},
			[]string{"min_id", "1"},
			[]string{"distinct_id_pct", "100"},
			[]string{"max_length_id", "2"},
		).
		On("SHOW COLUMNS", []string{"id"}).
		On("COUNT(*)", []string{"10"})
	o := NewWithExecutor("hive", fake, &hive.Dialect{}, Options{})

	records, err := o.AnalyseTable(context.Background(), "sales", sampling.FractionLimit(0.5), "")
	require.NoError(t, err)

	queries := fake.Queries()
	require.Len(t, queries, 3)
	assert.Contains(t, queries[0], "SHOW COLUMNS")
	assert.Contains(t, queries[1], "COUNT(*)")
	assert.Contains(t, queries[2], "LIMIT 5")

	assert.Equal(t, []MetricRecord{
		{Name: "min_id", Value: "1"},
		{Name: "max_id", Value: "10"},
		{Name: "max_length_id", Value: "2"},
		{Name: "distinct_id_pct", Value: "100.00"},
		{Name: "null_id_pct", Value: "0.00"},
	}, records)
}

func TestAnalyseTableDefaultSchema(t *testing.T) {
	fake := drivertest.New().On("SHOW COLUMNS", []string{"id"})
	o := NewWithExecutor("hive", fake, &hive.Dialect{}, Options{Schema: "warehouse"})

	_, err := o.AnalyseTable(context.Background(), "sales", sampling.NoSample(), "")
	require.NoError(t, err)
	assert.Contains(t, fake.Queries()[0], "warehouse")

	fake2 := drivertest.New().On("SHOW COLUMNS", []string{"id"})
	o2 := NewWithExecutor("hive", fake2, &hive.Dialect{}, Options{Schema: "warehouse"})
	_, err = o2.AnalyseTable(context.Background(), "staging.sales", sampling.NoSample(), "")
	require.NoError(t, err)
	assert.NotContains(t, fake2.Queries()[0], "warehouse")
}

func TestOperationsRejectMissingTable(t *testing.T) {
	fake := drivertest.New()
	o := NewWithExecutor("hive", fake, &hive.Dialect{}, Options{})
	ctx := context.Background()

	_, err := o.ListColumns(ctx, "", "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidArguments)
	_, err = o.CountDuplicates(ctx, "  ", nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidArguments)
	_, err = o.AnalyseTable(ctx, "", sampling.NoSample(), "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidArguments)
	_, err = o.AnalyseTables(ctx, nil, sampling.NoSample(), "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidArguments)

	assert.Empty(t, fake.Queries(), "argument checks happen before any query")
}

func TestSchemaUnavailable(t *testing.T) {
	fake := drivertest.New().OnError("SHOW COLUMNS", &driver.EngineError{
		Engine: "hive", ExitCode: 2, Message: "Error: Table not found 'missing'",
	})
	o := NewWithExecutor("hive", fake, &hive.Dialect{}, Options{})

	_, err := o.AnalyseTable(context.Background(), "missing", sampling.NoSample(), "")
	assert.ErrorIs(t, err, apperrors.ErrSchemaUnavailable)
	assert.Contains(t, err.Error(), "Table not found 'missing'")
	assert.Len(t, fake.Queries(), 1)
}

func TestToolUnavailable(t *testing.T) {
	cfg := &config.Config{
		Engine:  dbconfig.EngineConfig{Type: "hive", Binary: "definitely-not-a-real-beeline-binary"},
		History: config.HistoryConfig{Disabled: true},
	}
	o, err := New(cfg)
	require.NoError(t, err)
	defer o.Close()

	_, err = o.ListColumns(context.Background(), "sales", "")
	assert.ErrorIs(t, err, apperrors.ErrToolUnavailable)

	health, err := o.HealthCheck(context.Background())
	require.NoError(t, err)
	assert.False(t, health.Healthy)
	assert.Equal(t, "hive", health.Engine)
	assert.NotEmpty(t, health.Error)
}

func TestHealthCheck(t *testing.T) {
	o, _ := newSQLite(t)
	health, err := o.HealthCheck(context.Background())
	require.NoError(t, err)
	assert.True(t, health.Healthy)
	assert.True(t, health.Connected)
	assert.Empty(t, health.Error)

	fake := drivertest.New()
	fake.PingErr = apperrors.ErrConnectionFailure
	o2 := NewWithExecutor("hive", fake, &hive.Dialect{}, Options{})
	health, err = o2.HealthCheck(context.Background())
	require.NoError(t, err)
	assert.False(t, health.Healthy)
	assert.Contains(t, health.Error, "connection failure")
}

func TestAnalyseTablesBatchWithHistory(t *testing.T) {
	o, _ := newSQLite(t, salesSetup...)
	state, err := history.Open(":memory:")
	require.NoError(t, err)
	o.SetHistory(state)

	var bar bytes.Buffer
	o.opts.Progress = &bar

	ctx := context.Background()
	result, err := o.AnalyseTables(ctx, []string{"sales", "missing"}, sampling.NoSample(), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrSchemaUnavailable)
	assert.Contains(t, err.Error(), "missing")

	require.Len(t, result.Tables, 2)
	assert.Empty(t, result.Tables[0].Error)
	assert.Len(t, result.Tables[0].Metrics, 10)
	assert.NotEmpty(t, result.Tables[1].Error)
	assert.Equal(t, []string{"missing"}, result.FailedTables)
	assert.Equal(t, history.StatusFailed, result.Status)
	assert.Contains(t, bar.String(), "Profiled 2 tables")

	run, err := state.GetRunByID(ctx, result.RunID)
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, OpAnalyse, run.Operation)
	assert.Equal(t, "sqlite", run.Engine)
	assert.Equal(t, []string{"sales", "missing"}, run.Tables)
	assert.Equal(t, history.StatusFailed, run.Status)

	metrics, err := state.GetMetrics(ctx, result.RunID)
	require.NoError(t, err)
	assert.Len(t, metrics, 10)
	assert.Equal(t, "sales", metrics[0].Table)
	assert.Equal(t, "min_id", metrics[0].Name)

	// Duplicate counts are recorded as their own run.
	_, err = o.CountDuplicates(ctx, "sales", nil)
	require.NoError(t, err)
	runs, err := o.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, OpDuplicates, runs[0].Operation)
	require.NotNil(t, runs[0].Duplicates)
	assert.Equal(t, int64(1), *runs[0].Duplicates)

	var out bytes.Buffer
	o.SetOutput(&out)
	require.NoError(t, o.ShowHistory(ctx))
	assert.Contains(t, out.String(), result.RunID)
	assert.Contains(t, out.String(), "duplicates")

	out.Reset()
	require.NoError(t, o.ShowRunDetails(ctx, result.RunID))
	assert.Contains(t, out.String(), "distinct_name_pct")
	assert.Contains(t, out.String(), "Status:    failed")

	assert.Error(t, o.ShowRunDetails(ctx, "no-such-run"))
}

func TestHistoryDisabled(t *testing.T) {
	o, _ := newSQLite(t, salesSetup...)
	ctx := context.Background()

	// Operations still work and get a run ID.
	result, err := o.AnalyseTables(ctx, []string{"sales"}, sampling.NoSample(), "")
	require.NoError(t, err)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, history.StatusSuccess, result.Status)

	assert.ErrorIs(t, o.ShowHistory(ctx), errHistoryDisabled)
	assert.ErrorIs(t, o.ShowRunDetails(ctx, result.RunID), errHistoryDisabled)
}

func TestCollectMetrics(t *testing.T) {
	keys := querybuild.MetricKeys([]string{"a"})

	tests := []struct {
		name string
		res  *driver.Result
		want []MetricRecord
	}{
		{
			name: "nil result",
			res:  nil,
			want: []MetricRecord{},
		},
		{
			name: "header and short rows dropped",
			res: &driver.Result{Rows: [][]string{
				{"metric_name", "metric_value"},
				{"min_a"},
				{"max_a", " z "},
			}},
			want: []MetricRecord{{Name: "max_a", Value: "z"}},
		},
		{
			name: "percentages normalized, NULL kept",
			res: &driver.Result{Rows: [][]string{
				{"null_a_pct", "NULL"},
				{"distinct_a_pct", "33.3333"},
			}},
			want: []MetricRecord{
				{Name: "distinct_a_pct", Value: "33.33"},
				{Name: "null_a_pct", Value: "NULL"},
			},
		},
		{
			name: "leading quote does not swallow later rows",
			res: driver.ParseDelimited("min_a|\"abc\nmax_a|zzz\nmax_length_a|4\n", '|', false),
			want: []MetricRecord{
				{Name: "min_a", Value: `"abc`},
				{Name: "max_a", Value: "zzz"},
				{Name: "max_length_a", Value: "4"},
			},
		},
		{
			name: "delimiter inside value",
			res:  driver.ParseDelimited("min_a|a|b\nmax_a|z\n", '|', false),
			want: []MetricRecord{
				{Name: "min_a", Value: "a|b"},
				{Name: "max_a", Value: "z"},
			},
		},
		{
			name: "tab delimiter inside value",
			res:  driver.ParseDelimited("min_a\tx\ty\tz\n", '\t', false),
			want: []MetricRecord{{Name: "min_a", Value: "x\ty\tz"}},
		},
		{
			name: "repeated name keeps last row",
			res: &driver.Result{Rows: [][]string{
				{"min_a", "first"},
				{"min_a", "second"},
			}},
			want: []MetricRecord{{Name: "min_a", Value: "second"}},
		},
		{
			name: "unknown names follow known ones",
			res: &driver.Result{Rows: [][]string{
				{"extra", "1"},
				{"min_a", "0"},
			}},
			want: []MetricRecord{
				{Name: "min_a", Value: "0"},
				{Name: "extra", Value: "1"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, collectMetrics(tt.res, keys))
		})
	}
}

func TestCloseReportsErrors(t *testing.T) {
	fake := drivertest.New()
	o := NewWithExecutor("hive", fake, &hive.Dialect{}, Options{})
	o.SetHistory(failingHistory{})

	err := o.Close()
	assert.True(t, fake.Closed())
	assert.True(t, errors.Is(err, errCloseFailed))
}

var errCloseFailed = errors.New("close failed")

type failingHistory struct{ history.Backend }

func (failingHistory) Close() error { return errCloseFailed }
