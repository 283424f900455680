package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/johndauphine/tblprof/internal/apperrors"
	"github.com/johndauphine/tblprof/internal/dialect"
	"github.com/johndauphine/tblprof/internal/driver"
	"github.com/johndauphine/tblprof/internal/history"
	"github.com/johndauphine/tblprof/internal/logging"
	"github.com/johndauphine/tblprof/internal/progress"
	"github.com/johndauphine/tblprof/internal/querybuild"
	"github.com/johndauphine/tblprof/internal/sampling"
	"github.com/johndauphine/tblprof/internal/util"
)

// Operation names recorded in run history.
const (
	OpDuplicates = "duplicates"
	OpAnalyse    = "analyse"
)

// ListColumns returns the columns of table in schema order, minus those
// containing exclude when exclude is non-empty.
func (o *Orchestrator) ListColumns(ctx context.Context, table, exclude string) ([]string, error) {
	ref, err := o.tableRef(table)
	if err != nil {
		return nil, err
	}
	if err := o.connect(); err != nil {
		return nil, err
	}
	return o.columns.ListColumns(ctx, ref, exclude)
}

// CountDuplicates returns the number of rows of table that repeat an
// earlier row over columns. Column names are case-folded and repeats dropped;
// with no columns the full schema is used.
func (o *Orchestrator) CountDuplicates(ctx context.Context, table string, columns []string) (int64, error) {
	ref, err := o.tableRef(table)
	if err != nil {
		return 0, err
	}
	if err := o.connect(); err != nil {
		return 0, err
	}

	runID := o.startRun(ctx, OpDuplicates, []string{ref.String()})
	count, err := o.countDuplicates(ctx, ref, columns)
	if err == nil {
		o.saveDuplicates(ctx, runID, ref.String(), count)
	}
	o.finishRun(ctx, runID, err)
	return count, err
}

func (o *Orchestrator) countDuplicates(ctx context.Context, ref dialect.TableRef, columns []string) (int64, error) {
	columns = util.NormalizeColumns(columns)
	if len(columns) == 0 {
		cols, err := o.columns.ListColumns(ctx, ref, "")
		if err != nil {
			return 0, err
		}
		columns = cols
	}

	query, err := querybuild.BuildDuplicateQuery(o.dialect, ref, columns)
	if err != nil {
		return 0, err
	}
	res, err := o.exec.Execute(ctx, query)
	if err != nil {
		return 0, err
	}
	count, err := res.FirstInt()
	if err != nil {
		return 0, fmt.Errorf("reading duplicate count for %s: %w", ref, err)
	}
	logging.Debug("%s: %d duplicate rows over %d columns", ref, count, len(columns))
	return count, nil
}

// AnalyseTable profiles one table and returns its metrics.
func (o *Orchestrator) AnalyseTable(ctx context.Context, table string, spec sampling.Spec, exclude string) ([]MetricRecord, error) {
	result, err := o.analyse(ctx, []string{table}, spec, exclude, nil)
	if err != nil {
		return nil, err
	}
	return result.Tables[0].Metrics, nil
}

// AnalyseTables profiles each table in turn, reusing one executor. A table
// that fails does not stop the others; the returned error joins every
// per-table failure and the result lists all tables.
func (o *Orchestrator) AnalyseTables(ctx context.Context, tables []string, spec sampling.Spec, exclude string) (*AnalyseResult, error) {
	tracker := progress.New(o.opts.Progress)
	if o.opts.Progress != nil && len(tables) > 1 {
		tracker.SetTotal(int64(len(tables)))
		defer tracker.Finish()
	}
	return o.analyse(ctx, tables, spec, exclude, tracker)
}

func (o *Orchestrator) analyse(ctx context.Context, tables []string, spec sampling.Spec, exclude string, tracker *progress.Tracker) (*AnalyseResult, error) {
	refs := make([]dialect.TableRef, len(tables))
	names := make([]string, len(tables))
	for i, t := range tables {
		ref, err := o.tableRef(t)
		if err != nil {
			return nil, err
		}
		refs[i] = ref
		names[i] = ref.String()
	}
	if len(refs) == 0 {
		return nil, fmt.Errorf("%w: at least one table is required", apperrors.ErrInvalidArguments)
	}
	if err := o.connect(); err != nil {
		return nil, err
	}

	result := &AnalyseResult{
		Engine:    o.engine,
		StartedAt: time.Now(),
		Tables:    make([]TableProfile, 0, len(refs)),
	}
	result.RunID = o.startRun(ctx, OpAnalyse, names)
	logging.Info("Profiling %d table(s) on %s (run %s, sample %s)", len(refs), o.engine, result.RunID, spec)

	var errs, tableErrs []error
	for _, ref := range refs {
		if tracker != nil {
			tracker.Describe(ref.String())
		}

		profile, err := o.profileTable(ctx, ref, spec, exclude)
		if err != nil {
			profile.Error = err.Error()
			result.FailedTables = append(result.FailedTables, ref.String())
			tableErrs = append(tableErrs, err)
			errs = append(errs, fmt.Errorf("%s: %w", ref, err))
			logging.Error("Profiling %s failed: %v", ref, err)
		} else {
			o.saveMetrics(ctx, result.RunID, profile)
		}
		result.Tables = append(result.Tables, *profile)

		if tracker != nil {
			tracker.Done(err != nil)
		}
		if ctx.Err() != nil {
			break
		}
	}

	err := errors.Join(errs...)
	result.CompletedAt = time.Now()
	result.DurationSeconds = result.CompletedAt.Sub(result.StartedAt).Seconds()
	result.Status = history.StatusSuccess
	if err != nil {
		result.Status = history.StatusFailed
	}
	o.finishRun(ctx, result.RunID, err)

	if len(refs) == 1 && err != nil {
		return result, tableErrs[0]
	}
	return result, err
}

// profileTable lists columns, resolves the sample size, runs the profiling
// query and returns its metrics in emission order.
func (o *Orchestrator) profileTable(ctx context.Context, ref dialect.TableRef, spec sampling.Spec, exclude string) (*TableProfile, error) {
	start := time.Now()
	profile := &TableProfile{Table: ref.String(), Sample: spec.String()}
	defer func() { profile.DurationMs = time.Since(start).Milliseconds() }()

	columns, err := o.columns.ListColumns(ctx, ref, exclude)
	if err != nil {
		return profile, err
	}
	profile.Columns = columns
	if w := o.opts.WideTableWarning; w > 0 && len(columns) > w {
		logging.Warn("%s has %d columns; the profiling query holds %d expressions and may exceed engine limits",
			ref, len(columns), len(columns)*len(querybuild.Kinds))
	}

	limit, ok, err := o.sampler.Resolve(ctx, spec, ref)
	if err != nil {
		return profile, err
	}
	if !ok {
		limit = 0
	}
	profile.RowLimit = limit

	pq, err := querybuild.BuildProfileQuery(o.dialect, ref, columns, limit)
	if err != nil {
		return profile, err
	}
	res, err := o.exec.Execute(ctx, pq.SQL)
	if err != nil {
		return profile, err
	}

	profile.Metrics = collectMetrics(res, pq.Keys)
	logging.Debug("%s: %d metrics over %d columns (limit %d)", ref, len(profile.Metrics), len(columns), limit)
	return profile, nil
}

// collectMetrics turns (metric_name, metric_value) rows into records ordered
// by keys. A header row is dropped, percentages are rendered with two
// decimals, and names the engine returned that are not among keys follow
// in output order. When a name repeats, the last row wins, as it does for
// duplicate keys in a Hive map literal.
func collectMetrics(res *driver.Result, keys []querybuild.MetricKey) []MetricRecord {
	if res == nil {
		return []MetricRecord{}
	}
	values := make(map[string]string, res.Len())
	var order []string
	for _, row := range res.Rows {
		if len(row) < 2 {
			continue
		}
		name := strings.TrimSpace(row[0])
		if name == "" || name == querybuild.MetricNameColumn {
			continue
		}
		if _, seen := values[name]; !seen {
			order = append(order, name)
		}
		values[name] = strings.TrimSpace(res.Rest(row, 1))
	}

	records := make([]MetricRecord, 0, len(values))
	emitted := make(map[string]bool, len(values))
	for _, k := range keys {
		v, ok := values[k.Name]
		if !ok || emitted[k.Name] {
			continue
		}
		if k.Kind.IsPercentage() {
			v = formatPercentage(v)
		}
		records = append(records, MetricRecord{Name: k.Name, Value: v})
		emitted[k.Name] = true
	}
	for _, name := range order {
		if !emitted[name] {
			records = append(records, MetricRecord{Name: name, Value: values[name]})
			emitted[name] = true
		}
	}
	return records
}

// formatPercentage renders a numeric value with two decimals and leaves
// anything else (NULL, engine-specific text) unchanged.
func formatPercentage(v string) string {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return v
	}
	return strconv.FormatFloat(f, 'f', 2, 64)
}

// startRun records the start of an operation. History failures are logged
// and never fail the operation; a random ID is used instead.
func (o *Orchestrator) startRun(ctx context.Context, operation string, tables []string) string {
	if o.history == nil {
		return uuid.NewString()
	}
	id, err := o.history.CreateRun(ctx, operation, o.engine, tables)
	if err != nil {
		logging.Warn("Recording run start: %v", err)
		return uuid.NewString()
	}
	return id
}

func (o *Orchestrator) finishRun(ctx context.Context, runID string, runErr error) {
	if o.history == nil {
		return
	}
	status, msg := history.StatusSuccess, ""
	if runErr != nil {
		status, msg = history.StatusFailed, runErr.Error()
	}
	if err := o.history.CompleteRun(context.WithoutCancel(ctx), runID, status, msg); err != nil {
		logging.Warn("Recording run completion: %v", err)
	}
}

func (o *Orchestrator) saveMetrics(ctx context.Context, runID string, profile *TableProfile) {
	if o.history == nil {
		return
	}
	metrics := make([]history.Metric, len(profile.Metrics))
	for i, m := range profile.Metrics {
		metrics[i] = history.Metric{Table: profile.Table, Name: m.Name, Value: m.Value}
	}
	if err := o.history.SaveMetrics(ctx, runID, profile.Table, metrics); err != nil {
		logging.Warn("Recording metrics for %s: %v", profile.Table, err)
	}
}

func (o *Orchestrator) saveDuplicates(ctx context.Context, runID, table string, count int64) {
	if o.history == nil {
		return
	}
	if err := o.history.SaveDuplicateCount(ctx, runID, table, count); err != nil {
		logging.Warn("Recording duplicate count for %s: %v", table, err)
	}
}
