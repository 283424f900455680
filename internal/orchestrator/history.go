package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/johndauphine/tblprof/internal/history"
)

var errHistoryDisabled = errors.New("run history is disabled")

// Runs returns all recorded runs, newest first.
func (o *Orchestrator) Runs(ctx context.Context) ([]history.Run, error) {
	if o.history == nil {
		return nil, errHistoryDisabled
	}
	return o.history.GetAllRuns(ctx)
}

// ShowHistory prints all recorded runs.
func (o *Orchestrator) ShowHistory(ctx context.Context) error {
	runs, err := o.Runs(ctx)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(o.out, "No runs recorded")
		return nil
	}

	w := tabwriter.NewWriter(o.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN ID\tOPERATION\tENGINE\tSTATUS\tSTARTED\tDURATION\tTABLES")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.Operation, r.Engine, r.Status,
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			formatDuration(r), summarizeTables(r.Tables))
	}
	return w.Flush()
}

// ShowRunDetails prints one run and the metrics it recorded.
func (o *Orchestrator) ShowRunDetails(ctx context.Context, runID string) error {
	if o.history == nil {
		return errHistoryDisabled
	}
	run, err := o.history.GetRunByID(ctx, runID)
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("run %q not found", runID)
	}

	fmt.Fprintf(o.out, "Run:       %s\n", run.ID)
	fmt.Fprintf(o.out, "Operation: %s\n", run.Operation)
	fmt.Fprintf(o.out, "Engine:    %s\n", run.Engine)
	fmt.Fprintf(o.out, "Tables:    %s\n", strings.Join(run.Tables, ", "))
	fmt.Fprintf(o.out, "Status:    %s\n", run.Status)
	fmt.Fprintf(o.out, "Started:   %s\n", run.StartedAt.Local().Format(time.RFC3339))
	if run.CompletedAt != nil {
		fmt.Fprintf(o.out, "Completed: %s\n", run.CompletedAt.Local().Format(time.RFC3339))
	}
	fmt.Fprintf(o.out, "Duration:  %s\n", formatDuration(*run))
	if run.Error != "" {
		fmt.Fprintf(o.out, "Error:     %s\n", run.Error)
	}
	if run.Duplicates != nil {
		fmt.Fprintf(o.out, "Duplicates: %d\n", *run.Duplicates)
	}

	metrics, err := o.history.GetMetrics(ctx, runID)
	if err != nil {
		return err
	}
	if len(metrics) == 0 {
		return nil
	}

	fmt.Fprintln(o.out)
	w := tabwriter.NewWriter(o.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TABLE\tMETRIC\tVALUE")
	for _, m := range metrics {
		fmt.Fprintf(w, "%s\t%s\t%s\n", m.Table, m.Name, m.Value)
	}
	return w.Flush()
}

func formatDuration(r history.Run) string {
	if r.CompletedAt == nil {
		return "-"
	}
	return r.Duration().Round(time.Millisecond).String()
}

func summarizeTables(tables []string) string {
	const shown = 3
	if len(tables) <= shown {
		return strings.Join(tables, ",")
	}
	return fmt.Sprintf("%s (+%d more)", strings.Join(tables[:shown], ","), len(tables)-shown)
}
