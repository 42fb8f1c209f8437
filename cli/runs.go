package cli

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
)

// ListRunsAction is the corresponding Action for 'runs'.
func ListRunsAction(c *cli.Context) (err error) {
	logger := newLogger(c)
	store, err := openStore(c, logger)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.Errorf("--%s is required", PlanFlagDB)
	}
	defer func() {
		err = multierr.Combine(err, store.Close())
	}()

	runs, err := store.ListRuns(c.Context, c.Int(RunsFlagLimit))
	if err != nil {
		return errors.Wrap(err, "could not list runs")
	}
	if len(runs) == 0 {
		printf(c.App.Writer, "no runs recorded in %s", c.String(PlanFlagDB))
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(c.App.Writer)
	t.AppendHeader(table.Row{"ID", "Created", "Start", "Goal", "Seed", "Result", "Iterations", "Nodes", "Length", "Duration (ms)"})
	for _, run := range runs {
		result := "path found"
		length := fmt.Sprintf("%.3f", run.PathLength)
		if !run.Success {
			result = run.Error
			length = "-"
		}
		t.AppendRow(table.Row{
			run.ID,
			run.CreatedAt.Format(time.DateTime),
			run.Start,
			run.Goal,
			run.Seed,
			result,
			run.Iterations,
			run.TreeSize,
			length,
			fmt.Sprintf("%.1f", float64(run.Duration.Microseconds())/1000),
		})
	}
	t.Render()
	return nil
}
