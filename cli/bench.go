package cli

import (
	"fmt"
	"sync"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/viam-labs/rrtstar/viz"
)

// benchSummary aggregates the outcomes of one benchmark.
type benchSummary struct {
	runs       int
	successes  int
	iterations stats.Float64Data
	lengths    stats.Float64Data
	durations  stats.Float64Data
}

func (s *benchSummary) add(result planResult, planErr error) {
	s.runs++
	if planErr != nil {
		return
	}
	s.successes++
	s.iterations = append(s.iterations, float64(result.plan.Iterations))
	s.lengths = append(s.lengths, result.plan.Length())
	s.durations = append(s.durations, result.duration.Seconds()*1000)
}

type distribution struct {
	mean, median, p90 float64
}

func describe(data stats.Float64Data) (distribution, error) {
	var d distribution
	var err, errs error
	d.mean, err = stats.Mean(data)
	errs = multierr.Combine(errs, err)
	d.median, err = stats.Median(data)
	errs = multierr.Combine(errs, err)
	d.p90, err = stats.Percentile(data, 90)
	errs = multierr.Combine(errs, err)
	return d, errs
}

// BenchAction is the corresponding Action for 'bench'.
func BenchAction(c *cli.Context) (err error) {
	logger := newLogger(c)
	prob, err := problemFromContext(c)
	if err != nil {
		return err
	}
	runs, parallel := c.Int(BenchFlagRuns), c.Int(BenchFlagParallel)
	if runs < 1 {
		return errors.Errorf("--%s must be at least 1", BenchFlagRuns)
	}

	store, err := openStore(c, logger)
	if err != nil {
		return err
	}
	if store != nil {
		defer func() {
			err = multierr.Combine(err, store.Close())
		}()
	}

	var (
		mu      sync.Mutex
		summary benchSummary
	)
	g, ctx := errgroup.WithContext(c.Context)
	g.SetLimit(max(parallel, 1))
	for i := 0; i < runs; i++ {
		opts := *prob.opts
		opts.RandomSeed = prob.opts.RandomSeed + i
		g.Go(func() error {
			result, planErr := planOnce(ctx, prob, &opts, viz.NoopPublisher{}, logger)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if store != nil {
				if err := store.RecordRun(ctx, runFromResult(prob, &opts, result, planErr)); err != nil {
					return err
				}
			}
			if planErr != nil {
				logger.Debugw("bench run failed", "seed", opts.RandomSeed, "error", planErr)
			}
			mu.Lock()
			defer mu.Unlock()
			summary.add(result, planErr)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return printSummary(c, &summary)
}

func printSummary(c *cli.Context, summary *benchSummary) error {
	printf(c.App.Writer, "%d/%d runs found a path (%.1f%%)",
		summary.successes, summary.runs, 100*float64(summary.successes)/float64(summary.runs))
	if summary.successes == 0 {
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(c.App.Writer)
	t.AppendHeader(table.Row{"Metric", "Mean", "Median", "P90"})
	for _, metric := range []struct {
		name string
		data stats.Float64Data
	}{
		{"iterations", summary.iterations},
		{"path length", summary.lengths},
		{"duration (ms)", summary.durations},
	} {
		d, err := describe(metric.data)
		if err != nil {
			return errors.Wrapf(err, "cannot summarize %s", metric.name)
		}
		t.AppendRow(table.Row{
			metric.name,
			fmt.Sprintf("%.3f", d.mean),
			fmt.Sprintf("%.3f", d.median),
			fmt.Sprintf("%.3f", d.p90),
		})
	}
	t.Render()
	return nil
}
