package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	"github.com/viam-labs/rrtstar/logging"
	"github.com/viam-labs/rrtstar/motionplan"
	"github.com/viam-labs/rrtstar/occupancy"
	"github.com/viam-labs/rrtstar/runstore"
	"github.com/viam-labs/rrtstar/utils"
	"github.com/viam-labs/rrtstar/viz"
)

const pixelsPerCell = 4

// PlanAction is the corresponding Action for 'plan'.
func PlanAction(c *cli.Context) (err error) {
	logger := newLogger(c)
	prob, err := problemFromContext(c)
	if err != nil {
		return err
	}

	if path := c.String(PlanFlagSaveMap); path != "" {
		if err := occupancy.SaveMap(prob.grid, path); err != nil {
			return err
		}
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
		publisher viz.Publisher = viz.NoopPublisher{}
		renderer  *viz.ImageRenderer
		async     *viz.AsyncPublisher
	)
	if c.String(PlanFlagPNG) != "" {
		renderer = viz.NewImageRenderer(prob.grid, pixelsPerCell)
		async = viz.NewAsyncPublisher(0, logger.Sublogger("viz"), renderer)
		publisher = async
	}

	plan, planErr := planOnce(c.Context, prob, prob.opts, publisher, logger)

	if async != nil {
		async.Close()
		if dropped := async.Dropped(); dropped > 0 {
			warningf(c.App.ErrWriter, "%d telemetry snapshots were dropped; the image is incomplete", dropped)
		}
		if err := renderer.SavePNG(c.String(PlanFlagPNG)); err != nil {
			return multierr.Combine(planErr, err)
		}
	}

	if store != nil {
		if err := store.RecordRun(c.Context, runFromResult(prob, prob.opts, plan, planErr)); err != nil {
			return multierr.Combine(planErr, err)
		}
	}
	if planErr != nil {
		return planErr
	}

	printPlan(c, plan)
	return nil
}

// planResult pairs a plan with how long the request took, which failed plans do not carry.
type planResult struct {
	plan     *motionplan.Plan
	duration time.Duration
}

func planOnce(
	ctx context.Context,
	prob *problem,
	opts *motionplan.PlannerOptions,
	publisher viz.Publisher,
	logger logging.Logger,
) (planResult, error) {
	planner, err := motionplan.NewPlanner(prob.grid, opts, publisher, logger.Sublogger("planner"))
	if err != nil {
		return planResult{}, err
	}
	started := time.Now()
	plan, err := planner.Plan(ctx, prob.request)
	return planResult{plan: plan, duration: time.Since(started)}, err
}

func runFromResult(prob *problem, opts *motionplan.PlannerOptions, result planResult, planErr error) runstore.Run {
	if planErr != nil {
		return runstore.NewFailedRun(prob.request, *opts, planErr, result.duration)
	}
	return runstore.NewRunFromPlan(result.plan, *opts)
}

func printPlan(c *cli.Context, result planResult) {
	plan := result.plan
	t := table.NewWriter()
	t.SetOutputMirror(c.App.Writer)
	t.AppendHeader(table.Row{"#", "X", "Y", "Theta (deg)"})
	for i, pose := range plan.Poses {
		t.AppendRow(table.Row{
			i,
			fmt.Sprintf("%.3f", pose.X),
			fmt.Sprintf("%.3f", pose.Y),
			fmt.Sprintf("%.1f", utils.RadToDeg(pose.Theta)),
		})
	}
	t.AppendFooter(table.Row{"", "length", fmt.Sprintf("%.3f", plan.Length()), ""})
	t.Render()

	printf(c.App.Writer, "run %s: %d iterations, %d nodes, %d candidate paths, %d out of grid samples",
		plan.RunID, plan.Iterations, plan.Tree.Len(), len(plan.Candidates), plan.OutOfGrid)
}
