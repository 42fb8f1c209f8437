package motionplan

import (
	"context"
	"time"

	"github.com/golang/geo/r2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.opencensus.io/trace"
	"gonum.org/v1/gonum/floats"

	"github.com/viam-labs/rrtstar/spatialmath"
	"github.com/viam-labs/rrtstar/viz"
)

// Plan is the result of a successful planning run.
type Plan struct {
	RunID   uuid.UUID
	Request PlanRequest
	// Poses runs from the start pose to the exact goal position.
	Poses []spatialmath.Pose
	// Nodes are the tree indices of the selected candidate, root first.
	Nodes []int
	// Candidates holds every recorded goal-reaching path in recording order.
	Candidates [][]int
	Tree       *Tree

	Iterations     int
	InvalidSamples int
	OutOfGrid      int
	Duration       time.Duration
}

// Length returns the summed length of the segments between consecutive poses.
func (p *Plan) Length() float64 {
	if len(p.Poses) < 2 {
		return 0
	}
	lengths := make([]float64, 0, len(p.Poses)-1)
	for i := 1; i < len(p.Poses); i++ {
		lengths = append(lengths, spatialmath.Distance(p.Poses[i-1].Point(), p.Poses[i].Point()))
	}
	return floats.Sum(lengths)
}

// Points returns the positions of the plan's poses.
func (p *Plan) Points() []r2.Point {
	return lo.Map(p.Poses, func(pose spatialmath.Pose, _ int) r2.Point {
		return pose.Point()
	})
}

func (pc *planContext) extractPlan(ctx context.Context) (*Plan, error) {
	_, span := trace.StartSpan(ctx, "extractPath")
	defer span.End()

	best, ok := selectShortest(pc.candidates)
	if !ok {
		pc.state = stateFailed
		return nil, newNoPathFoundError(errors.New("no candidate paths recorded"), pc.iterations, pc.tree.Len())
	}
	nodes := pc.candidates[best]
	plan := &Plan{
		RunID:          pc.runID,
		Request:        pc.request,
		Poses:          emitPoses(pc.tree, nodes, pc.request.Start, pc.request.Goal),
		Nodes:          nodes,
		Candidates:     pc.candidates,
		Tree:           pc.tree,
		Iterations:     pc.iterations,
		InvalidSamples: pc.invalidSamples,
		OutOfGrid:      pc.checker.OutOfGridCount(),
		Duration:       pc.clock.Since(pc.started),
	}
	pc.state = stateDone
	pc.telemetry.points(viz.ChannelPath, plan.Points()...)
	return plan, nil
}

// selectShortest returns the index of the candidate with the fewest nodes, the earliest recorded
// winning ties. ok is false when there are no candidates.
func selectShortest(candidates [][]int) (best int, ok bool) {
	best = -1
	for i, c := range candidates {
		if best == -1 || len(c) < len(candidates[best]) {
			best = i
		}
	}
	return best, best != -1
}

// emitPoses converts a root-first node path into output poses. Every node contributes its
// position, and the exact goal position is appended. All poses carry the start heading except the
// last, which carries the goal heading.
func emitPoses(tree *Tree, nodes []int, start, goal spatialmath.Pose) []spatialmath.Pose {
	poses := lo.Map(nodes, func(idx, _ int) spatialmath.Pose {
		return start.WithPoint(tree.Position(idx))
	})
	return append(poses, goal)
}
