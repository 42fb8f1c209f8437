package motionplan

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/geo/r2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.opencensus.io/trace"

	"github.com/viam-labs/rrtstar/logging"
	"github.com/viam-labs/rrtstar/occupancy"
	"github.com/viam-labs/rrtstar/spatialmath"
	"github.com/viam-labs/rrtstar/viz"
)

// PlanRequest is a single planning problem. The start heading is carried onto every output pose
// but the last, which takes the goal heading.
type PlanRequest struct {
	Start spatialmath.Pose `json:"start"`
	Goal  spatialmath.Pose `json:"goal"`
}

// Planner is an RRT* planner over a fixed occupancy oracle. Every call to Plan builds its own
// tree, so a Planner may be used for repeated and concurrent requests as long as the oracle is
// not mutated while a request is in flight.
type Planner struct {
	oracle    occupancy.Oracle
	opts      *PlannerOptions
	publisher viz.Publisher
	logger    logging.Logger
	clock     clock.Clock
}

// NewPlanner returns a planner over oracle. Nil options use NewBasicPlannerOptions and a nil
// publisher discards telemetry.
func NewPlanner(oracle occupancy.Oracle, opts *PlannerOptions, publisher viz.Publisher, logger logging.Logger) (*Planner, error) {
	if oracle == nil {
		return nil, errors.New("planner needs an occupancy oracle")
	}
	if opts == nil {
		opts = NewBasicPlannerOptions()
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if publisher == nil {
		publisher = viz.NoopPublisher{}
	}
	minX, minY, maxX, maxY := oracle.Bounds()
	if !(maxX > minX && maxY > minY) {
		return nil, errors.Errorf("oracle bounds [%v, %v]x[%v, %v] are empty", minX, maxX, minY, maxY)
	}
	return &Planner{
		oracle:    oracle,
		opts:      opts,
		publisher: publisher,
		logger:    logger,
		clock:     clock.New(),
	}, nil
}

// Options returns the options the planner was built with.
func (p *Planner) Options() PlannerOptions {
	return *p.opts
}

type planState int

const (
	stateGrowing planState = iota
	stateCandidateFound
	stateDone
	stateFailed
)

func (s planState) String() string {
	switch s {
	case stateGrowing:
		return "growing"
	case stateCandidateFound:
		return "candidate_found"
	case stateDone:
		return "done"
	case stateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// planContext holds everything one planning run mutates.
type planContext struct {
	runID   uuid.UUID
	opts    *PlannerOptions
	request PlanRequest
	logger  logging.Logger
	clock   clock.Clock
	started time.Time

	state      planState
	tree       *Tree
	candidates [][]int
	checker    *ValidityChecker
	sampler    *sampler
	telemetry  *telemetry

	iterations     int
	invalidSamples int
	rejected       int
}

func (p *Planner) newPlanContext(request PlanRequest) *planContext {
	runID := uuid.New()
	minX, minY, maxX, maxY := p.oracle.Bounds()
	pc := &planContext{
		runID:   runID,
		opts:    p.opts,
		request: request,
		logger:  p.logger,
		clock:   p.clock,
		started: p.clock.Now(),
		state:   stateGrowing,
		tree:    NewTree(),
		checker: NewValidityChecker(p.oracle, p.opts.TreatUnknownAsOccupied),
		//nolint:gosec
		sampler:   newSampler(rand.New(rand.NewSource(int64(p.opts.RandomSeed))), minX, minY, maxX, maxY),
		telemetry: &telemetry{publisher: p.publisher, runID: runID},
	}
	pc.tree.Insert(request.Start.Point(), NoParent, 0)
	return pc
}

// Plan grows a tree from the request's start until PathLimit candidate paths reach the goal, then
// returns the candidate with the fewest nodes. If the iteration or time budget runs out first, the
// best candidate recorded so far is returned. It returns an error matching ErrNoPathFound if the
// context is cancelled, or if a budget runs out before any candidate was recorded.
func (p *Planner) Plan(ctx context.Context, request PlanRequest) (*Plan, error) {
	ctx, span := trace.StartSpan(ctx, "rrtstar::Plan")
	defer span.End()

	if err := p.checkRequest(request); err != nil {
		return nil, err
	}
	pc := p.newPlanContext(request)
	p.logger.CDebugw(ctx, "planning", "run_id", pc.runID.String(), "start", request.Start.String(), "goal", request.Goal.String())

	pc.telemetry.points(viz.ChannelSource, request.Start.Point())
	pc.telemetry.points(viz.ChannelGoal, request.Goal.Point())

	if err := pc.grow(ctx); err != nil {
		p.logger.Infow("no path found",
			"run_id", pc.runID.String(),
			"iterations", pc.iterations,
			"tree_size", pc.tree.Len(),
			"reason", err.Error(),
		)
		return nil, err
	}

	plan, err := pc.extractPlan(ctx)
	if err != nil {
		return nil, err
	}
	p.logger.Infow("path found",
		"run_id", pc.runID.String(),
		"iterations", pc.iterations,
		"tree_size", pc.tree.Len(),
		"waypoints", len(plan.Poses),
		"length", plan.Length(),
	)
	return plan, nil
}

func (p *Planner) checkRequest(request PlanRequest) error {
	for name, pose := range map[string]spatialmath.Pose{"start": request.Start, "goal": request.Goal} {
		for _, v := range []float64{pose.X, pose.Y, pose.Theta} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return newInvalidRequestError(name, errors.Errorf("pose %v is not finite", pose))
			}
		}
	}
	checker := NewValidityChecker(p.oracle, p.opts.TreatUnknownAsOccupied)
	if !checker.IsValid(request.Start.Point()) {
		return newInvalidRequestError("start", errors.Errorf("%v is out of bounds or in collision", request.Start))
	}
	if !checker.IsValid(request.Goal.Point()) {
		return newInvalidRequestError("goal", errors.Errorf("%v is out of bounds or in collision", request.Goal))
	}
	return nil
}

// grow runs iterations until enough candidates are recorded or a budget runs out.
func (pc *planContext) grow(ctx context.Context) error {
	goal := pc.request.Goal.Point()
	logIteration := pc.opts.logIteration()

	for pc.state == stateGrowing {
		if err := pc.checkBudget(ctx); err != nil {
			// an exhausted budget still yields the best recorded candidate; cancellation never does
			if ctx.Err() == nil && len(pc.candidates) > 0 {
				pc.logger.CDebugf(ctx, "stopping with %d of %d candidates: %v", len(pc.candidates), pc.opts.PathLimit, err)
				pc.state = stateCandidateFound
				return nil
			}
			pc.state = stateFailed
			return newNoPathFoundError(err, pc.iterations, pc.tree.Len())
		}
		pc.iterations++
		pc.telemetry.iteration = pc.iterations

		pc.extend(goal)

		if len(pc.candidates) >= pc.opts.PathLimit {
			pc.state = stateCandidateFound
		}
		if logIteration > 0 && pc.iterations%logIteration == 0 {
			pc.logger.CDebugf(ctx, "RRT* progress: %d%%\ttree size: %d\tcandidates: %d",
				100*pc.iterations/pc.opts.PlanIter,
				pc.tree.Len(),
				len(pc.candidates),
			)
		}
	}
	return nil
}

func (pc *planContext) checkBudget(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if pc.iterations >= pc.opts.PlanIter {
		return errors.Wrapf(errIterationBudget, "limit of %d", pc.opts.PlanIter)
	}
	if timeout := pc.opts.timeout(); timeout > 0 && pc.clock.Since(pc.started) > timeout {
		return errors.Wrapf(errPlanTimeout, "limit of %v", timeout)
	}
	return nil
}

// extend performs one sample, steer, insert and rewire step.
func (pc *planContext) extend(goal r2.Point) {
	opts := pc.opts
	target := pc.sampler.Sample(goal, opts.GoalBias)
	pc.telemetry.points(viz.ChannelSample, target)

	nearest := pc.tree.Nearest(target)
	nearestPos := pc.tree.Position(nearest)
	candidate := Steer(nearestPos, target, opts.StepSize, opts.OvershootSteer)
	if candidate == nearestPos || !headingConsistent(pc.tree, nearest, candidate, opts.MaxHeadingChange) {
		pc.rejected++
		return
	}
	if !pc.checker.IsValid(candidate) || !pc.checker.IsSegmentValid(nearestPos, candidate, opts.Resolution) {
		pc.invalidSamples++
		return
	}

	cost := pc.tree.Cost(nearest) + spatialmath.Distance(nearestPos, candidate)
	added := pc.tree.Insert(candidate, nearest, cost)
	if opts.IdenticalNodeDistance > 0 && len(pc.tree.NeighborsWithinRadius(added, opts.IdenticalNodeDistance)) > 1 {
		pc.tree.RollbackLast()
		pc.rejected++
		return
	}

	neighbors := pc.tree.NeighborsWithinRadius(added, opts.NeighborRadius)
	pc.chooseParent(added, nearest, neighbors)
	pc.rewire(added, neighbors)

	if spatialmath.Distance(candidate, goal) < opts.GoalThreshold {
		path, err := pc.tree.RootToNode(added)
		if err != nil {
			pc.logger.Warnw("cannot record candidate path", "run_id", pc.runID.String(), "error", err)
		} else {
			pc.candidates = append(pc.candidates, path)
		}
	}
	pc.telemetry.edges(viz.ChannelTree, pc.tree.edge(pc.tree.Parent(added), added))
}

// chooseParent reparents the new node to the neighbor giving it the lowest cost, if that is
// strictly cheaper than going through nearest. The chosen edge, nearest's by default, is published.
func (pc *planContext) chooseParent(added, nearest int, neighbors []int) {
	addedPos := pc.tree.Position(added)
	best := NoParent
	bestCost := pc.tree.Cost(added)
	for _, n := range neighbors {
		if n == added {
			continue
		}
		nPos := pc.tree.Position(n)
		cost := pc.tree.Cost(n) + spatialmath.Distance(nPos, addedPos)
		if cost < bestCost && pc.checker.IsValid(nPos) && pc.checker.IsSegmentValid(nPos, addedPos, pc.opts.Resolution) {
			best, bestCost = n, cost
		}
	}
	if best == NoParent {
		pc.telemetry.edges(viz.ChannelChooseParent, pc.tree.edge(nearest, added))
		return
	}
	pc.tree.SetCost(added, bestCost)
	if best != nearest {
		pc.tree.SetParent(added, best)
	}
	pc.telemetry.edges(viz.ChannelChooseParent, pc.tree.edge(best, added))
}

// rewire reparents every neighbor that is strictly cheaper to reach through the new node.
func (pc *planContext) rewire(added int, neighbors []int) {
	addedPos := pc.tree.Position(added)
	addedCost := pc.tree.Cost(added)
	var rewired []spatialmath.Segment
	for _, n := range neighbors {
		if n == added || n == 0 {
			continue
		}
		nPos := pc.tree.Position(n)
		cost := addedCost + spatialmath.Distance(addedPos, nPos)
		if pc.tree.Cost(n) > cost && pc.checker.IsValid(nPos) && pc.checker.IsSegmentValid(addedPos, nPos, pc.opts.Resolution) {
			pc.tree.SetParent(n, added)
			pc.tree.SetCost(n, cost)
			if pc.opts.PropagateCost {
				pc.propagateCost(n)
			}
			rewired = append(rewired, pc.tree.edge(added, n))
		}
	}
	pc.telemetry.edges(viz.ChannelRewire, rewired...)
}

// propagateCost recomputes the cost of every descendant of index from its parent's cost.
func (pc *planContext) propagateCost(index int) {
	stack := pc.tree.Children(index)
	for len(stack) > 0 {
		child := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		parent := pc.tree.Parent(child)
		pc.tree.SetCost(child, pc.tree.Cost(parent)+spatialmath.Distance(pc.tree.Position(parent), pc.tree.Position(child)))
		stack = append(stack, pc.tree.Children(child)...)
	}
}
