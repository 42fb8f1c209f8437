package motionplan

import (
	"math"
	"sort"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// default values for planning options.
const (
	// Distance moved toward a sample on every extension, in meters.
	defaultStepSize = 0.05

	// Nodes within this many meters of a new node are considered for choose-parent and rewiring.
	defaultNeighborRadius = 0.15

	// A node closer than this to the goal completes a candidate path.
	defaultGoalThreshold = 0.05

	// Probability of sampling the goal instead of a uniform point.
	defaultGoalBias = 0.2

	// Number of candidate paths to collect before selecting one.
	defaultPathLimit = 1

	// Number of planner iterations before giving up.
	defaultPlanIter = 100000

	// default number of seconds to try to solve in total before returning.
	defaultTimeout = 30.

	// Check validity every this many meters along an edge.
	defaultResolution = 0.05

	// Largest allowed turn between consecutive tree edges, in radians.
	defaultMaxHeadingChange = math.Pi

	// random seed.
	defaultRandomSeed = 0

	// Percentage interval of max iterations after which to print debug logs.
	defaultLoggingInterval = 0.1
)

// NewBasicPlannerOptions specifies a set of basic options for the planner.
func NewBasicPlannerOptions() *PlannerOptions {
	return &PlannerOptions{
		StepSize:         defaultStepSize,
		NeighborRadius:   defaultNeighborRadius,
		GoalThreshold:    defaultGoalThreshold,
		GoalBias:         defaultGoalBias,
		PathLimit:        defaultPathLimit,
		PlanIter:         defaultPlanIter,
		Timeout:          defaultTimeout,
		Resolution:       defaultResolution,
		MaxHeadingChange: defaultMaxHeadingChange,
		RandomSeed:       defaultRandomSeed,
		LoggingInterval:  defaultLoggingInterval,
	}
}

// PlannerOptions are a set of options to be passed to a planner which will specify how to solve a motion planning problem.
type PlannerOptions struct {
	// Distance moved toward a sample on every extension, in meters.
	StepSize float64 `json:"step_size"`

	// Radius of the neighborhood used by choose-parent and rewiring, in meters.
	NeighborRadius float64 `json:"neighbor_radius"`

	// How close to get to the goal
	GoalThreshold float64 `json:"goal_threshold"`

	// Probability in [0, 1] of sampling the goal directly.
	GoalBias float64 `json:"goal_bias"`

	// Number of candidate paths to collect before stopping.
	PathLimit int `json:"path_limit"`

	// Number of planner iterations before giving up. Rejected samples count as iterations.
	PlanIter int `json:"plan_iter"`

	// Number of seconds before terminating planner. Zero or less disables the limit.
	Timeout float64 `json:"timeout"`

	// Check validity every this many meters along an edge. Zero or less only checks edge endpoints.
	Resolution float64 `json:"resolution"`

	// Largest turn, in radians, allowed between a node's incoming edge and a new edge leaving it.
	MaxHeadingChange float64 `json:"max_heading_change"`

	// The random seed used during planning. Identical seeds and inputs produce identical trees.
	RandomSeed int `json:"rseed"`

	// Steer a full step even when the sample is closer than one step.
	OvershootSteer bool `json:"overshoot_steer"`

	// Push cost reductions from rewiring down to every descendant of the rewired node.
	PropagateCost bool `json:"propagate_cost"`

	// New nodes within this distance of an existing node are discarded. Zero disables the check.
	IdenticalNodeDistance float64 `json:"identical_node_distance"`

	// Treat unknown cells as obstacles.
	TreatUnknownAsOccupied bool `json:"treat_unknown_as_occupied"`

	// Percentage interval of max iterations after which to print debug logs
	LoggingInterval float64 `json:"logging_interval"`
}

// NewPlannerOptionsFromExtra returns basic default settings updated by overridden parameters
// found in extra, keyed by the options' json names. Unknown keys are an error.
func NewPlannerOptionsFromExtra(extra map[string]interface{}) (*PlannerOptions, error) {
	opt := NewBasicPlannerOptions()

	var md mapstructure.Metadata
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           opt,
		Metadata:         &md,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(extra); err != nil {
		return nil, errors.Wrap(err, "cannot decode planner options")
	}
	if len(md.Unused) > 0 {
		sort.Strings(md.Unused)
		return nil, errors.Errorf("unknown planner options %v", md.Unused)
	}
	if err := opt.Validate(); err != nil {
		return nil, err
	}
	return opt, nil
}

// Validate returns every problem with the options combined into one error.
func (p *PlannerOptions) Validate() error {
	var err error
	if !(p.StepSize > 0) || math.IsInf(p.StepSize, 1) {
		err = multierr.Append(err, errors.Errorf("step_size must be positive and finite, got %v", p.StepSize))
	}
	if p.NeighborRadius < 0 || math.IsNaN(p.NeighborRadius) {
		err = multierr.Append(err, errors.Errorf("neighbor_radius can't be negative, got %v", p.NeighborRadius))
	}
	if !(p.GoalThreshold > 0) {
		err = multierr.Append(err, errors.Errorf("goal_threshold must be positive, got %v", p.GoalThreshold))
	}
	if !(p.GoalBias >= 0 && p.GoalBias <= 1) {
		err = multierr.Append(err, errors.Errorf("goal_bias must be within [0, 1], got %v", p.GoalBias))
	}
	if p.PathLimit < 1 {
		err = multierr.Append(err, errors.Errorf("path_limit must be at least 1, got %d", p.PathLimit))
	}
	if p.PlanIter < 1 {
		err = multierr.Append(err, errors.Errorf("plan_iter must be at least 1, got %d", p.PlanIter))
	}
	if math.IsNaN(p.Timeout) || math.IsInf(p.Timeout, 0) {
		err = multierr.Append(err, errors.Errorf("timeout must be finite, got %v", p.Timeout))
	}
	if math.IsNaN(p.Resolution) || math.IsInf(p.Resolution, 0) {
		err = multierr.Append(err, errors.Errorf("resolution must be finite, got %v", p.Resolution))
	}
	if p.MaxHeadingChange < 0 || math.IsNaN(p.MaxHeadingChange) {
		err = multierr.Append(err, errors.Errorf("max_heading_change can't be negative, got %v", p.MaxHeadingChange))
	}
	if p.IdenticalNodeDistance < 0 {
		err = multierr.Append(err, errors.Errorf("identical_node_distance can't be negative, got %v", p.IdenticalNodeDistance))
	}
	if p.LoggingInterval < 0 || p.LoggingInterval > 1 {
		err = multierr.Append(err, errors.Errorf("logging_interval must be within [0, 1], got %v", p.LoggingInterval))
	}
	return err
}

func (p *PlannerOptions) timeout() time.Duration {
	return time.Duration(p.Timeout * float64(time.Second))
}

// logIteration is the number of iterations between progress logs, or 0 for none.
func (p *PlannerOptions) logIteration() int {
	return int(float64(p.PlanIter) * p.LoggingInterval)
}
