package motionplan

import (
	"math"
	"testing"

	"go.uber.org/multierr"
	"go.viam.com/test"
)

func TestNewPlannerOptionsFromExtra(t *testing.T) {
	opt, err := NewPlannerOptionsFromExtra(nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, opt, test.ShouldResemble, NewBasicPlannerOptions())
	test.That(t, opt.StepSize, test.ShouldEqual, 0.05)
	test.That(t, opt.NeighborRadius, test.ShouldEqual, 0.15)
	test.That(t, opt.GoalThreshold, test.ShouldEqual, 0.05)
	test.That(t, opt.GoalBias, test.ShouldEqual, 0.2)
	test.That(t, opt.PathLimit, test.ShouldEqual, 1)
	test.That(t, opt.MaxHeadingChange, test.ShouldEqual, math.Pi)

	opt, err = NewPlannerOptionsFromExtra(map[string]interface{}{
		"step_size":       0.5,
		"plan_iter":       "2500",
		"rseed":           float64(9),
		"overshoot_steer": true,
		"timeout":         1,
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, opt.StepSize, test.ShouldEqual, 0.5)
	test.That(t, opt.PlanIter, test.ShouldEqual, 2500)
	test.That(t, opt.RandomSeed, test.ShouldEqual, 9)
	test.That(t, opt.OvershootSteer, test.ShouldBeTrue)
	test.That(t, opt.Timeout, test.ShouldEqual, 1.)
	test.That(t, opt.timeout().Seconds(), test.ShouldEqual, 1.)
	// untouched values keep their defaults
	test.That(t, opt.GoalBias, test.ShouldEqual, defaultGoalBias)

	_, err = NewPlannerOptionsFromExtra(map[string]interface{}{"step_size": 0.5, "stepsize": 1, "bogus": true})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "[bogus stepsize]")

	_, err = NewPlannerOptionsFromExtra(map[string]interface{}{"resolution": "NaN"})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "resolution")

	_, err = NewPlannerOptionsFromExtra(map[string]interface{}{"goal_bias": 2})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "goal_bias")
}

func TestPlannerOptionsValidate(t *testing.T) {
	test.That(t, NewBasicPlannerOptions().Validate(), test.ShouldBeNil)

	opt := NewBasicPlannerOptions()
	opt.StepSize = -1
	opt.GoalThreshold = 0
	opt.GoalBias = math.NaN()
	opt.PathLimit = 0
	opt.PlanIter = 0
	opt.LoggingInterval = 2
	err := opt.Validate()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, len(multierr.Errors(err)), test.ShouldEqual, 6)
	test.That(t, err.Error(), test.ShouldContainSubstring, "plan_iter")

	for _, tc := range []struct {
		field  string
		mutate func(*PlannerOptions)
	}{
		{"resolution", func(o *PlannerOptions) { o.Resolution = math.NaN() }},
		{"resolution", func(o *PlannerOptions) { o.Resolution = math.Inf(1) }},
		{"step_size", func(o *PlannerOptions) { o.StepSize = math.Inf(1) }},
		{"timeout", func(o *PlannerOptions) { o.Timeout = math.Inf(1) }},
	} {
		t.Run(tc.field, func(t *testing.T) {
			o := NewBasicPlannerOptions()
			tc.mutate(o)
			err := o.Validate()
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, err.Error(), test.ShouldContainSubstring, tc.field)
		})
	}

	// non-positive resolutions are allowed and only check segment ends
	opt = NewBasicPlannerOptions()
	opt.Resolution = 0
	test.That(t, opt.Validate(), test.ShouldBeNil)

	opt = NewBasicPlannerOptions()
	opt.LoggingInterval = 0
	test.That(t, opt.Validate(), test.ShouldBeNil)
	test.That(t, opt.logIteration(), test.ShouldEqual, 0)
	test.That(t, NewBasicPlannerOptions().logIteration(), test.ShouldEqual, 10000)
}
