package cli

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"

	"github.com/viam-labs/rrtstar/occupancy"
	"github.com/viam-labs/rrtstar/spatialmath"
)

func TestParsePose(t *testing.T) {
	pose, err := parsePose("1,2")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pose, test.ShouldResemble, spatialmath.NewPose(1, 2, 0))

	pose, err = parsePose(" 1.5, -2 , 90")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pose.X, test.ShouldEqual, 1.5)
	test.That(t, pose.Y, test.ShouldEqual, -2.)
	test.That(t, pose.Theta, test.ShouldAlmostEqual, math.Pi/2)

	for _, bad := range []string{"", "1", "1,2,3,4", "a,2", "1,2,north"} {
		_, err := parsePose(bad)
		test.That(t, err, test.ShouldNotBeNil)
	}
}

func TestParseSize(t *testing.T) {
	w, h, err := parseSize("4x3.5")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, w, test.ShouldEqual, 4.)
	test.That(t, h, test.ShouldEqual, 3.5)

	w, h, err = parseSize("2X2")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, w, test.ShouldEqual, 2.)
	test.That(t, h, test.ShouldEqual, 2.)

	for _, bad := range []string{"4", "x3", "4xy"} {
		_, _, err := parseSize(bad)
		test.That(t, err, test.ShouldNotBeNil)
	}
}

func TestLoadPlannerOptions(t *testing.T) {
	opts, err := loadPlannerOptions("")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, opts.StepSize, test.ShouldEqual, 0.05)

	path := filepath.Join(t.TempDir(), "opts.json")
	test.That(t, os.WriteFile(path, []byte(`{"step_size": 0.5, "plan_iter": 100}`), 0o600), test.ShouldBeNil)
	opts, err = loadPlannerOptions(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, opts.StepSize, test.ShouldEqual, 0.5)
	test.That(t, opts.PlanIter, test.ShouldEqual, 100)

	test.That(t, os.WriteFile(path, []byte(`{"step": 0.5}`), 0o600), test.ShouldBeNil)
	_, err = loadPlannerOptions(path)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "step")

	test.That(t, os.WriteFile(path, []byte(`not json`), 0o600), test.ShouldBeNil)
	_, err = loadPlannerOptions(path)
	test.That(t, err, test.ShouldNotBeNil)
}

func writeOptions(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "opts.json")
	opts := `{"step_size": 0.5, "neighbor_radius": 1, "goal_threshold": 0.3, "plan_iter": 5000, "resolution": 0.1}`
	test.That(t, os.WriteFile(path, []byte(opts), 0o600), test.ShouldBeNil)
	return path
}

func TestPlanAndListRuns(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "runs.db")
	pngPath := filepath.Join(dir, "plan.png")
	mapPath := filepath.Join(dir, "map.yaml")

	var out, errOut bytes.Buffer
	err := NewApp(&out, &errOut).Run([]string{
		"rrtstar", "plan",
		"--empty", "10x10", "--resolution", "0.5",
		"--start", "1,1,45", "--goal", "8,8",
		"--config", writeOptions(t), "--seed", "3",
		"--png", pngPath, "--save-map", mapPath, "--db", dbPath,
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out.String(), test.ShouldContainSubstring, "LENGTH")
	test.That(t, out.String(), test.ShouldContainSubstring, "iterations")

	_, err = os.Stat(pngPath)
	test.That(t, err, test.ShouldBeNil)

	grid, err := occupancy.LoadMap(mapPath)
	test.That(t, err, test.ShouldBeNil)
	width, height := grid.Size()
	test.That(t, width, test.ShouldEqual, 20)
	test.That(t, height, test.ShouldEqual, 20)

	out.Reset()
	err = NewApp(&out, &errOut).Run([]string{"rrtstar", "runs", "--db", dbPath})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out.String(), test.ShouldContainSubstring, "path found")

	// the saved map plans the same way
	out.Reset()
	err = NewApp(&out, &errOut).Run([]string{
		"rrtstar", "plan", "--map", mapPath,
		"--start", "1,1", "--goal", "8,8", "--config", writeOptions(t),
	})
	test.That(t, err, test.ShouldBeNil)
}

func TestPlanInvalidArguments(t *testing.T) {
	var out, errOut bytes.Buffer
	for _, tc := range []struct {
		name string
		args []string
	}{
		{"no map", []string{"--start", "1,1", "--goal", "2,2"}},
		{"two maps", []string{"--empty", "4x4", "--map", "m.yaml", "--start", "1,1", "--goal", "2,2"}},
		{"bad size", []string{"--empty", "4", "--start", "1,1", "--goal", "2,2"}},
		{"bad start", []string{"--empty", "4x4", "--start", "1", "--goal", "2,2"}},
		{"goal outside map", []string{"--empty", "4x4", "--start", "1,1", "--goal", "9,9"}},
		{"missing map file", []string{"--map", filepath.Join(t.TempDir(), "m.yaml"), "--start", "1,1", "--goal", "2,2"}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := NewApp(&out, &errOut).Run(append([]string{"rrtstar", "plan"}, tc.args...))
			test.That(t, err, test.ShouldNotBeNil)
		})
	}
}

func TestBench(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	var out, errOut bytes.Buffer
	err := NewApp(&out, &errOut).Run([]string{
		"rrtstar", "bench",
		"--empty", "10x10", "--resolution", "0.5",
		"--start", "1,1", "--goal", "8,8",
		"--config", writeOptions(t),
		"--runs", "4", "--parallel", "2", "--db", dbPath,
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out.String(), test.ShouldContainSubstring, "4/4 runs found a path")
	test.That(t, out.String(), test.ShouldContainSubstring, "path length")

	out.Reset()
	err = NewApp(&out, &errOut).Run([]string{"rrtstar", "runs", "--db", dbPath, "--limit", "2"})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, bytes.Count(out.Bytes(), []byte("path found")), test.ShouldEqual, 2)

	err = NewApp(&out, &errOut).Run([]string{
		"rrtstar", "bench", "--empty", "4x4", "--start", "1,1", "--goal", "2,2", "--runs", "0",
	})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestDescribe(t *testing.T) {
	d, err := describe([]float64{1, 2, 3, 4})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, d.mean, test.ShouldEqual, 2.5)
	test.That(t, d.median, test.ShouldEqual, 2.5)

	_, err = describe(nil)
	test.That(t, err, test.ShouldNotBeNil)
}
