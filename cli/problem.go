package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap/zapcore"

	"github.com/viam-labs/rrtstar/logging"
	"github.com/viam-labs/rrtstar/motionplan"
	"github.com/viam-labs/rrtstar/occupancy"
	"github.com/viam-labs/rrtstar/runstore"
	"github.com/viam-labs/rrtstar/spatialmath"
	"github.com/viam-labs/rrtstar/utils"
)

// problem is everything needed to plan, as read from the command line.
type problem struct {
	grid    *occupancy.Grid
	request motionplan.PlanRequest
	opts    *motionplan.PlannerOptions
}

func printf(w io.Writer, format string, a ...interface{}) {
	if w == nil {
		return
	}
	//nolint:errcheck
	fmt.Fprintf(w, format+"\n", a...)
}

func warningf(w io.Writer, format string, a ...interface{}) {
	printf(w, "Warning: "+format, a...)
}

// newLogger logs to the app's error writer so that command output stays parseable.
func newLogger(c *cli.Context) logging.Logger {
	logger := logging.NewBlankLogger("rrtstar")
	logger.AddAppender(logging.NewWriterAppender(zapcore.AddSync(c.App.ErrWriter)))
	if c.Bool(flagDebug) {
		logger.SetLevel(logging.DEBUG)
	} else {
		logger.SetLevel(logging.WARN)
	}
	return logger
}

// parsePose reads "x,y" or "x,y,theta" with theta in degrees.
func parsePose(s string) (spatialmath.Pose, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 && len(parts) != 3 {
		return spatialmath.Pose{}, errors.Errorf("pose %q must be x,y or x,y,theta", s)
	}
	values := make([]float64, 3)
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return spatialmath.Pose{}, errors.Wrapf(err, "pose %q", s)
		}
		values[i] = v
	}
	return spatialmath.NewPose(values[0], values[1], utils.DegToRad(values[2])), nil
}

// parseSize reads "WxH" in meters.
func parseSize(s string) (float64, float64, error) {
	w, h, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return 0, 0, errors.Errorf("size %q must be WxH", s)
	}
	width, err := strconv.ParseFloat(strings.TrimSpace(w), 64)
	if err != nil {
		return 0, 0, errors.Wrapf(err, "size %q", s)
	}
	height, err := strconv.ParseFloat(strings.TrimSpace(h), 64)
	if err != nil {
		return 0, 0, errors.Wrapf(err, "size %q", s)
	}
	return width, height, nil
}

func loadPlannerOptions(path string) (*motionplan.PlannerOptions, error) {
	if path == "" {
		return motionplan.NewBasicPlannerOptions(), nil
	}
	//nolint:gosec
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "cannot read planner options")
	}
	extra := map[string]interface{}{}
	if err := json.Unmarshal(data, &extra); err != nil {
		return nil, errors.Wrapf(err, "cannot parse planner options %s", path)
	}
	return motionplan.NewPlannerOptionsFromExtra(extra)
}

func loadGrid(c *cli.Context) (*occupancy.Grid, error) {
	mapPath, size := c.String(PlanFlagMap), c.String(PlanFlagEmpty)
	switch {
	case mapPath != "" && size != "":
		return nil, errors.Errorf("only one of --%s and --%s may be given", PlanFlagMap, PlanFlagEmpty)
	case mapPath != "":
		return occupancy.LoadMap(mapPath)
	case size != "":
		width, height, err := parseSize(size)
		if err != nil {
			return nil, err
		}
		return occupancy.NewGridFromSize(width, height, c.Float64(PlanFlagResolution), r2.Point{})
	default:
		return nil, errors.Errorf("one of --%s or --%s is required", PlanFlagMap, PlanFlagEmpty)
	}
}

func problemFromContext(c *cli.Context) (*problem, error) {
	grid, err := loadGrid(c)
	if err != nil {
		return nil, err
	}
	start, err := parsePose(c.String(PlanFlagStart))
	if err != nil {
		return nil, errors.Wrapf(err, "--%s", PlanFlagStart)
	}
	goal, err := parsePose(c.String(PlanFlagGoal))
	if err != nil {
		return nil, errors.Wrapf(err, "--%s", PlanFlagGoal)
	}
	opts, err := loadPlannerOptions(c.String(PlanFlagConfig))
	if err != nil {
		return nil, err
	}
	if c.IsSet(PlanFlagSeed) {
		opts.RandomSeed = c.Int(PlanFlagSeed)
	}
	return &problem{
		grid:    grid,
		request: motionplan.PlanRequest{Start: start, Goal: goal},
		opts:    opts,
	}, nil
}

// openStore returns nil when no database was asked for.
func openStore(c *cli.Context, logger logging.Logger) (*runstore.Store, error) {
	path := c.String(PlanFlagDB)
	if path == "" {
		return nil, nil
	}
	return runstore.NewStore(path, logger.Sublogger("runstore"))
}
