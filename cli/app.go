package cli

import (
	"io"

	"github.com/urfave/cli/v2"
)

// CLI flags.
const (
	flagDebug = "debug"

	PlanFlagMap        = "map"
	PlanFlagEmpty      = "empty"
	PlanFlagResolution = "resolution"
	PlanFlagStart      = "start"
	PlanFlagGoal       = "goal"
	PlanFlagConfig     = "config"
	PlanFlagSeed       = "seed"
	PlanFlagPNG        = "png"
	PlanFlagSaveMap    = "save-map"
	PlanFlagDB         = "db"

	BenchFlagRuns     = "runs"
	BenchFlagParallel = "parallel"

	RunsFlagLimit = "limit"
)

// problemFlags describe the map and request shared by 'plan' and 'bench'.
var problemFlags = []cli.Flag{
	&cli.StringFlag{
		Name:  PlanFlagMap,
		Usage: "plan on the occupancy map described by the YAML `FILE`",
	},
	&cli.StringFlag{
		Name:  PlanFlagEmpty,
		Usage: "plan on an empty map of `WxH` meters instead of a map file",
	},
	&cli.Float64Flag{
		Name:  PlanFlagResolution,
		Value: 0.05,
		Usage: "cell size in meters of the map created by --empty",
	},
	&cli.StringFlag{
		Name:     PlanFlagStart,
		Required: true,
		Usage:    "start pose as `x,y[,theta]` with theta in degrees",
	},
	&cli.StringFlag{
		Name:     PlanFlagGoal,
		Required: true,
		Usage:    "goal pose as `x,y[,theta]` with theta in degrees",
	},
	&cli.StringFlag{
		Name:    PlanFlagConfig,
		Aliases: []string{"c"},
		Usage:   "load planner options from the JSON `FILE`",
	},
	&cli.IntFlag{
		Name:  PlanFlagSeed,
		Usage: "random seed, overrides the one in --config",
	},
	&cli.StringFlag{
		Name:  PlanFlagDB,
		Usage: "record runs in the sqlite database at `FILE`",
	},
}

var app = &cli.App{
	Name:            "rrtstar",
	Usage:           "plan collision free paths on 2D occupancy grids",
	HideHelpCommand: true,
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:    flagDebug,
			Aliases: []string{"vvv"},
			Usage:   "enable debug logging",
		},
	},
	Commands: []*cli.Command{
		{
			Name:      "plan",
			Usage:     "plan a single path and print its waypoints",
			UsageText: "rrtstar plan (--map <file> | --empty <WxH>) --start <x,y[,theta]> --goal <x,y[,theta]> [other options]",
			Flags: append([]cli.Flag{
				&cli.StringFlag{
					Name:  PlanFlagPNG,
					Usage: "render the search tree and path to the PNG `FILE`",
				},
				&cli.StringFlag{
					Name:  PlanFlagSaveMap,
					Usage: "write the map planned on to the YAML `FILE` and a PNG next to it",
				},
			}, problemFlags...),
			Action: PlanAction,
		},
		{
			Name:  "bench",
			Usage: "plan the same request with many seeds and summarize the results",
			Flags: append([]cli.Flag{
				&cli.IntFlag{
					Name:  BenchFlagRuns,
					Value: 20,
					Usage: "number of runs",
				},
				&cli.IntFlag{
					Name:  BenchFlagParallel,
					Value: 4,
					Usage: "number of runs planned at once",
				},
			}, problemFlags...),
			Action: BenchAction,
		},
		{
			Name:  "runs",
			Usage: "list recorded runs",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     PlanFlagDB,
					Required: true,
					Usage:    "sqlite database `FILE` written by plan or bench",
				},
				&cli.IntFlag{
					Name:  RunsFlagLimit,
					Value: 20,
					Usage: "maximum number of runs to list, 0 for all",
				},
			},
			Action: ListRunsAction,
		},
	},
}

// NewApp returns a new app with the CLI API, Writer set to out, and ErrWriter
// set to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	app.Writer = out
	app.ErrWriter = errOut
	return app
}
