// Package runstore keeps a history of planning runs in a sqlite database.
package runstore

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	// registers the "sqlite" database/sql driver.
	_ "modernc.org/sqlite"

	"github.com/viam-labs/rrtstar/logging"
	"github.com/viam-labs/rrtstar/motionplan"
	"github.com/viam-labs/rrtstar/spatialmath"
)

// schema.sql creates the plan_runs and plan_waypoints tables if they do not exist.
//
//go:embed schema.sql
var schemaSQL string

// ErrRunNotFound is returned when a run id is not in the store.
var ErrRunNotFound = errors.New("run not found")

// Run is one stored planning request and its outcome.
type Run struct {
	ID         uuid.UUID
	CreatedAt  time.Time
	Start      spatialmath.Pose
	Goal       spatialmath.Pose
	Seed       int
	Options    motionplan.PlannerOptions
	Success    bool
	Iterations int
	TreeSize   int
	PathLength float64
	Duration   time.Duration
	// Error is empty for successful runs.
	Error string
	// Waypoints is only filled in by Store.Run.
	Waypoints []spatialmath.Pose
}

// NewRunFromPlan describes a successful plan produced with opts.
func NewRunFromPlan(plan *motionplan.Plan, opts motionplan.PlannerOptions) Run {
	return Run{
		ID:         plan.RunID,
		CreatedAt:  time.Now(),
		Start:      plan.Request.Start,
		Goal:       plan.Request.Goal,
		Seed:       opts.RandomSeed,
		Options:    opts,
		Success:    true,
		Iterations: plan.Iterations,
		TreeSize:   plan.Tree.Len(),
		PathLength: plan.Length(),
		Duration:   plan.Duration,
		Waypoints:  plan.Poses,
	}
}

// NewFailedRun describes a request that ended with planErr.
func NewFailedRun(request motionplan.PlanRequest, opts motionplan.PlannerOptions, planErr error, duration time.Duration) Run {
	run := Run{
		ID:        uuid.New(),
		CreatedAt: time.Now(),
		Start:     request.Start,
		Goal:      request.Goal,
		Seed:      opts.RandomSeed,
		Options:   opts,
		Duration:  duration,
		Error:     planErr.Error(),
	}
	var npf *motionplan.NoPathFoundError
	if errors.As(planErr, &npf) {
		run.Iterations = npf.Iterations
		run.TreeSize = npf.TreeSize
	}
	return run
}

// Store is a sqlite backed run history.
type Store struct {
	db     *sql.DB
	logger logging.Logger
}

// NewStore opens, creating if needed, the database at path.
func NewStore(path string, logger logging.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open run store %s", path)
	}
	// sqlite allows a single writer; serialize everything through one connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		return nil, multierr.Combine(errors.Wrap(err, "cannot initialize run store schema"), db.Close())
	}
	logger.Debugw("initialized run store", "path", path)
	return &Store{db: db, logger: logger}, nil
}

// RecordRun stores a run and its waypoints.
func (s *Store) RecordRun(ctx context.Context, run Run) (err error) {
	options, err := json.Marshal(run.Options)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "cannot begin transaction")
	}
	defer func() {
		if err != nil {
			err = multierr.Combine(err, tx.Rollback())
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO plan_runs (
			id, created_at_ns, start_x, start_y, start_theta, goal_x, goal_y, goal_theta,
			seed, options, success, iterations, tree_size, path_length, duration_ns, error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID.String(), run.CreatedAt.UnixNano(),
		run.Start.X, run.Start.Y, run.Start.Theta,
		run.Goal.X, run.Goal.Y, run.Goal.Theta,
		run.Seed, string(options), run.Success, run.Iterations, run.TreeSize,
		run.PathLength, run.Duration.Nanoseconds(), run.Error,
	)
	if err != nil {
		return errors.Wrapf(err, "cannot insert run %s", run.ID)
	}

	for i, wp := range run.Waypoints {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO plan_waypoints (run_id, seq, x, y, theta) VALUES (?, ?, ?, ?, ?)`,
			run.ID.String(), i, wp.X, wp.Y, wp.Theta,
		)
		if err != nil {
			return errors.Wrapf(err, "cannot insert waypoint %d of run %s", i, run.ID)
		}
	}
	return tx.Commit()
}

const selectRun = `
	SELECT id, created_at_ns, start_x, start_y, start_theta, goal_x, goal_y, goal_theta,
		seed, options, success, iterations, tree_size, path_length, duration_ns, error
	FROM plan_runs
`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		run        Run
		id         string
		options    string
		createdAt  int64
		durationNs int64
	)
	err := row.Scan(
		&id, &createdAt,
		&run.Start.X, &run.Start.Y, &run.Start.Theta,
		&run.Goal.X, &run.Goal.Y, &run.Goal.Theta,
		&run.Seed, &options, &run.Success, &run.Iterations, &run.TreeSize,
		&run.PathLength, &durationNs, &run.Error,
	)
	if err != nil {
		return Run{}, err
	}
	if run.ID, err = uuid.Parse(id); err != nil {
		return Run{}, errors.Wrapf(err, "stored run id %q", id)
	}
	if err := json.Unmarshal([]byte(options), &run.Options); err != nil {
		return Run{}, errors.Wrapf(err, "stored options of run %s", id)
	}
	run.CreatedAt = time.Unix(0, createdAt)
	run.Duration = time.Duration(durationNs)
	return run, nil
}

// Run returns the run with the given id, waypoints included.
func (s *Store) Run(ctx context.Context, id uuid.UUID) (*Run, error) {
	run, err := scanRun(s.db.QueryRowContext(ctx, selectRun+` WHERE id = ?`, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(ErrRunNotFound, "%s", id)
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT x, y, theta FROM plan_waypoints WHERE run_id = ? ORDER BY seq`, id.String())
	if err != nil {
		return nil, errors.Wrapf(err, "cannot query waypoints of run %s", id)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			s.logger.Debugw("closing waypoint rows", "error", err)
		}
	}()
	for rows.Next() {
		var wp spatialmath.Pose
		if err := rows.Scan(&wp.X, &wp.Y, &wp.Theta); err != nil {
			return nil, err
		}
		run.Waypoints = append(run.Waypoints, wp)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns returns up to limit runs, newest first, without their waypoints. A limit of zero or
// less returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, selectRun+` ORDER BY created_at_ns DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "cannot list runs")
	}
	defer func() {
		if err := rows.Close(); err != nil {
			s.logger.Debugw("closing run rows", "error", err)
		}
	}()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
