package motionplan

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrNoPathFound is matched by every error returned when planning ends without a path.
var ErrNoPathFound = errors.New("no path found")

var (
	errIterationBudget = errors.New("iteration budget exhausted")
	errPlanTimeout     = errors.New("planning timed out")
)

// NoPathFoundError is returned when a planning run stops before any candidate path reached the
// goal. It matches ErrNoPathFound with errors.Is and unwraps to the reason the run stopped, which
// may be a context error.
type NoPathFoundError struct {
	Iterations int
	TreeSize   int
	cause      error
}

func newNoPathFoundError(cause error, iterations, treeSize int) *NoPathFoundError {
	return &NoPathFoundError{Iterations: iterations, TreeSize: treeSize, cause: cause}
}

func (e *NoPathFoundError) Error() string {
	return fmt.Sprintf("%v after %d iterations (%d nodes): %v", ErrNoPathFound, e.Iterations, e.TreeSize, e.cause)
}

// Unwrap returns the reason the run stopped.
func (e *NoPathFoundError) Unwrap() error {
	return e.cause
}

// Is reports whether target is ErrNoPathFound.
func (e *NoPathFoundError) Is(target error) bool {
	return target == ErrNoPathFound
}

func newInvalidRequestError(field string, err error) error {
	return errors.Wrapf(err, "invalid planning request %s", field)
}
