// Package occupancy provides 2D occupancy grids and the Oracle interface the planner uses to ask
// whether a world point is inside the map and free of obstacles.
package occupancy

import "fmt"

// CellState is the classification of a single grid cell.
type CellState uint8

const (
	// Free cells can be traversed.
	Free CellState = iota
	// Occupied cells contain an obstacle.
	Occupied
	// Unknown cells have not been observed.
	Unknown
	// OutOfGrid is reported for world points that do not map onto any cell.
	OutOfGrid
)

func (s CellState) String() string {
	switch s {
	case Free:
		return "free"
	case Occupied:
		return "occupied"
	case Unknown:
		return "unknown"
	case OutOfGrid:
		return "out_of_grid"
	default:
		return fmt.Sprintf("CellState(%d)", uint8(s))
	}
}

// Oracle answers read-only validity queries about a 2D world. Implementations must be safe for
// concurrent reads.
type Oracle interface {
	// Bounds returns the world extent covered by the oracle, in meters.
	Bounds() (minX, minY, maxX, maxY float64)
	// Classify returns the state of the cell containing the world point (x, y).
	Classify(x, y float64) CellState
}
