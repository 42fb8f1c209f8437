package motionplan

import (
	"math"

	"github.com/golang/geo/r2"
	"gonum.org/v1/gonum/floats"

	"github.com/viam-labs/rrtstar/occupancy"
	"github.com/viam-labs/rrtstar/spatialmath"
)

// ValidityChecker answers point and segment validity queries against an occupancy oracle.
// Points outside the oracle's grid are reported as collisions and counted.
type ValidityChecker struct {
	oracle                 occupancy.Oracle
	treatUnknownAsOccupied bool
	minX, minY, maxX, maxY float64

	outOfGrid int
}

// NewValidityChecker returns a checker over oracle. Unknown cells are passable unless
// treatUnknownAsOccupied is set.
func NewValidityChecker(oracle occupancy.Oracle, treatUnknownAsOccupied bool) *ValidityChecker {
	vc := &ValidityChecker{oracle: oracle, treatUnknownAsOccupied: treatUnknownAsOccupied}
	vc.minX, vc.minY, vc.maxX, vc.maxY = oracle.Bounds()
	return vc
}

// IsInsideBounds returns whether p lies within the oracle's world extent, edges included.
func (vc *ValidityChecker) IsInsideBounds(p r2.Point) bool {
	return p.X >= vc.minX && p.X <= vc.maxX && p.Y >= vc.minY && p.Y <= vc.maxY
}

// IsCollisionFree returns whether the cell containing p can be traversed.
func (vc *ValidityChecker) IsCollisionFree(p r2.Point) bool {
	switch vc.oracle.Classify(p.X, p.Y) {
	case occupancy.Free:
		return true
	case occupancy.Unknown:
		return !vc.treatUnknownAsOccupied
	case occupancy.OutOfGrid:
		vc.outOfGrid++
		return false
	case occupancy.Occupied:
		return false
	default:
		return false
	}
}

// IsValid returns whether p is inside the bounds and collision free.
func (vc *ValidityChecker) IsValid(p r2.Point) bool {
	return vc.IsInsideBounds(p) && vc.IsCollisionFree(p)
}

// maxSegmentSteps bounds how many points IsSegmentValid checks on one segment.
const maxSegmentSteps = 1 << 16

// IsSegmentValid checks points every resolution meters along the segment from a to b, both ends
// included, and at most maxSegmentSteps+1 points. A non-positive resolution only checks b. A
// segment whose length or resolution is not a number is invalid.
func (vc *ValidityChecker) IsSegmentValid(a, b r2.Point, resolution float64) bool {
	if resolution <= 0 {
		return vc.IsValid(b)
	}
	stepsF := math.Ceil(spatialmath.Distance(a, b) / resolution)
	if math.IsNaN(stepsF) {
		return false
	}
	steps := int(min(stepsF, maxSegmentSteps))
	if steps == 0 {
		return vc.IsValid(b)
	}
	for _, by := range floats.Span(make([]float64, steps+1), 0, 1) {
		if !vc.IsValid(spatialmath.Interpolate(a, b, by)) {
			return false
		}
	}
	return true
}

// OutOfGridCount returns how many queries landed outside the oracle's grid.
func (vc *ValidityChecker) OutOfGridCount() int {
	return vc.outOfGrid
}
