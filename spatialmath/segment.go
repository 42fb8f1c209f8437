package spatialmath

import (
	"github.com/golang/geo/r2"
)

// Segment is a directed line segment between two world points.
type Segment struct {
	Start r2.Point `json:"start"`
	End   r2.Point `json:"end"`
}

// Length returns the length of the segment.
func (s Segment) Length() float64 {
	return Distance(s.Start, s.End)
}
