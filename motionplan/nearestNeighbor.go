package motionplan

import (
	"math"

	"github.com/golang/geo/r2"

	"github.com/viam-labs/rrtstar/spatialmath"
)

// Nearest returns the index of the node closest to p. Ties go to the lowest index. An empty tree
// returns NoParent.
func (t *Tree) Nearest(p r2.Point) int {
	bestDist := math.Inf(1)
	best := NoParent
	for i := range t.nodes {
		if dist := spatialmath.Distance(t.nodes[i].Position, p); dist < bestDist {
			bestDist = dist
			best = i
		}
	}
	return best
}

// NeighborsWithinRadius returns, in index order, every node no farther than radius from the node
// at index. The node itself is included.
func (t *Tree) NeighborsWithinRadius(index int, radius float64) []int {
	t.mustExist(index)
	center := t.nodes[index].Position
	neighbors := []int{}
	for i := range t.nodes {
		if spatialmath.Distance(t.nodes[i].Position, center) <= radius {
			neighbors = append(neighbors, i)
		}
	}
	return neighbors
}
