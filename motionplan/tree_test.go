package motionplan

import (
	"math/rand"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"github.com/viam-labs/rrtstar/spatialmath"
)

// checkTreeConsistency asserts that every node appears exactly once in its parent's children and
// that every child points back at its parent.
func checkTreeConsistency(t *testing.T, tree *Tree) {
	t.Helper()
	childCount := 0
	for _, n := range tree.Nodes() {
		childCount += len(n.Children)
		for _, c := range n.Children {
			test.That(t, tree.Parent(c), test.ShouldEqual, n.ID)
		}
		if n.ID == 0 {
			test.That(t, n.Parent, test.ShouldEqual, NoParent)
			continue
		}
		occurrences := 0
		for _, c := range tree.Children(n.Parent) {
			if c == n.ID {
				occurrences++
			}
		}
		test.That(t, occurrences, test.ShouldEqual, 1)
	}
	test.That(t, childCount, test.ShouldEqual, tree.Len()-1)
}

func checkNodeCost(t *testing.T, tree *Tree, index int) {
	t.Helper()
	parent := tree.Parent(index)
	if parent == NoParent {
		return
	}
	expected := tree.Cost(parent) + spatialmath.Distance(tree.Position(parent), tree.Position(index))
	test.That(t, tree.Cost(index), test.ShouldAlmostEqual, expected)
}

func randomPoint(rnd *rand.Rand) r2.Point {
	return r2.Point{X: rnd.Float64()*10 - 5, Y: rnd.Float64()*10 - 5}
}

func TestTreeInsert(t *testing.T) {
	tree := NewTree()
	test.That(t, tree.Len(), test.ShouldEqual, 0)

	root := tree.Insert(r2.Point{}, 7, 0)
	test.That(t, root, test.ShouldEqual, 0)
	test.That(t, tree.Parent(root), test.ShouldEqual, NoParent)

	a := tree.Insert(r2.Point{X: 1}, root, 1)
	b := tree.Insert(r2.Point{X: 1, Y: 1}, a, 2)
	test.That(t, a, test.ShouldEqual, 1)
	test.That(t, b, test.ShouldEqual, 2)
	test.That(t, tree.Children(root), test.ShouldResemble, []int{1})
	test.That(t, tree.Children(a), test.ShouldResemble, []int{2})
	test.That(t, tree.Cost(b), test.ShouldEqual, 2.)
	checkTreeConsistency(t, tree)

	path, err := tree.RootToNode(b)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, path, test.ShouldResemble, []int{0, 1, 2})

	path, err = tree.RootToNode(root)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, path, test.ShouldResemble, []int{0})

	edges := tree.Edges()
	test.That(t, len(edges), test.ShouldEqual, 2)
	test.That(t, edges[1], test.ShouldResemble, spatialmath.Segment{Start: r2.Point{X: 1}, End: r2.Point{X: 1, Y: 1}})

	// copies must not alias the tree
	n := tree.Node(root)
	n.Children[0] = 42
	test.That(t, tree.Children(root), test.ShouldResemble, []int{1})
}

func TestTreeRollbackLast(t *testing.T) {
	tree := NewTree()
	root := tree.Insert(r2.Point{}, NoParent, 0)
	a := tree.Insert(r2.Point{X: 1}, root, 1)
	b := tree.Insert(r2.Point{X: 2}, root, 2)

	tree.RollbackLast()
	test.That(t, tree.Len(), test.ShouldEqual, 2)
	test.That(t, tree.Children(root), test.ShouldResemble, []int{a})
	checkTreeConsistency(t, tree)

	// the next insert reuses the index
	test.That(t, tree.Insert(r2.Point{X: 3}, a, 3), test.ShouldEqual, b)
	test.That(t, tree.Children(a), test.ShouldResemble, []int{b})

	t.Run("node with children", func(t *testing.T) {
		last := tree.Insert(r2.Point{X: 4}, root, 4)
		tree.SetParent(b, last)
		checkTreeConsistency(t, tree)
		test.That(t, func() { tree.RollbackLast() }, test.ShouldPanic)
	})

	t.Run("root", func(t *testing.T) {
		single := NewTree()
		single.Insert(r2.Point{}, NoParent, 0)
		test.That(t, func() { single.RollbackLast() }, test.ShouldPanic)
	})
}

func TestTreeContractViolations(t *testing.T) {
	tree := NewTree()
	root := tree.Insert(r2.Point{}, NoParent, 0)
	a := tree.Insert(r2.Point{X: 1}, root, 1)

	test.That(t, func() { tree.Insert(r2.Point{}, 5, 0) }, test.ShouldPanic)
	test.That(t, func() { tree.Position(2) }, test.ShouldPanic)
	test.That(t, func() { tree.Cost(-1) }, test.ShouldPanic)
	test.That(t, func() { tree.SetParent(root, a) }, test.ShouldPanic)
	test.That(t, func() { tree.SetParent(a, a) }, test.ShouldPanic)
	test.That(t, func() { tree.NeighborsWithinRadius(3, 1) }, test.ShouldPanic)
}

func TestTreeParentCycle(t *testing.T) {
	tree := NewTree()
	root := tree.Insert(r2.Point{}, NoParent, 0)
	a := tree.Insert(r2.Point{X: 1}, root, 1)
	b := tree.Insert(r2.Point{X: 2}, a, 2)

	c := tree.Insert(r2.Point{X: 3}, b, 3)

	test.That(t, func() { tree.SetParent(a, b) }, test.ShouldPanic)
	test.That(t, func() { tree.SetParent(a, c) }, test.ShouldPanic)
	// the failed moves left the tree untouched
	test.That(t, tree.Parent(a), test.ShouldEqual, root)
	test.That(t, tree.Children(b), test.ShouldResemble, []int{c})
	checkTreeConsistency(t, tree)

	// moving a node under a sibling branch is fine
	d := tree.Insert(r2.Point{X: 0, Y: 1}, root, 1)
	tree.SetParent(b, d)
	test.That(t, tree.Parent(b), test.ShouldEqual, d)
	checkTreeConsistency(t, tree)

	// RootToNode still terminates on a corrupted tree
	tree.nodes[a].Parent = b
	_, err := tree.RootToNode(c)
	test.That(t, errors.Is(err, errParentCycle), test.ShouldBeTrue)
}

func TestTreeRandomRewires(t *testing.T) {
	rnd := rand.New(rand.NewSource(3))
	tree := NewTree()
	tree.Insert(randomPoint(rnd), NoParent, 0)

	for i := 0; i < 500; i++ {
		parent := rnd.Intn(tree.Len())
		pos := randomPoint(rnd)
		idx := tree.Insert(pos, parent, tree.Cost(parent)+spatialmath.Distance(tree.Position(parent), pos))
		checkNodeCost(t, tree, idx)
	}
	checkTreeConsistency(t, tree)

	for i := 0; i < 300; i++ {
		// parents always have lower indices than their children, so no cycles can form
		index := 1 + rnd.Intn(tree.Len()-1)
		newParent := rnd.Intn(index)
		tree.SetParent(index, newParent)
		tree.SetCost(index, tree.Cost(newParent)+spatialmath.Distance(tree.Position(newParent), tree.Position(index)))
		checkNodeCost(t, tree, index)
		test.That(t, tree.Parent(index), test.ShouldEqual, newParent)
	}
	checkTreeConsistency(t, tree)

	for i := 0; i < tree.Len(); i++ {
		path, err := tree.RootToNode(i)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, path[0], test.ShouldEqual, 0)
		test.That(t, path[len(path)-1], test.ShouldEqual, i)
	}
}
