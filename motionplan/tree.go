package motionplan

import (
	"fmt"
	"slices"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"

	"github.com/viam-labs/rrtstar/spatialmath"
)

// NoParent is the parent index of the root node.
const NoParent = -1

var errParentCycle = errors.New("parent pointers form a cycle")

// Node is a single pose in a search tree.
type Node struct {
	ID       int      `json:"id"`
	Position r2.Point `json:"position"`
	Parent   int      `json:"parent"`
	Children []int    `json:"children"`
	// Cost is the summed edge length from the root.
	Cost float64 `json:"cost"`
}

// Tree is an append-only search tree rooted at index 0. Node indices are stable for the
// lifetime of the tree; only the most recently inserted node may be removed, via RollbackLast.
//
// Tree methods panic on out of range indices and other contract violations. A Tree is not safe
// for concurrent mutation.
type Tree struct {
	nodes []Node
}

// NewTree returns an empty tree.
func NewTree() *Tree {
	return &Tree{}
}

// Insert appends a node under parent and returns its index. The first node inserted becomes the
// root and its parent argument is ignored.
func (t *Tree) Insert(position r2.Point, parent int, cost float64) int {
	idx := len(t.nodes)
	if idx == 0 {
		t.nodes = append(t.nodes, Node{ID: 0, Position: position, Parent: NoParent, Cost: cost})
		return 0
	}
	t.mustExist(parent)
	t.nodes = append(t.nodes, Node{ID: idx, Position: position, Parent: parent, Cost: cost})
	t.nodes[parent].Children = append(t.nodes[parent].Children, idx)
	return idx
}

// RollbackLast removes the most recently inserted node. The node must not be the root and must
// not have children.
func (t *Tree) RollbackLast() {
	last := len(t.nodes) - 1
	if last <= 0 {
		panic("cannot roll back the root of a tree")
	}
	n := t.nodes[last]
	if len(n.Children) > 0 {
		panic(fmt.Sprintf("cannot roll back node %d, it has %d children", last, len(n.Children)))
	}
	t.removeChild(n.Parent, last)
	t.nodes = t.nodes[:last]
}

// SetParent moves a node under a new parent, updating both parents' children lists. The new
// parent must not be the node itself or one of its descendants.
func (t *Tree) SetParent(index, newParent int) {
	t.mustExist(index)
	t.mustExist(newParent)
	if index == 0 {
		panic("cannot reparent the root of a tree")
	}
	if index == newParent {
		panic(fmt.Sprintf("cannot make node %d its own parent", index))
	}
	oldParent := t.nodes[index].Parent
	if oldParent == newParent {
		return
	}
	for cur, steps := newParent, 0; cur != NoParent && steps < len(t.nodes); cur, steps = t.nodes[cur].Parent, steps+1 {
		if cur == index {
			panic(fmt.Sprintf("cannot move node %d under its descendant %d", index, newParent))
		}
	}
	t.removeChild(oldParent, index)
	t.nodes[newParent].Children = append(t.nodes[newParent].Children, index)
	t.nodes[index].Parent = newParent
}

// SetCost overwrites the accumulated cost of a node.
func (t *Tree) SetCost(index int, cost float64) {
	t.mustExist(index)
	t.nodes[index].Cost = cost
}

// RootToNode returns the indices of the nodes from the root to index, inclusive.
func (t *Tree) RootToNode(index int) ([]int, error) {
	t.mustExist(index)
	path := []int{}
	for cur := index; cur != NoParent; cur = t.nodes[cur].Parent {
		if len(path) >= len(t.nodes) {
			return nil, errors.Wrapf(errParentCycle, "walking back from node %d", index)
		}
		path = append(path, cur)
	}
	slices.Reverse(path)
	return path, nil
}

// Len returns the number of nodes in the tree.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Node returns a copy of the node at index.
func (t *Tree) Node(index int) Node {
	t.mustExist(index)
	n := t.nodes[index]
	n.Children = slices.Clone(n.Children)
	return n
}

// Position returns the position of the node at index.
func (t *Tree) Position(index int) r2.Point {
	t.mustExist(index)
	return t.nodes[index].Position
}

// Cost returns the accumulated cost of the node at index.
func (t *Tree) Cost(index int) float64 {
	t.mustExist(index)
	return t.nodes[index].Cost
}

// Parent returns the parent index of the node at index, or NoParent for the root.
func (t *Tree) Parent(index int) int {
	t.mustExist(index)
	return t.nodes[index].Parent
}

// Children returns a copy of the children of the node at index, in insertion order.
func (t *Tree) Children(index int) []int {
	t.mustExist(index)
	return slices.Clone(t.nodes[index].Children)
}

// Nodes returns a deep copy of every node in index order.
func (t *Tree) Nodes() []Node {
	out := make([]Node, 0, len(t.nodes))
	for i := range t.nodes {
		out = append(out, t.Node(i))
	}
	return out
}

// Edges returns one segment per non-root node, from its parent to the node.
func (t *Tree) Edges() []spatialmath.Segment {
	if len(t.nodes) < 2 {
		return nil
	}
	edges := make([]spatialmath.Segment, 0, len(t.nodes)-1)
	for _, n := range t.nodes[1:] {
		edges = append(edges, t.edge(n.Parent, n.ID))
	}
	return edges
}

func (t *Tree) edge(from, to int) spatialmath.Segment {
	return spatialmath.Segment{Start: t.nodes[from].Position, End: t.nodes[to].Position}
}

func (t *Tree) removeChild(parent, child int) {
	children := t.nodes[parent].Children
	i := slices.Index(children, child)
	if i < 0 {
		panic(fmt.Sprintf("node %d is not a child of %d", child, parent))
	}
	t.nodes[parent].Children = slices.Delete(children, i, i+1)
}

func (t *Tree) mustExist(index int) {
	if index < 0 || index >= len(t.nodes) {
		panic(fmt.Sprintf("node index %d out of range [0, %d)", index, len(t.nodes)))
	}
}
