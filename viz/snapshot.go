// Package viz carries planner telemetry: tree, sample and path snapshots published while a plan
// runs, plus publishers that record them, fan them out asynchronously or render them to images.
package viz

import (
	"fmt"
	"slices"

	"github.com/golang/geo/r2"
	"github.com/google/uuid"

	"github.com/viam-labs/rrtstar/spatialmath"
)

// Channel identifies what a snapshot shows. The values are stable so viewers can key on them.
type Channel int

// The channels published by the planner.
const (
	ChannelSource Channel = iota
	ChannelGoal
	ChannelSample
	ChannelTree
	ChannelPath
	ChannelChooseParent
	ChannelRewire
)

// Channels lists every channel in identifier order.
var Channels = []Channel{
	ChannelSource, ChannelGoal, ChannelSample, ChannelTree, ChannelPath, ChannelChooseParent, ChannelRewire,
}

func (c Channel) String() string {
	switch c {
	case ChannelSource:
		return "source"
	case ChannelGoal:
		return "goal"
	case ChannelSample:
		return "sample"
	case ChannelTree:
		return "tree"
	case ChannelPath:
		return "path"
	case ChannelChooseParent:
		return "choose_parent"
	case ChannelRewire:
		return "rewire"
	default:
		return fmt.Sprintf("channel(%d)", int(c))
	}
}

// Accumulates reports whether snapshots on the channel add edges to what was already published.
// Snapshots on every other channel replace the channel's previous contents.
func (c Channel) Accumulates() bool {
	return c == ChannelTree || c == ChannelChooseParent || c == ChannelRewire
}

// Snapshot is one telemetry update.
type Snapshot struct {
	RunID     uuid.UUID
	Channel   Channel
	Iteration int
	Points    []r2.Point
	Edges     []spatialmath.Segment
}

// Publisher receives snapshots. Publish must not block the caller.
type Publisher interface {
	Publish(snapshot Snapshot)
}

// NoopPublisher discards every snapshot.
type NoopPublisher struct{}

// Publish does nothing.
func (NoopPublisher) Publish(Snapshot) {}

// Scene is the accumulated state of every channel of one run.
type Scene struct {
	RunID  uuid.UUID
	Points map[Channel][]r2.Point
	Edges  map[Channel][]spatialmath.Segment
}

// NewScene returns an empty scene.
func NewScene() *Scene {
	return &Scene{
		Points: map[Channel][]r2.Point{},
		Edges:  map[Channel][]spatialmath.Segment{},
	}
}

// Apply folds a snapshot into the scene. A snapshot from a different run clears the scene first.
func (s *Scene) Apply(snapshot Snapshot) {
	if snapshot.RunID != s.RunID {
		clear(s.Points)
		clear(s.Edges)
		s.RunID = snapshot.RunID
	}
	if snapshot.Channel.Accumulates() {
		s.Edges[snapshot.Channel] = append(s.Edges[snapshot.Channel], snapshot.Edges...)
		return
	}
	s.Points[snapshot.Channel] = slices.Clone(snapshot.Points)
	s.Edges[snapshot.Channel] = slices.Clone(snapshot.Edges)
}
