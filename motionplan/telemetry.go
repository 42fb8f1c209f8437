package motionplan

import (
	"github.com/golang/geo/r2"
	"github.com/google/uuid"

	"github.com/viam-labs/rrtstar/spatialmath"
	"github.com/viam-labs/rrtstar/viz"
)

// telemetry stamps snapshots of a single run before handing them to the publisher.
type telemetry struct {
	publisher viz.Publisher
	runID     uuid.UUID
	iteration int
}

func (tm *telemetry) points(channel viz.Channel, points ...r2.Point) {
	tm.publisher.Publish(viz.Snapshot{
		RunID:     tm.runID,
		Channel:   channel,
		Iteration: tm.iteration,
		Points:    points,
	})
}

func (tm *telemetry) edges(channel viz.Channel, edges ...spatialmath.Segment) {
	if len(edges) == 0 {
		return
	}
	tm.publisher.Publish(viz.Snapshot{
		RunID:     tm.runID,
		Channel:   channel,
		Iteration: tm.iteration,
		Edges:     edges,
	})
}
