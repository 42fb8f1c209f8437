package viz

import (
	"sync"
)

// Recorder keeps every snapshot it receives in memory. It is safe for concurrent use.
type Recorder struct {
	mu        sync.Mutex
	snapshots []Snapshot
	scene     *Scene
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{scene: NewScene()}
}

// Publish records the snapshot.
func (r *Recorder) Publish(snapshot Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, snapshot)
	r.scene.Apply(snapshot)
}

// Consume records the snapshot so a recorder can also serve as an AsyncPublisher sink.
func (r *Recorder) Consume(snapshot Snapshot) error {
	r.Publish(snapshot)
	return nil
}

// Snapshots returns every recorded snapshot in arrival order.
func (r *Recorder) Snapshots() []Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Snapshot, len(r.snapshots))
	copy(out, r.snapshots)
	return out
}

// OnChannel returns the recorded snapshots published on channel.
func (r *Recorder) OnChannel(channel Channel) []Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Snapshot
	for _, s := range r.snapshots {
		if s.Channel == channel {
			out = append(out, s)
		}
	}
	return out
}

// Scene returns a copy of the accumulated scene of the most recent run.
func (r *Recorder) Scene() *Scene {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := NewScene()
	out.RunID = r.scene.RunID
	for ch, pts := range r.scene.Points {
		out.Points[ch] = append(out.Points[ch], pts...)
	}
	for ch, edges := range r.scene.Edges {
		out.Edges[ch] = append(out.Edges[ch], edges...)
	}
	return out
}
