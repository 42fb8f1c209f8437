package viz

import (
	"context"
	"sync"

	"go.uber.org/atomic"

	"github.com/viam-labs/rrtstar/logging"
	"github.com/viam-labs/rrtstar/utils"
)

const defaultBufferSize = 1024

// Sink consumes snapshots off the planning goroutine. Sinks may block.
type Sink interface {
	Consume(snapshot Snapshot) error
}

// AsyncPublisher hands snapshots to its sinks from a background worker. When the buffer is full,
// snapshots are dropped and counted rather than blocking the planner.
type AsyncPublisher struct {
	sinks    []Sink
	queue    chan Snapshot
	workers  utils.StoppableWorkers
	logger   logging.Logger
	accepted atomic.Int64
	dropped  atomic.Int64
	failed   atomic.Int64

	// closeMu orders every Publish send before the final drain in Close.
	closeMu sync.RWMutex
	closed  bool
}

// NewAsyncPublisher starts a publisher delivering to sinks. A bufferSize of zero or less uses the
// default.
func NewAsyncPublisher(bufferSize int, logger logging.Logger, sinks ...Sink) *AsyncPublisher {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	ap := &AsyncPublisher{
		sinks:  sinks,
		queue:  make(chan Snapshot, bufferSize),
		logger: logger,
	}
	ap.workers = utils.NewStoppableWorkers(ap.run)
	return ap
}

// Publish queues the snapshot, or drops it when the queue is full or the publisher is closed.
func (ap *AsyncPublisher) Publish(snapshot Snapshot) {
	ap.closeMu.RLock()
	defer ap.closeMu.RUnlock()
	if ap.closed {
		ap.dropped.Inc()
		return
	}
	select {
	case ap.queue <- snapshot:
		ap.accepted.Inc()
	default:
		ap.dropped.Inc()
	}
}

func (ap *AsyncPublisher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			// deliver whatever was queued before the close
			for {
				select {
				case s := <-ap.queue:
					ap.deliver(s)
				default:
					return
				}
			}
		case s := <-ap.queue:
			ap.deliver(s)
		}
	}
}

func (ap *AsyncPublisher) deliver(snapshot Snapshot) {
	for _, sink := range ap.sinks {
		if err := sink.Consume(snapshot); err != nil {
			ap.failed.Inc()
			ap.logger.Debugw("telemetry sink failed", "channel", snapshot.Channel.String(), "error", err)
		}
	}
}

// Close delivers every queued snapshot and stops the background worker.
func (ap *AsyncPublisher) Close() {
	ap.closeMu.Lock()
	ap.closed = true
	ap.closeMu.Unlock()
	ap.workers.Stop()
}

// Accepted returns how many snapshots were queued.
func (ap *AsyncPublisher) Accepted() int64 {
	return ap.accepted.Load()
}

// Dropped returns how many snapshots were discarded.
func (ap *AsyncPublisher) Dropped() int64 {
	return ap.dropped.Load()
}

// Failed returns how many sink deliveries returned an error.
func (ap *AsyncPublisher) Failed() int64 {
	return ap.failed.Load()
}
