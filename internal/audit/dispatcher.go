package audit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Config controls dispatcher buffering behavior.
type Config struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// Dispatcher relays audit events to a sink from a single worker goroutine,
// so a slow sink never runs on the caller's request path.
//
// A nil *Dispatcher is valid and discards everything; NewDispatcher returns
// nil when auditing is disabled.
type Dispatcher struct {
	sink       Sink
	events     chan Event
	dropIfFull bool
	now        func() time.Time

	// mu orders sends against the close of events: Emit sends under the read
	// lock, Close closes the channel under the write lock.
	mu      sync.RWMutex
	closed  bool
	drained chan struct{}
	dropped atomic.Uint64
}

// NewDispatcher starts the worker goroutine.
func NewDispatcher(cfg Config, sink Sink) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	if sink == nil {
		sink = NoOpSink{}
	}
	d := &Dispatcher{
		sink:       sink,
		events:     make(chan Event, max(cfg.BufferSize, 1)),
		dropIfFull: cfg.DropIfFull,
		now:        time.Now,
		drained:    make(chan struct{}),
	}
	go d.deliver()
	return d
}

// deliver runs until events is closed and empty.
func (d *Dispatcher) deliver() {
	defer close(d.drained)
	for event := range d.events {
		d.sink.Emit(context.Background(), event)
	}
}

// Emit queues event. Events without an ID get a ULID and, if unset, a
// timestamp. When the buffer is full Emit either drops the event and counts
// it (DropIfFull) or waits for room or for ctx to end. Events emitted after
// Close are discarded.
func (d *Dispatcher) Emit(ctx context.Context, event Event) {
	if d == nil {
		return
	}
	if event.ID == "" {
		stamped := NewEvent(event.EventType, d.now())
		event.ID = stamped.ID
		if event.Timestamp.IsZero() {
			event.Timestamp = stamped.Timestamp
		}
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}

	if d.dropIfFull {
		select {
		case d.events <- event:
		default:
			d.dropped.Add(1)
		}
		return
	}

	var done <-chan struct{}
	if ctx != nil {
		done = ctx.Done()
	}
	select {
	case d.events <- event:
	case <-done:
	}
}

// Close stops intake and returns once every queued event reached the sink.
// It is safe to call more than once.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.events)
	}
	d.mu.Unlock()
	<-d.drained
}

// Dropped counts events discarded because the buffer was full.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
