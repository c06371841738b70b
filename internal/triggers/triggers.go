// Package triggers delivers after-the-fact notifications for document
// operations. Callbacks are registered per collection and event kind and
// run on a single worker goroutine in enqueue order, decoupled from the
// request path: a slow or faulty callback can delay later callbacks but
// never a client response.
package triggers

import (
	"log/slog"
	"sync"
)

// Kind names the event a callback subscribes to.
type Kind string

const (
	KindRead    Kind = "read"
	KindAdded   Kind = "added"
	KindUpdated Kind = "updated"
	KindDeleted Kind = "deleted"
)

// Event describes one committed operation on a document.
type Event struct {
	Kind       Kind
	Collection string
	// ID of the affected document.
	ID string
	// Document is the state after the operation: the stored document for
	// added and read, the replacement or patch for updated, the removed
	// document for deleted.
	Document map[string]any
	// Before is the prior state, set only for updated events.
	Before map[string]any
	// Auth is the caller identity of the request that caused the event.
	Auth any
}

// Func is a trigger callback.
type Func func(evt Event)

type registryKey struct {
	collection string
	kind       Kind
}

const queueSize = 256

type queued struct {
	evt  Event
	done chan struct{}
}

// Dispatcher owns the trigger registries and the delivery worker.
// Registrations are append-only and matched by exact collection name;
// callbacks for one (collection, kind) pair fire in registration order.
type Dispatcher struct {
	mu        sync.RWMutex
	callbacks map[registryKey][]Func

	queue chan queued
	wg    sync.WaitGroup

	closeOnce sync.Once
}

// NewDispatcher starts a Dispatcher with a running delivery worker.
func NewDispatcher() *Dispatcher {
	d := &Dispatcher{
		callbacks: make(map[registryKey][]Func),
		queue:     make(chan queued, queueSize),
	}
	d.wg.Add(1)
	go d.worker()
	return d
}

// On registers a callback for one collection and event kind.
func (d *Dispatcher) On(collection string, kind Kind, fn Func) {
	key := registryKey{collection: collection, kind: kind}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.callbacks[key] = append(d.callbacks[key], fn)
}

// OnRead registers a callback fired after a document is read.
func (d *Dispatcher) OnRead(collection string, fn Func) { d.On(collection, KindRead, fn) }

// OnAdded registers a callback fired after a document is created.
func (d *Dispatcher) OnAdded(collection string, fn Func) { d.On(collection, KindAdded, fn) }

// OnUpdated registers a callback fired after a document's content changed
// through a replace or a patch.
func (d *Dispatcher) OnUpdated(collection string, fn Func) { d.On(collection, KindUpdated, fn) }

// OnDeleted registers a callback fired after a document is removed.
func (d *Dispatcher) OnDeleted(collection string, fn Func) { d.On(collection, KindDeleted, fn) }

// Dispatch enqueues an event for delivery and returns without waiting for
// callbacks to run. It blocks only when the queue is full.
func (d *Dispatcher) Dispatch(evt Event) {
	defer func() {
		// Dispatch after Close is a programming error upstream; drop the
		// event rather than crash the caller.
		if r := recover(); r != nil {
			slog.Warn("Event dropped, dispatcher closed", "kind", evt.Kind, "collection", evt.Collection)
		}
	}()
	d.queue <- queued{evt: evt}
}

// Flush blocks until every event enqueued before the call has been
// delivered. Intended for tests and shutdown.
func (d *Dispatcher) Flush() {
	done := make(chan struct{})
	func() {
		defer func() {
			if r := recover(); r != nil {
				close(done)
			}
		}()
		d.queue <- queued{done: done}
	}()
	<-done
}

// Close stops the worker after draining already-enqueued events.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		close(d.queue)
	})
	d.wg.Wait()
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for item := range d.queue {
		if item.done != nil {
			close(item.done)
			continue
		}
		d.deliver(item.evt)
	}
}

func (d *Dispatcher) deliver(evt Event) {
	key := registryKey{collection: evt.Collection, kind: evt.Kind}
	d.mu.RLock()
	fns := d.callbacks[key]
	d.mu.RUnlock()

	for _, fn := range fns {
		d.invoke(fn, evt)
	}
}

// invoke runs one callback behind a recover guard so a panicking callback
// cannot kill the worker or touch the already-committed operation.
func (d *Dispatcher) invoke(fn Func, evt Event) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Trigger callback panicked", "kind", evt.Kind, "collection", evt.Collection, "id", evt.ID, "panic", r)
		}
	}()
	fn(evt)
}
