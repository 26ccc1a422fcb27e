package eventrouter

import (
	"fmt"
	"reflect"
)

// Handle identifies a subscription within the registry of one event type.
// Released handles are reissued by later subscriptions.
type Handle int

// CallbackRegistry holds the subscribers and the deferred events of a single
// event type E.
//
// Callbacks live in a dense slice. Removing one moves the last callback into
// the freed slot, so delivery order is registration order only until the
// first removal.
type CallbackRegistry[E any] struct {
	typ  reflect.Type
	name string

	callbacks     []func(E)
	indexToHandle []Handle
	handleToIndex []int // -1 when the handle is not live
	freeHandles   []Handle

	deferred    []E
	dispatching int
}

func newCallbackRegistry[E any](typ reflect.Type) *CallbackRegistry[E] {
	return &CallbackRegistry[E]{
		typ:  typ,
		name: typ.String(),
	}
}

// Type returns the event type served by the registry.
func (r *CallbackRegistry[E]) Type() reflect.Type {
	return r.typ
}

// Len returns the number of live callbacks.
func (r *CallbackRegistry[E]) Len() int {
	return len(r.callbacks)
}

// Deferred returns the number of saved events awaiting a flush.
func (r *CallbackRegistry[E]) Deferred() int {
	return len(r.deferred)
}

// Live reports whether h currently refers to a callback.
func (r *CallbackRegistry[E]) Live(h Handle) bool {
	return h >= 0 && int(h) < len(r.handleToIndex) && r.handleToIndex[h] >= 0
}

// AddCallback stores fn and returns its handle. The most recently released
// handle is reused before a new one is minted.
func (r *CallbackRegistry[E]) AddCallback(fn func(E)) Handle {
	if fn == nil {
		panic(fmt.Errorf("%w: event type %s", ErrNilCallback, r.name))
	}
	r.checkNotDispatching()

	var h Handle
	if n := len(r.freeHandles); n > 0 {
		h = r.freeHandles[n-1]
		r.freeHandles = r.freeHandles[:n-1]
	} else {
		h = Handle(len(r.handleToIndex))
		r.handleToIndex = append(r.handleToIndex, -1)
	}

	r.handleToIndex[h] = len(r.callbacks)
	r.callbacks = append(r.callbacks, fn)
	r.indexToHandle = append(r.indexToHandle, h)
	return h
}

// RemoveCallback releases h. Removing a handle that is not live panics with
// a *HandleError.
func (r *CallbackRegistry[E]) RemoveCallback(h Handle) {
	if !r.Live(h) {
		panic(&HandleError{Type: r.name, Handle: h})
	}
	r.checkNotDispatching()

	idx := r.handleToIndex[h]
	last := len(r.callbacks) - 1
	if idx != last {
		moved := r.indexToHandle[last]
		r.callbacks[idx] = r.callbacks[last]
		r.indexToHandle[idx] = moved
		r.handleToIndex[moved] = idx
	}

	r.callbacks[last] = nil
	r.callbacks = r.callbacks[:last]
	r.indexToHandle = r.indexToHandle[:last]
	r.handleToIndex[h] = -1
	r.freeHandles = append(r.freeHandles, h)
}

// InvokeAll calls every live callback once with event and returns how many
// were called.
func (r *CallbackRegistry[E]) InvokeAll(event E) int {
	r.dispatching++
	defer func() { r.dispatching-- }()

	for _, fn := range r.callbacks {
		fn(event)
	}
	return len(r.callbacks)
}

// SaveDeferred queues event for the next flush.
func (r *CallbackRegistry[E]) SaveDeferred(event E) {
	r.deferred = append(r.deferred, event)
}

// FlushDeferred delivers the queued events in the order they were saved.
// Subscribers are read again for every event, so a change made between two
// deferred publishes affects only the events flushed after it. Events saved
// while flushing wait for the next flush.
//
// If a callback panics, the events not yet delivered stay queued and the
// panic propagates.
func (r *CallbackRegistry[E]) FlushDeferred() (events, deliveries int) {
	var t flushTally
	r.take().deliver(&t)
	return t.events, t.deliveries
}

// flushTally counts deferred deliveries as they happen, so the totals survive
// a panicking callback.
type flushTally struct {
	events     int
	deliveries int
}

// deferredBatch is a run of deferred events detached from its registry.
type deferredBatch[E any] struct {
	reg    *CallbackRegistry[E]
	events []E
	next   int
}

// take detaches the deferred queue. Events saved afterwards start a new queue.
func (r *CallbackRegistry[E]) take() deferredRun {
	b := &deferredBatch[E]{reg: r, events: r.deferred}
	r.deferred = nil
	return b
}

// deliver invokes the registry's callbacks for each event of the batch and
// adds to t. If a callback panics, the event being delivered is dropped and
// the rest goes back to the registry.
func (b *deferredBatch[E]) deliver(t *flushTally) {
	defer b.putBack()

	for b.next < len(b.events) {
		event := b.events[b.next]
		b.next++
		t.deliveries += b.reg.InvokeAll(event)
		t.events++
	}
}

// putBack requeues the undelivered events ahead of anything saved since the
// batch was taken.
func (b *deferredBatch[E]) putBack() {
	rest := b.events[b.next:]
	b.next = len(b.events)
	if len(rest) == 0 {
		return
	}
	r := b.reg
	r.deferred = append(append(make([]E, 0, len(rest)+len(r.deferred)), rest...), r.deferred...)
}

func (r *CallbackRegistry[E]) checkNotDispatching() {
	if r.dispatching > 0 {
		panic(fmt.Errorf("%w: event type %s", ErrReentrantMutation, r.name))
	}
}

func (r *CallbackRegistry[E]) eventType() string {
	return r.name
}

func (r *CallbackRegistry[E]) pending() bool {
	return len(r.deferred) > 0
}
