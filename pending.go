package eventrouter

// flusher is the type-erased view of a registry held by the pending bus.
type flusher interface {
	take() deferredRun
	eventType() string
	pending() bool
}

// deferredRun is a detached deferred queue awaiting delivery.
type deferredRun interface {
	deliver(t *flushTally)
	putBack()
}

// pendingBus lists registries with undelivered deferred events, in the order
// they became pending. Each registry appears at most once.
type pendingBus struct {
	order []flusher
	index map[flusher]struct{}
}

func newPendingBus() *pendingBus {
	return &pendingBus{
		index: make(map[flusher]struct{}),
	}
}

// add appends f unless it is already listed.
func (b *pendingBus) add(f flusher) bool {
	if _, ok := b.index[f]; ok {
		return false
	}
	b.index[f] = struct{}{}
	b.order = append(b.order, f)
	return true
}

// drain empties the bus and returns what it held.
func (b *pendingBus) drain() []flusher {
	out := b.order
	b.order = nil
	clear(b.index)
	return out
}

// requeue puts fs back in front of anything added since the last drain.
func (b *pendingBus) requeue(fs []flusher) {
	head := make([]flusher, 0, len(fs)+len(b.order))
	for _, f := range fs {
		if _, ok := b.index[f]; ok {
			continue
		}
		b.index[f] = struct{}{}
		head = append(head, f)
	}
	b.order = append(head, b.order...)
}

func (b *pendingBus) size() int {
	return len(b.order)
}
