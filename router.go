package eventrouter

import (
	"reflect"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Router publishes events to the subscribers held in a Store. Immediate
// publishes call subscribers before returning; deferred publishes are queued
// and delivered by the next Poll.
//
// Routers are not safe for concurrent use. Callbacks must not publish,
// subscribe or unsubscribe on the event type they are being called for;
// subscription changes in that case panic with ErrReentrantMutation.
// Deferred publishes from a callback are allowed and wait for the next Poll.
type Router struct {
	id        string
	store     *Store
	bus       *pendingBus
	log       *logrus.Entry
	logWriter *RotatingFileWriter
	metrics   *Metrics
}

// NewRouter creates a router over store. A nil store gives the router a
// private one. Logging is off unless WithLogger or WithLogConfig is passed;
// a log file that cannot be opened also leaves it off.
func NewRouter(store *Store, opts ...Option) *Router {
	if store == nil {
		store = NewStore()
	}

	var cfg routerConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	r := &Router{
		id:      uuid.NewString(),
		store:   store,
		bus:     newPendingBus(),
		metrics: cfg.metrics,
	}

	logger := cfg.logger
	if logger == nil && cfg.logConfig != nil {
		if l, w, err := newFileLogger(cfg.logConfig); err == nil {
			logger = l
			r.logWriter = w
		}
	}
	if logger == nil {
		logger = discardLogger()
	}
	r.log = logger.WithField("router", r.id)

	return r
}

// ID returns the router's unique identifier.
func (r *Router) ID() string {
	return r.id
}

// Store returns the store the router dispatches through.
func (r *Router) Store() *Store {
	return r.store
}

// Pending returns the number of event types waiting for Poll.
func (r *Router) Pending() int {
	return r.bus.size()
}

// Close releases the log file opened for WithLogConfig. The router remains
// usable with logging off.
func (r *Router) Close() error {
	if r.logWriter == nil {
		return nil
	}
	err := r.logWriter.Close()
	r.logWriter = nil
	r.log = discardLogger().WithField("router", r.id)
	return err
}

// Subscribe registers fn for events of type E and returns its handle.
func Subscribe[E any](r *Router, fn func(E)) Handle {
	reg := RegistryFor[E](r.store)
	defer r.fault(reg.name)

	h := reg.AddCallback(fn)
	r.metrics.setSubscribers(reg.name, reg.Len())
	r.log.WithFields(logrus.Fields{"type": reg.name, "handle": h}).Debug("subscribed")
	return h
}

// SubscribeMethod registers method bound to instance. The router keeps only
// the pointer; the caller must keep instance valid until the handle is
// unsubscribed.
func SubscribeMethod[E, T any](r *Router, instance *T, method func(*T, E)) Handle {
	if instance == nil {
		r.log.WithField("type", reflect.TypeFor[E]().String()).Error(ErrNilInstance)
		panic(ErrNilInstance)
	}
	if method == nil {
		return Subscribe[E](r, nil)
	}
	return Subscribe(r, func(e E) {
		method(instance, e)
	})
}

// Unsubscribe releases h. It panics with a *HandleError if h is not a live
// handle for E.
func Unsubscribe[E any](r *Router, h Handle) {
	reg := RegistryFor[E](r.store)
	defer r.fault(reg.name)

	reg.RemoveCallback(h)
	r.metrics.setSubscribers(reg.name, reg.Len())
	r.log.WithFields(logrus.Fields{"type": reg.name, "handle": h}).Debug("unsubscribed")
}

// PublishImmediate calls every current subscriber of E with event before
// returning.
func PublishImmediate[E any](r *Router, event E) {
	reg := RegistryFor[E](r.store)
	r.metrics.recordPublish(reg.name, modeImmediate)

	n := reg.InvokeAll(event)
	r.metrics.recordInvoked(reg.name, n)
	r.log.WithFields(logrus.Fields{"type": reg.name, "callbacks": n}).Debug("published")
}

// PublishDeferred queues event for the next Poll. Events of one type stack
// up and are delivered in publish order.
func PublishDeferred[E any](r *Router, event E) {
	reg := RegistryFor[E](r.store)
	r.metrics.recordPublish(reg.name, modeDeferred)

	reg.SaveDeferred(event)
	if r.bus.add(reg) {
		r.log.WithField("type", reg.name).Debug("event type pending")
	}
}

// Subscribers returns the number of live subscribers of E.
func Subscribers[E any](r *Router) int {
	reg, ok := Lookup[E](r.store)
	if !ok {
		return 0
	}
	return reg.Len()
}

// Deferred returns the number of queued events of E.
func Deferred[E any](r *Router) int {
	reg, ok := Lookup[E](r.store)
	if !ok {
		return 0
	}
	return reg.Deferred()
}

// Poll delivers the deferred events of every pending type, in the order the
// types became pending, to the subscribers present now. Every pending queue
// is detached before the first callback runs, so events deferred while
// polling, of any type, are left for the next Poll.
//
// If a callback panics, the undelivered events stay queued, their types stay
// pending and the panic propagates.
func (r *Router) Poll() {
	pending := r.bus.drain()
	if len(pending) == 0 {
		return
	}

	runs := make([]deferredRun, len(pending))
	for i, f := range pending {
		runs[i] = f.take()
	}

	var (
		tally     flushTally
		delivered int
		before    int
	)
	defer func() {
		if delivered < len(runs) {
			r.metrics.recordInvoked(pending[delivered].eventType(), tally.deliveries-before)
			r.metrics.recordPoll(tally.events)

			for _, run := range runs[delivered+1:] {
				run.putBack()
			}
			var rest []flusher
			for _, f := range pending[delivered:] {
				if f.pending() {
					rest = append(rest, f)
				}
			}
			r.bus.requeue(rest)
			r.log.WithFields(logrus.Fields{
				"type":   pending[delivered].eventType(),
				"events": tally.events,
			}).Error("poll aborted by callback panic")
			return
		}

		r.metrics.recordPoll(tally.events)
		r.log.WithFields(logrus.Fields{
			"types":      len(pending),
			"events":     tally.events,
			"deliveries": tally.deliveries,
		}).Info("poll complete")
	}()

	for i, run := range runs {
		before = tally.deliveries
		run.deliver(&tally)
		r.metrics.recordInvoked(pending[i].eventType(), tally.deliveries-before)
		delivered++
	}
}

// fault logs a programming-error panic raised by a registry and re-raises it.
func (r *Router) fault(typ string) {
	if v := recover(); v != nil {
		if err, ok := v.(error); ok {
			r.log.WithField("type", typ).Error(err)
		}
		panic(v)
	}
}
