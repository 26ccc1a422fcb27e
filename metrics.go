package eventrouter

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	modeImmediate = "immediate"
	modeDeferred  = "deferred"
)

// Metrics collects router activity. A nil *Metrics records nothing.
// One Metrics value may be shared by several routers.
type Metrics struct {
	published   *prometheus.CounterVec
	invoked     *prometheus.CounterVec
	subscribers *prometheus.GaugeVec
	polls       prometheus.Counter
	flushed     prometheus.Counter
}

// NewMetrics creates the collectors under namespace. They are not registered.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		published: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_published_total",
				Help:      "Total number of published events",
			},
			[]string{"type", "mode"},
		),
		invoked: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "callbacks_invoked_total",
				Help:      "Total number of subscriber callback invocations",
			},
			[]string{"type"},
		),
		subscribers: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "subscribers",
				Help:      "Number of live subscribers",
			},
			[]string{"type"},
		),
		polls: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "polls_total",
				Help:      "Total number of polls",
			},
		),
		flushed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "poll_flushed_events_total",
				Help:      "Total number of deferred events delivered by polls",
			},
		),
	}
}

// Register registers every collector with reg. When reg already holds an
// identical collector, for example from another Metrics with the same
// namespace, m switches to it so both record into the exported series.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	var err error
	if m.published, err = registerCollector(reg, m.published); err != nil {
		return err
	}
	if m.invoked, err = registerCollector(reg, m.invoked); err != nil {
		return err
	}
	if m.subscribers, err = registerCollector(reg, m.subscribers); err != nil {
		return err
	}
	if m.polls, err = registerCollector(reg, m.polls); err != nil {
		return err
	}
	if m.flushed, err = registerCollector(reg, m.flushed); err != nil {
		return err
	}
	return nil
}

func registerCollector[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}

	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			return existing, nil
		}
	}
	return c, err
}

func (m *Metrics) recordPublish(typ, mode string) {
	if m == nil {
		return
	}
	m.published.WithLabelValues(typ, mode).Inc()
}

func (m *Metrics) recordInvoked(typ string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.invoked.WithLabelValues(typ).Add(float64(n))
}

func (m *Metrics) setSubscribers(typ string, n int) {
	if m == nil {
		return
	}
	m.subscribers.WithLabelValues(typ).Set(float64(n))
}

func (m *Metrics) recordPoll(events int) {
	if m == nil {
		return
	}
	m.polls.Inc()
	m.flushed.Add(float64(events))
}
