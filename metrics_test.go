package eventrouter

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecordRouterActivity(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("test")
	require.NoError(t, m.Register(reg))

	r := NewRouter(nil, WithMetrics(m))
	h := Subscribe(r, func(eventA) {})
	Subscribe(r, func(eventA) {})

	PublishImmediate(r, eventA{1})
	PublishDeferred(r, eventA{2})
	PublishDeferred(r, eventA{3})
	r.Poll()
	r.Poll()
	Unsubscribe[eventA](r, h)

	typ := "eventrouter.eventA"
	assert.Equal(t, 1.0, testutil.ToFloat64(m.published.WithLabelValues(typ, modeImmediate)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.published.WithLabelValues(typ, modeDeferred)))
	assert.Equal(t, 6.0, testutil.ToFloat64(m.invoked.WithLabelValues(typ)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.subscribers.WithLabelValues(typ)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.polls), "polls on an empty bus are not counted")
	assert.Equal(t, 2.0, testutil.ToFloat64(m.flushed))
}

func TestMetricsRegisterTwice(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("test")

	require.NoError(t, m.Register(reg))
	assert.NoError(t, m.Register(reg))
}

func TestMetricsSharedNamespaceExportsBothRouters(t *testing.T) {
	reg := prometheus.NewRegistry()
	first := NewMetrics("ns")
	second := NewMetrics("ns")
	require.NoError(t, first.Register(reg))
	require.NoError(t, second.Register(reg))
	assert.Same(t, first.published, second.published)

	PublishImmediate(NewRouter(nil, WithMetrics(first)), eventA{1})
	PublishImmediate(NewRouter(nil, WithMetrics(second)), eventA{2})

	count, err := testutil.GatherAndCount(reg, "ns_events_published_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, 2.0, testutil.ToFloat64(second.published.WithLabelValues("eventrouter.eventA", modeImmediate)))
}

func TestMetricsRegisterConflictingCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ns",
		Name:      "polls_total",
		Help:      "something else",
	}))

	assert.Error(t, NewMetrics("ns").Register(reg))
}

func TestMetricsCountPartialPoll(t *testing.T) {
	m := NewMetrics("test")
	require.NoError(t, m.Register(prometheus.NewRegistry()))

	r := NewRouter(nil, WithMetrics(m))
	Subscribe(r, func(e eventA) {
		if e.V == 2 {
			panic("boom")
		}
	})
	PublishDeferred(r, eventA{1})
	PublishDeferred(r, eventA{2})
	PublishDeferred(r, eventA{3})

	assert.Panics(t, r.Poll)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.polls))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.flushed))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.invoked.WithLabelValues("eventrouter.eventA")))

	r.Poll()
	assert.Equal(t, 2.0, testutil.ToFloat64(m.flushed))
}

func TestNilMetricsAreIgnored(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.recordPublish("x", modeImmediate)
		m.recordInvoked("x", 1)
		m.setSubscribers("x", 1)
		m.recordPoll(1)
	})
}
