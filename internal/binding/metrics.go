package binding

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics instruments the pipelines. A nil *Metrics records nothing.
type Metrics struct {
	calls          *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	subscriptions  prometheus.Gauge
	decodeFailures *prometheus.CounterVec
}

// NewMetrics registers the pipeline metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		calls: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "w3bind",
				Name:      "calls_total",
				Help:      "Pipeline invocations by pipeline and outcome.",
			},
			[]string{"pipeline", "outcome"},
		),
		duration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "w3bind",
				Name:      "call_duration_seconds",
				Help:      "Pipeline invocation latency in seconds.",
				Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"pipeline"},
		),
		subscriptions: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "w3bind",
				Name:      "active_subscriptions",
				Help:      "Event subscriptions currently streaming.",
			},
		),
		decodeFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "w3bind",
				Name:      "decode_failures_total",
				Help:      "Logs that matched a subscription but failed to decode.",
			},
			[]string{"event"},
		),
	}
}

func (m *Metrics) observe(pipeline string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.calls.WithLabelValues(pipeline, stageOf(err)).Inc()
	m.duration.WithLabelValues(pipeline).Observe(time.Since(start).Seconds())
}

func (m *Metrics) subscriptionStarted() {
	if m != nil {
		m.subscriptions.Inc()
	}
}

func (m *Metrics) subscriptionStopped() {
	if m != nil {
		m.subscriptions.Dec()
	}
}

func (m *Metrics) decodeFailed(event string) {
	if m != nil {
		m.decodeFailures.WithLabelValues(event).Inc()
	}
}
