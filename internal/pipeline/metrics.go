package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors reporting turn activity.
type Metrics struct {
	turnsTotal      *prometheus.CounterVec
	turnDuration    prometheus.Histogram
	reactIterations prometheus.Histogram
	guardViolations prometheus.Counter
}

// MustNewMetrics constructs the turn metrics on reg. Registration conflicts
// from repeated construction (tests, multi-tenant runners) reuse the existing
// collectors; any other registration error panics, mirroring promauto.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	turnsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bantz",
			Subsystem: "pipeline",
			Name:      "turns_total",
			Help:      "Turns processed by outbound kind.",
		},
		[]string{"kind"},
	)
	turnDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "bantz",
			Subsystem: "pipeline",
			Name:      "turn_duration_seconds",
			Help:      "Wall-clock duration of one turn.",
			Buckets:   prometheus.DefBuckets,
		},
	)
	reactIterations := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "bantz",
			Subsystem: "pipeline",
			Name:      "react_iterations",
			Help:      "React iterations per turn.",
			Buckets:   []float64{0, 1, 2, 3, 4, 6, 8},
		},
	)
	guardViolations := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "bantz",
			Subsystem: "pipeline",
			Name:      "guard_violations_total",
			Help:      "Finalizer guard violations detected.",
		},
	)

	for _, collector := range []prometheus.Collector{turnsTotal, turnDuration, reactIterations, guardViolations} {
		if err := reg.Register(collector); err != nil {
			if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
				switch collector {
				case turnsTotal:
					turnsTotal = already.ExistingCollector.(*prometheus.CounterVec)
				case turnDuration:
					turnDuration = already.ExistingCollector.(prometheus.Histogram)
				case reactIterations:
					reactIterations = already.ExistingCollector.(prometheus.Histogram)
				case guardViolations:
					guardViolations = already.ExistingCollector.(prometheus.Counter)
				}
				continue
			}
			panic(err)
		}
	}

	return &Metrics{
		turnsTotal:      turnsTotal,
		turnDuration:    turnDuration,
		reactIterations: reactIterations,
		guardViolations: guardViolations,
	}
}

// ObserveTurn records one completed turn.
func (m *Metrics) ObserveTurn(kind string, iterations int, elapsed time.Duration, guardViolated bool) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(kind).Inc()
	m.turnDuration.Observe(elapsed.Seconds())
	m.reactIterations.Observe(float64(iterations))
	if guardViolated {
		m.guardViolations.Inc()
	}
}
