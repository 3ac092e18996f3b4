package schema

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"bantz/pkg/types"
)

const defaultWindowSize = 200

// RepairMetrics keeps a bounded sliding window of repair reports and exposes
// repair-rate and repair-success-rate for operability. It also feeds the
// Prometheus collectors so dashboards see the same numbers.
type RepairMetrics struct {
	mu     sync.Mutex
	window []types.RepairReport
	size   int

	repairsTotal   *prometheus.CounterVec
	fieldsRepaired prometheus.Counter
}

// NewRepairMetrics constructs metrics with the given window size, registering
// collectors on reg. Pass a fresh registry in tests to avoid duplicate
// registration panics; a nil registerer falls back to the global one.
func NewRepairMetrics(size int, reg prometheus.Registerer) *RepairMetrics {
	if size <= 0 {
		size = defaultWindowSize
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	repairsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bantz",
			Subsystem: "schema",
			Name:      "decision_repairs_total",
			Help:      "Decision repair calls by outcome.",
		},
		[]string{"outcome"},
	)
	fieldsRepaired := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "bantz",
			Subsystem: "schema",
			Name:      "decision_fields_repaired_total",
			Help:      "Total number of individual decision fields repaired.",
		},
	)

	if err := reg.Register(repairsTotal); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			repairsTotal = already.ExistingCollector.(*prometheus.CounterVec)
		} else {
			panic(err)
		}
	}
	if err := reg.Register(fieldsRepaired); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			fieldsRepaired = already.ExistingCollector.(prometheus.Counter)
		} else {
			panic(err)
		}
	}

	return &RepairMetrics{
		size:           size,
		window:         make([]types.RepairReport, 0, size),
		repairsTotal:   repairsTotal,
		fieldsRepaired: fieldsRepaired,
	}
}

// Record appends a repair report to the window, evicting the oldest entry
// when full.
func (m *RepairMetrics) Record(report types.RepairReport) {
	if m == nil {
		return
	}
	m.mu.Lock()
	if len(m.window) == m.size {
		m.window = m.window[1:]
	}
	m.window = append(m.window, report)
	m.mu.Unlock()

	outcome := "clean"
	if report.Repaired() {
		outcome = "repaired"
		if !report.ValidAfter {
			outcome = "failed"
		}
	}
	m.repairsTotal.WithLabelValues(outcome).Inc()
	m.fieldsRepaired.Add(float64(len(report.FieldsRepaired)))
}

// RepairRate returns the fraction of windowed calls that needed any repair.
func (m *RepairMetrics) RepairRate() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.window) == 0 {
		return 0
	}
	repaired := 0
	for _, report := range m.window {
		if report.Repaired() {
			repaired++
		}
	}
	return float64(repaired) / float64(len(m.window))
}

// RepairSuccessRate returns the fraction of windowed repairs that produced a
// valid record. 1.0 when the window holds no repairs.
func (m *RepairMetrics) RepairSuccessRate() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	repaired, succeeded := 0, 0
	for _, report := range m.window {
		if !report.Repaired() {
			continue
		}
		repaired++
		if report.ValidAfter {
			succeeded++
		}
	}
	if repaired == 0 {
		return 1.0
	}
	return float64(succeeded) / float64(repaired)
}

// WindowLen returns the current number of windowed reports.
func (m *RepairMetrics) WindowLen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.window)
}
