package bench

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"
)

// Metrics records benchmark runs in a private prometheus registry.
type Metrics struct {
	registry *prometheus.Registry

	// runs counts solver runs by solver name and exit cause
	runs *prometheus.CounterVec

	runtime *prometheus.HistogramVec

	// gap is the last distance to the best known makespan, in percent
	gap *prometheus.GaugeVec

	makespan *prometheus.GaugeVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	return &Metrics{
		registry: registry,
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "jobshop_solver_runs_total",
			Help: "Solver runs by solver and exit cause",
		}, []string{"solver", "cause"}),
		runtime: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "jobshop_solver_runtime_seconds",
			Help:    "Wall time of a solver run",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 2, 5, 10, 30},
		}, []string{"solver"}),
		gap: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "jobshop_solver_gap_percent",
			Help: "Distance of the makespan to the best known makespan",
		}, []string{"solver", "instance"}),
		makespan: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "jobshop_solver_makespan",
			Help: "Makespan of the schedule a solver returned",
		}, []string{"solver", "instance"}),
	}
}

// Observe records one run.
func (m *Metrics) Observe(rec Record) {
	m.runs.WithLabelValues(rec.Solver, rec.Result.Cause.String()).Inc()
	m.runtime.WithLabelValues(rec.Solver).Observe(rec.Runtime.Seconds())
	if span, ok := rec.Result.Makespan(); ok {
		m.makespan.WithLabelValues(rec.Solver, rec.Instance.Name).Set(float64(span))
	}
	if gap, ok := rec.Gap(); ok {
		m.gap.WithLabelValues(rec.Solver, rec.Instance.Name).Set(gap)
	}
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// WriteText dumps every metric in the prometheus text exposition format.
func (m *Metrics) WriteText(w io.Writer) error {
	families, err := m.registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("write metric %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
