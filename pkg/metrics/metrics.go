package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kkdraganov/LAPATOS/pkg/mip"
)

const namespace = "lapatos"

// SolverMetrics records solver outcomes. It implements selector.SolveObserver.
type SolverMetrics struct {
	gatherer  prometheus.Gatherer
	solves    *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	nodes     *prometheus.GaugeVec
	objective *prometheus.GaugeVec
}

// NewSolverMetrics registers the solver collectors on reg. A nil reg gets a
// fresh registry. Collectors already registered on reg are reused.
func NewSolverMetrics(reg *prometheus.Registry) (*SolverMetrics, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	solves := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "solves_total",
		Help:      "Solver invocations by backend and final status",
	}, []string{"backend", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "solve_duration_seconds",
		Help:      "Wall time spent in the solver",
		Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
	}, []string{"backend"})
	nodes := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "solve_nodes",
		Help:      "Search nodes explored by the last solve",
	}, []string{"backend"})
	objective := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "objective_value",
		Help:      "Objective of the last optimal selection",
	}, []string{"backend"})

	var err error
	if solves, err = register(reg, solves); err != nil {
		return nil, err
	}
	if duration, err = register(reg, duration); err != nil {
		return nil, err
	}
	if nodes, err = register(reg, nodes); err != nil {
		return nil, err
	}
	if objective, err = register(reg, objective); err != nil {
		return nil, err
	}

	return &SolverMetrics{
		gatherer:  reg,
		solves:    solves,
		duration:  duration,
		nodes:     nodes,
		objective: objective,
	}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		are, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return c, fmt.Errorf("failed to register collector: %w", err)
		}
		existing, ok := are.ExistingCollector.(C)
		if !ok {
			return c, fmt.Errorf("existing collector has wrong type %T", are.ExistingCollector)
		}
		return existing, nil
	}
	return c, nil
}

// ObserveSolve records one solver result
func (m *SolverMetrics) ObserveSolve(backend string, solution *mip.Solution) {
	if solution == nil {
		return
	}
	m.solves.WithLabelValues(backend, solution.Status.String()).Inc()
	m.duration.WithLabelValues(backend).Observe(solution.Elapsed.Seconds())
	m.nodes.WithLabelValues(backend).Set(float64(solution.Nodes))
	if solution.Status == mip.Optimal {
		m.objective.WithLabelValues(backend).Set(solution.Objective)
	}
}

// WriteTextfile writes every gathered metric to path in the text exposition
// format, for pickup by node_exporter's textfile collector
func (m *SolverMetrics) WriteTextfile(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create metrics directory: %w", err)
		}
	}
	if err := prometheus.WriteToTextfile(path, m.gatherer); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
