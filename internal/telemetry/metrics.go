package telemetry

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/goliatone/go-formcover/pkg/constraint"
	"github.com/goliatone/go-formcover/pkg/plan"
)

const namespace = "formcover"

// Metrics records solver and plan statistics on its own registry. It
// satisfies constraint.SolveObserver and orchestrator.PlanObserver.
type Metrics struct {
	registry *prometheus.Registry

	solves        *prometheus.CounterVec
	solveDuration *prometheus.HistogramVec
	candidates    *prometheus.GaugeVec
	cases         *prometheus.GaugeVec
	uncovered     *prometheus.GaugeVec
	unreachable   *prometheus.GaugeVec
	coverage      *prometheus.GaugeVec
	plans         prometheus.Counter
}

// NewMetrics registers the collectors on a fresh registry.
func NewMetrics() (*Metrics, error) {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		solves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "solver",
			Name:      "checks_total",
			Help:      "Satisfiability checks by purpose and status.",
		}, []string{"purpose", "status"}),
		solveDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solver",
			Name:      "check_duration_seconds",
			Help:      "Duration of satisfiability checks.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"purpose"}),
		candidates: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "plan",
			Name:      "candidates",
			Help:      "Valid candidates found in the last run, by phase.",
		}, []string{"form", "phase"}),
		cases: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "plan",
			Name:      "cases",
			Help:      "Selected test cases in the last run.",
		}, []string{"form"}),
		uncovered: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "plan",
			Name:      "uncovered_questions",
			Help:      "Reachable questions no selected case shows.",
		}, []string{"form"}),
		unreachable: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "plan",
			Name:      "unreachable_questions",
			Help:      "Questions whose visibility is constant false.",
		}, []string{"form"}),
		coverage: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "plan",
			Name:      "coverage_percent",
			Help:      "Share of reachable questions covered by the last plan.",
		}, []string{"form"}),
		plans: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "plan",
			Name:      "generated_total",
			Help:      "Plans generated by this process.",
		}),
	}

	var errs []error
	for _, c := range []prometheus.Collector{
		m.solves, m.solveDuration, m.candidates, m.cases,
		m.uncovered, m.unreachable, m.coverage, m.plans,
	} {
		if err := m.registry.Register(c); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("telemetry: register metrics: %w", err)
	}
	return m, nil
}

// ObserveSolve implements constraint.SolveObserver.
func (m *Metrics) ObserveSolve(purpose string, status constraint.Status, elapsed time.Duration) {
	m.solves.WithLabelValues(purpose, status.String()).Inc()
	m.solveDuration.WithLabelValues(purpose).Observe(elapsed.Seconds())
}

// ObservePlan implements orchestrator.PlanObserver.
func (m *Metrics) ObservePlan(p *plan.Plan) {
	if p == nil {
		return
	}
	form := p.FormName
	m.plans.Inc()
	m.candidates.WithLabelValues(form, "gatekeeper").Set(float64(p.Stats.Candidates - p.Stats.Synthesized))
	m.candidates.WithLabelValues(form, "synthesis").Set(float64(p.Stats.Synthesized))
	m.cases.WithLabelValues(form).Set(float64(p.Stats.Cases))
	m.uncovered.WithLabelValues(form).Set(float64(len(p.Uncovered)))
	m.unreachable.WithLabelValues(form).Set(float64(len(p.Unreachable)))
	m.coverage.WithLabelValues(form).Set(p.Stats.Coverage)
}

// Registry exposes the underlying registry, e.g. for an HTTP handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes the current metrics in the node-exporter textfile
// format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("telemetry: write %s: %w", path, err)
	}
	return nil
}
