package metrics

import (
	"github.com/limaJavier/coursesched/pkg/model"
	"github.com/prometheus/client_golang/prometheus"
)

// PromSink records scheduler runs in Prometheus metrics
type PromSink struct {
	solves      *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	variables   *prometheus.GaugeVec
	constraints *prometheus.GaugeVec
	score       *prometheus.GaugeVec
}

// NewPromSink registers the metrics on the default Prometheus registerer
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers the metrics on the provided registerer. A nil registerer defaults to the global
// one; metrics already registered there are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	solves := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "coursesched_solves_total",
		Help: "Total number of schedule builds by outcome",
	}, []string{"backend", "strategy", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "coursesched_solve_duration_seconds",
		Help:    "Time spent formulating, solving and extracting a schedule",
		Buckets: prometheus.DefBuckets,
	}, []string{"backend", "strategy"})
	variables := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "coursesched_model_variables",
		Help: "Number of decision variables of the last model",
	}, []string{"strategy"})
	constraints := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "coursesched_model_constraints",
		Help: "Number of constraints of the last model",
	}, []string{"strategy"})
	score := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "coursesched_schedule_score",
		Help: "Total score of the last optimal schedule",
	}, []string{"backend", "strategy"})

	var err error
	if solves, err = register(reg, solves); err != nil {
		return nil, err
	}
	if duration, err = register(reg, duration); err != nil {
		return nil, err
	}
	if variables, err = register(reg, variables); err != nil {
		return nil, err
	}
	if constraints, err = register(reg, constraints); err != nil {
		return nil, err
	}
	if score, err = register(reg, score); err != nil {
		return nil, err
	}

	return &PromSink{
		solves:      solves,
		duration:    duration,
		variables:   variables,
		constraints: constraints,
		score:       score,
	}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, collector C) (C, error) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return collector, err
	}
	return collector, nil
}

// RecordSolve counts the run and observes its duration. Model size is only known once formulation succeeded and
// the score only for optimal runs.
func (s *PromSink) RecordSolve(record model.SolveRecord) {
	s.solves.WithLabelValues(record.Backend, record.Strategy, record.Outcome).Inc()
	s.duration.WithLabelValues(record.Backend, record.Strategy).Observe(record.Duration.Seconds())
	if record.Outcome == model.OutcomeInvalid {
		return
	}
	s.variables.WithLabelValues(record.Strategy).Set(float64(record.Variables))
	s.constraints.WithLabelValues(record.Strategy).Set(float64(record.Constraints))
	if record.Outcome == model.OutcomeOptimal {
		s.score.WithLabelValues(record.Backend, record.Strategy).Set(record.Score)
	}
}

var _ model.MetricsSink = (*PromSink)(nil)
