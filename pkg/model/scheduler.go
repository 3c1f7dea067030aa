package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/limaJavier/coursesched/pkg/lp"
	"github.com/rs/zerolog"
)

type Scheduler interface {
	// Formulate builds the model of a problem without solving it
	Formulate(problem Problem) (*Model, error)

	Build(problem Problem) (Solution, error)

	Verify(solution Solution, problem Problem) bool
}

// SolveRecord summarizes one Build for a metrics sink
type SolveRecord struct {
	Backend     string
	Strategy    string
	Outcome     string
	Duration    time.Duration
	Variables   int
	Constraints int
	Score       float64
}

type MetricsSink interface {
	RecordSolve(record SolveRecord)
}

const (
	OutcomeOptimal    = "optimal"
	OutcomeInfeasible = "infeasible"
	OutcomeError      = "error"
	OutcomeInvalid    = "invalid"
)

type scheduler struct {
	solver   lp.Solver
	strategy Strategy
	logger   zerolog.Logger
	metrics  MetricsSink
}

type Option func(*scheduler)

// WithStrategy fixes the formulation; by default it is chosen per problem with DefaultStrategy
func WithStrategy(strategy Strategy) Option {
	return func(s *scheduler) {
		s.strategy = strategy
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *scheduler) {
		s.logger = logger
	}
}

func WithMetrics(sink MetricsSink) Option {
	return func(s *scheduler) {
		s.metrics = sink
	}
}

func NewScheduler(solver lp.Solver, options ...Option) Scheduler {
	s := &scheduler{
		solver: solver,
		logger: zerolog.Nop(),
	}
	for _, option := range options {
		option(s)
	}
	return s
}

func (s *scheduler) strategyFor(problem Problem) Strategy {
	if s.strategy != nil {
		return s.strategy
	}
	return DefaultStrategy(problem)
}

func (s *scheduler) Formulate(problem Problem) (*Model, error) {
	return s.formulate(problem, s.logger)
}

func (s *scheduler) formulate(problem Problem, logger zerolog.Logger) (*Model, error) {
	courses, slots := uint64(len(problem.Courses)), uint64(len(problem.Slots))

	scores := NewScoreMatrix(courses, slots, problem.BaseScore, problem.ElevatedScore, problem.Preferences)
	for _, preference := range scores.Ignored() {
		logger.Warn().Uint64("course", preference.Course).Uint64("slot", preference.Slot).Msg("ignoring out-of-range preference")
	}

	policy, err := NewConflictPolicy(courses, slots, problem.Conflicts, problem.AllowedSlots)
	if err != nil {
		return nil, err
	}
	for _, conflict := range policy.Ignored() {
		logger.Warn().Uint64("course", conflict.First).Msg("ignoring conflict group of a course with itself")
	}

	return BuildModel(scores, policy, problem.Hints(), s.strategyFor(problem))
}

func (s *scheduler) Build(problem Problem) (Solution, error) {
	runID := uuid.NewString()
	logger := s.logger.With().Str("run", runID).Logger()
	record := SolveRecord{
		Backend:  lp.SolverName(s.solver),
		Strategy: s.strategyFor(problem).Name(),
	}
	started := time.Now()
	defer func() {
		record.Duration = time.Since(started)
		if s.metrics != nil {
			s.metrics.RecordSolve(record)
		}
	}()

	//** Build model
	model, err := s.formulate(problem, logger)
	if err != nil {
		record.Outcome = OutcomeInvalid
		logger.Error().Err(err).Msg("cannot build model")
		return Solution{}, err
	}
	record.Variables, record.Constraints = len(model.Program.Variables), len(model.Program.Constraints)
	logger.Debug().
		Str("strategy", record.Strategy).
		Int("variables", record.Variables).
		Int("constraints", record.Constraints).
		Msg("model built")

	//** Solve model
	result, err := s.solver.Solve(model.Program)
	if err != nil {
		record.Outcome = OutcomeError
		logger.Error().Err(err).Str("backend", record.Backend).Msg("solver failed")
		return Solution{}, fmt.Errorf("%w: %w", ErrSolver, err)
	}

	//** Extract solution
	solution, err := Extract(model, result)
	var infeasible *InfeasibleError
	if errors.As(err, &infeasible) {
		record.Outcome = OutcomeInfeasible
		if unmatched, diagnoseErr := Diagnose(model); diagnoseErr == nil {
			infeasible.Unmatched = unmatched
		}
		logger.Warn().Uints64("unmatched", infeasible.Unmatched).Msg("model is infeasible")
		return Solution{}, infeasible
	} else if err != nil {
		record.Outcome = OutcomeError
		logger.Error().Err(err).Msg("cannot extract solution")
		return Solution{}, err
	}

	solution.RunID = runID
	record.Outcome, record.Score = OutcomeOptimal, solution.Score
	logger.Info().
		Float64("score", solution.Score).
		Dur("elapsed", time.Since(started)).
		Msg("schedule built")

	return solution, nil
}

func (s *scheduler) Verify(solution Solution, problem Problem) bool {
	return verify(solution, problem, s.strategyFor(problem))
}
