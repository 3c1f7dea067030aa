package lp

import (
	"errors"
	"time"
)

type Status int

const (
	Optimal Status = iota
	Infeasible
	Error
)

func (status Status) String() string {
	switch status {
	case Optimal:
		return "optimal"
	case Infeasible:
		return "infeasible"
	case Error:
		return "error"
	}
	return "unknown"
}

type Solution struct {
	Status    Status
	Values    []float64 // One value per program variable, nil unless Status is Optimal
	Objective float64
}

// Solver hands a program to an optimization engine. An infeasible program yields Status Infeasible with a nil error,
// while any failure of the engine itself yields Status Error together with the cause.
type Solver interface {
	Solve(program Program) (Solution, error)
}

var (
	ErrUnsupported  = errors.New("program is not supported by solver")
	ErrLimitReached = errors.New("solver limit reached before optimality was proven")
	ErrUnbounded    = errors.New("program is unbounded")
)

const (
	integralityTolerance = 1e-6
	feasibilityTolerance = 1e-6
)

type options struct {
	timeLimit time.Duration
	nodeLimit int
}

type Option func(*options)

// WithTimeLimit bounds the wall time spent by a solver; zero means no limit
func WithTimeLimit(limit time.Duration) Option {
	return func(o *options) {
		o.timeLimit = limit
	}
}

// WithNodeLimit bounds the number of branch-and-bound nodes explored; zero means no limit
func WithNodeLimit(limit int) Option {
	return func(o *options) {
		o.nodeLimit = limit
	}
}

func newOptions(opts []Option) options {
	result := options{}
	for _, opt := range opts {
		opt(&result)
	}
	return result
}

func failed(err error) (Solution, error) {
	return Solution{Status: Error}, err
}

func infeasible() (Solution, error) {
	return Solution{Status: Infeasible}, nil
}

// SolverName returns the backend name of a solver, or "custom" when it does not report one
func SolverName(solver Solver) string {
	if named, ok := solver.(interface{ Name() string }); ok {
		return named.Name()
	}
	return "custom"
}
