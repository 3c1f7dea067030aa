package config

import (
	"fmt"
	"time"

	"github.com/limaJavier/coursesched/pkg/lp"
)

const (
	BackendGini    = "gini"
	BackendSimplex = "simplex"
	BackendCbc     = "cbc"
)

// SolverConfig selects the backend that solves the generated programs
type SolverConfig struct {
	// Backend is one of "gini", "simplex" or "cbc".
	Backend string `json:"backend"`
	// CbcPath is the cbc executable, looked up in PATH when relative.
	CbcPath string `json:"cbc_path"`
	// TimeLimit stops the search; zero means no limit.
	TimeLimit time.Duration `json:"time_limit"`
	// NodeLimit caps branch-and-bound nodes; zero means no limit.
	NodeLimit int `json:"node_limit"`
}

func (c *SolverConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = BackendGini
	}
	if c.CbcPath == "" {
		c.CbcPath = "cbc"
	}
}

func (c SolverConfig) Validate() error {
	switch c.Backend {
	case BackendGini, BackendSimplex, BackendCbc:
	default:
		return fmt.Errorf("unknown backend %s", c.Backend)
	}
	if c.TimeLimit < 0 {
		return fmt.Errorf("time_limit must be non-negative, got %v", c.TimeLimit)
	}
	if c.NodeLimit < 0 {
		return fmt.Errorf("node_limit must be non-negative, got %d", c.NodeLimit)
	}
	return nil
}

// NewSolver builds the configured backend
func (c SolverConfig) NewSolver() (lp.Solver, error) {
	options := []lp.Option{lp.WithTimeLimit(c.TimeLimit), lp.WithNodeLimit(c.NodeLimit)}
	switch c.Backend {
	case BackendGini:
		return lp.NewGiniSolver(options...), nil
	case BackendSimplex:
		return lp.NewSimplexSolver(options...), nil
	case BackendCbc:
		return lp.NewCbcSolver(c.CbcPath, options...), nil
	}
	return nil, fmt.Errorf("unknown backend %s", c.Backend)
}
