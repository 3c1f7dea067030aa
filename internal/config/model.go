package config

import (
	"fmt"

	"github.com/limaJavier/coursesched/pkg/model"
)

const (
	StrategyAuto       = "auto"
	StrategyBinary     = "binary"
	StrategyContinuous = "continuous"
)

// ScoresConfig overrides the scores of every problem when set
type ScoresConfig struct {
	Base     *float64 `json:"base"`
	Elevated *float64 `json:"elevated"`
}

func (c ScoresConfig) Validate() error {
	if c.Base != nil && *c.Base < 0 {
		return fmt.Errorf("base must be non-negative, got %v", *c.Base)
	}
	if c.Elevated != nil && *c.Elevated < 0 {
		return fmt.Errorf("elevated must be non-negative, got %v", *c.Elevated)
	}
	return nil
}

func (c ScoresConfig) Apply(problem *model.Problem) {
	if c.Base != nil {
		problem.BaseScore = *c.Base
	}
	if c.Elevated != nil {
		problem.ElevatedScore = *c.Elevated
	}
}

type StrategyConfig struct {
	// Kind is "auto", "binary" or "continuous". Auto drops slot exclusivity for day×period problems only,
	// binary always keeps it.
	Kind string `json:"kind"`
	// ForceSlotExclusive keeps slot exclusivity on day×period problems.
	ForceSlotExclusive bool `json:"force_slot_exclusive"`
	// Capacity bounds two conflicting courses in a slot under the continuous strategy.
	Capacity float64 `json:"capacity"`
}

func (c *StrategyConfig) SetDefaults() {
	if c.Kind == "" {
		c.Kind = StrategyAuto
	}
	if c.Capacity == 0 {
		c.Capacity = model.DefaultContinuousCapacity
	}
}

func (c StrategyConfig) Validate() error {
	switch c.Kind {
	case StrategyAuto, StrategyBinary, StrategyContinuous:
	default:
		return fmt.Errorf("unknown kind %s", c.Kind)
	}
	if c.Capacity < 0 {
		return fmt.Errorf("capacity must be non-negative, got %v", c.Capacity)
	}
	return nil
}

// Resolve picks the formulation for a problem
func (c StrategyConfig) Resolve(problem model.Problem) model.Strategy {
	switch c.Kind {
	case StrategyContinuous:
		return model.NewContinuousStrategy(c.Capacity)
	case StrategyBinary:
		return model.NewBinaryStrategy(true)
	}
	if c.ForceSlotExclusive {
		return model.NewBinaryStrategy(true)
	}
	return model.DefaultStrategy(problem)
}
