package model

import "github.com/limaJavier/coursesched/pkg/lp"

const (
	// ContinuousUpper bounds every relaxed assignment variable
	ContinuousUpper = 10.0
	// DefaultContinuousCapacity bounds the combined value of two conflicting courses in a slot
	DefaultContinuousCapacity = 10.0
)

// Strategy is one of two mutually exclusive formulations: binary assignment or the continuous movement-penalty
// relaxation. They are never combined in one model.
type Strategy interface {
	Name() string
	Kind() lp.VariableKind
	// Reports whether no two courses may share a slot
	SlotExclusive() bool

	upper() float64
	capacity() float64
	families() []constraintFamily
	start(state constraintState) []float64
}

type binaryStrategy struct {
	slotExclusive bool
}

// NewBinaryStrategy declares 0/1 assignment variables. Without slot exclusivity only conflict pairs are kept apart,
// which is the formulation used for day×period slots.
func NewBinaryStrategy(slotExclusive bool) Strategy {
	return binaryStrategy{slotExclusive: slotExclusive}
}

func (strategy binaryStrategy) Name() string {
	if strategy.slotExclusive {
		return "binary"
	}
	return "binary-shared"
}

func (strategy binaryStrategy) Kind() lp.VariableKind {
	return lp.Binary
}

func (strategy binaryStrategy) SlotExclusive() bool {
	return strategy.slotExclusive
}

func (strategy binaryStrategy) upper() float64 {
	return 1
}

func (strategy binaryStrategy) capacity() float64 {
	return 1
}

func (strategy binaryStrategy) families() []constraintFamily {
	families := []constraintFamily{assignmentConstraints}
	if strategy.slotExclusive {
		families = append(families, slotExclusivityConstraints)
	}
	return append(families, conflictConstraints, allowedSlotConstraints)
}

func (strategy binaryStrategy) start(state constraintState) []float64 {
	return hintedStart(state, 1, 0)
}

type continuousStrategy struct {
	conflictCapacity float64
}

// NewContinuousStrategy declares variables in [0, 10] with no assignment rows. Conflicting courses are kept apart
// by the capacity bound and pulled towards their hinted slot by the movement penalty.
func NewContinuousStrategy(capacity float64) Strategy {
	if capacity <= 0 {
		capacity = DefaultContinuousCapacity
	}
	return continuousStrategy{conflictCapacity: capacity}
}

func (strategy continuousStrategy) Name() string {
	return "continuous"
}

func (strategy continuousStrategy) Kind() lp.VariableKind {
	return lp.Continuous
}

func (strategy continuousStrategy) SlotExclusive() bool {
	return false
}

func (strategy continuousStrategy) upper() float64 {
	return ContinuousUpper
}

func (strategy continuousStrategy) capacity() float64 {
	return strategy.conflictCapacity
}

func (strategy continuousStrategy) families() []constraintFamily {
	return []constraintFamily{conflictConstraints, allowedSlotConstraints, movementPenaltyConstraints}
}

func (strategy continuousStrategy) start(state constraintState) []float64 {
	return hintedStart(state, ContinuousUpper, 0.5)
}

func hintedStart(state constraintState, hinted, other float64) []float64 {
	start := make([]float64, state.courses*state.slots)
	for i := range start {
		start[i] = other
	}
	for course, slot := range state.hints {
		if course < state.courses && slot < state.slots {
			start[state.indexer.Index(course, slot)] = hinted
		}
	}
	return start
}

// DefaultStrategy keeps slot exclusivity for flat problems and drops it for day×period problems
func DefaultStrategy(problem Problem) Strategy {
	return NewBinaryStrategy(!problem.DayDecomposed())
}
