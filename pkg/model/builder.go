package model

import (
	"fmt"
	"sync"

	"github.com/limaJavier/coursesched/pkg/lp"
)

// Model is a solver-ready program together with what is needed to read its solution back
type Model struct {
	Program  lp.Program
	Indexer  Indexer
	Scores   *ScoreMatrix
	Policy   *ConflictPolicy
	Strategy Strategy
}

func (model *Model) Courses() uint64 {
	return model.Indexer.Courses()
}

func (model *Model) Slots() uint64 {
	return model.Indexer.Slots()
}

// Empty reports whether the model has no decision variables, which happens when there are no courses or no slots
func (model *Model) Empty() bool {
	return len(model.Program.Variables) == 0
}

// Matrix reshapes a value vector into course rows and slot columns
func (model *Model) Matrix(values []float64) [][]float64 {
	if len(values) != len(model.Program.Variables) {
		return nil
	}
	matrix := make([][]float64, model.Courses())
	for course := range model.Courses() {
		matrix[course] = make([]float64, model.Slots())
		for slot := range model.Slots() {
			matrix[course][slot] = values[model.Indexer.Index(course, slot)]
		}
	}
	return matrix
}

// StartMatrix returns the warm-start values the model was declared with
func (model *Model) StartMatrix() [][]float64 {
	return model.Matrix(model.Program.Start)
}

// BuildModel declares one variable per (course, slot) pair, registers the constraint families of the strategy and
// sets the objective to maximize Σ score(c,s)·x[c,s]. With no courses or no slots the model is empty and trivially
// feasible.
func BuildModel(scores *ScoreMatrix, policy *ConflictPolicy, hints map[uint64]uint64, strategy Strategy) (*Model, error) {
	courses, slots := scores.Courses(), scores.Slots()
	if policy.courses != courses || policy.slots != slots {
		return nil, fmt.Errorf("score matrix is %d×%d but conflict policy is %d×%d", courses, slots, policy.courses, policy.slots)
	}

	indexer := NewIndexer(courses, slots)
	model := &Model{
		Program: lp.Program{
			Name:      fmt.Sprintf("courses-%d-slots-%d-%v", courses, slots, strategy.Name()),
			Variables: []lp.Variable{},
			Objective: []float64{},
			Maximize:  true,
		},
		Indexer:  indexer,
		Scores:   scores,
		Policy:   policy,
		Strategy: strategy,
	}
	if courses == 0 || slots == 0 {
		model.Program.Start = []float64{}
		return model, nil
	}

	//** Declare variables and objective
	variables := courses * slots
	model.Program.Variables = make([]lp.Variable, variables)
	model.Program.Objective = make([]float64, variables)
	for index := range variables {
		course, slot := indexer.Attributes(index)
		model.Program.Variables[index] = lp.Variable{
			Name:  fmt.Sprintf("x_%d_%d", course, slot),
			Kind:  strategy.Kind(),
			Upper: strategy.upper(),
		}
		model.Program.Objective[index] = scores.At(course, slot)
	}

	//** Generate constraints
	state := constraintState{
		indexer:  indexer,
		policy:   policy,
		hints:    hints,
		capacity: strategy.capacity(),
		courses:  courses,
		slots:    slots,
	}

	// Families run on different goroutines; each writes its own slot so the order stays the declaration order
	families := strategy.families()
	generated := make([][]lp.Constraint, len(families))
	var wg sync.WaitGroup
	for i, family := range families {
		wg.Add(1)
		go func() {
			defer wg.Done()
			generated[i] = family(state)
		}()
	}
	wg.Wait()

	for _, constraints := range generated {
		model.Program.Constraints = append(model.Program.Constraints, constraints...)
	}
	model.Program.Start = strategy.start(state)

	return model, nil
}
