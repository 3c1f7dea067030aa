package model

import (
	"fmt"

	"github.com/limaJavier/coursesched/pkg/lp"
)

// Binary values above this threshold mark the chosen slot
const selectionThreshold = 0.5

type Assignment struct {
	Course     uint64
	Slot       uint64
	Score      float64
	Preferred  bool      `json:",omitempty"` // Slot is one of the course's preferences, binary formulation only
	Magnitudes []float64 `json:",omitempty"` // Per-slot values, continuous formulation only
}

type Solution struct {
	RunID       string
	Strategy    string
	Assignments []Assignment
	Score       float64
}

// Extract converts a solver result into a schedule. Binary models pick the single slot above 0.5 for each course,
// falling back to the largest value (lowest slot on ties) when the solver returns numerical noise. Continuous
// models report every per-slot magnitude. Any non-optimal result becomes an error with no partial schedule.
func Extract(model *Model, result lp.Solution) (Solution, error) {
	switch result.Status {
	case lp.Optimal:
	case lp.Infeasible:
		return Solution{}, &InfeasibleError{}
	default:
		return Solution{}, fmt.Errorf("%w: solver returned status %v", ErrSolver, result.Status)
	}

	if len(result.Values) != len(model.Program.Variables) {
		return Solution{}, fmt.Errorf("%w: solver returned %d values for %d variables", ErrSolver, len(result.Values), len(model.Program.Variables))
	}

	solution := Solution{
		Strategy:    model.Strategy.Name(),
		Assignments: make([]Assignment, 0, model.Courses()),
	}
	if model.Empty() {
		return solution, nil
	}

	for course := range model.Courses() {
		values := make([]float64, model.Slots())
		for slot := range model.Slots() {
			values[slot] = result.Values[model.Indexer.Index(course, slot)]
		}

		assignment := Assignment{Course: course, Slot: selectSlot(values)}
		if model.Strategy.Kind() == lp.Binary {
			assignment.Score = model.Scores.At(course, assignment.Slot)
			assignment.Preferred = model.Scores.Preferred(course, assignment.Slot)
		} else {
			assignment.Magnitudes = values
			for slot, value := range values {
				assignment.Score += model.Scores.At(course, uint64(slot)) * value
			}
		}

		solution.Assignments = append(solution.Assignments, assignment)
		solution.Score += assignment.Score
	}

	return solution, nil
}

func selectSlot(values []float64) uint64 {
	chosen, above := -1, 0
	for slot, value := range values {
		if value > selectionThreshold {
			chosen = slot
			above++
		}
	}
	if above == 1 {
		return uint64(chosen)
	}

	// Degenerate vector: the first maximal value wins
	best := 0
	for slot, value := range values {
		if value > values[best] {
			best = slot
		}
	}
	return uint64(best)
}

// Matrix renders the schedule as a course×slot value matrix: the per-slot magnitudes of a continuous schedule, or
// a single 1 per course row for a binary one
func (solution Solution) Matrix(problem Problem) [][]float64 {
	matrix := make([][]float64, len(problem.Courses))
	for course := range matrix {
		matrix[course] = make([]float64, len(problem.Slots))
	}
	for _, assignment := range solution.Assignments {
		if assignment.Course >= uint64(len(matrix)) || assignment.Slot >= uint64(len(problem.Slots)) {
			continue
		}
		if len(assignment.Magnitudes) == len(problem.Slots) {
			copy(matrix[assignment.Course], assignment.Magnitudes)
		} else {
			matrix[assignment.Course][assignment.Slot] = 1
		}
	}
	return matrix
}
