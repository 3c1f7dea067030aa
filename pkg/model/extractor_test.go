package model

import (
	"testing"

	"github.com/limaJavier/coursesched/pkg/lp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	//** Arrange
	model := buildTestModel(t, flatProblem(2, 3, []Preference{{0, 2}}, nil), NewBinaryStrategy(true))
	result := lp.Solution{Status: lp.Optimal, Values: []float64{0, 1e-9, 1 - 1e-9, 1, 0, 0}, Objective: 11}

	//** Act
	solution, err := Extract(model, result)

	//** Assert
	require.NoError(t, err)
	assert.Equal(t, "binary", solution.Strategy)
	assert.Equal(t, []Assignment{{Course: 0, Slot: 2, Score: 10, Preferred: true}, {Course: 1, Slot: 0, Score: 1}}, solution.Assignments)
	assert.Equal(t, 11.0, solution.Score)
}

func TestExtractFailures(t *testing.T) {
	model := buildTestModel(t, flatProblem(2, 2, nil, nil), NewBinaryStrategy(true))

	tests := []struct {
		name   string
		result lp.Solution
		target error
	}{
		{name: "Infeasible", result: lp.Solution{Status: lp.Infeasible}, target: ErrInfeasible},
		{name: "Solver error", result: lp.Solution{Status: lp.Error}, target: ErrSolver},
		{name: "Missing values", result: lp.Solution{Status: lp.Optimal, Values: []float64{1, 0}}, target: ErrSolver},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			//** Act
			solution, err := Extract(model, test.result)

			//** Assert
			assert.ErrorIs(t, err, test.target)
			assert.Empty(t, solution.Assignments)
		})
	}
}

func TestExtractContinuous(t *testing.T) {
	//** Arrange
	model := buildTestModel(t, flatProblem(1, 3, []Preference{{0, 1}}, nil), NewContinuousStrategy(0))
	result := lp.Solution{Status: lp.Optimal, Values: []float64{2, 10, 0.5}}

	//** Act
	solution, err := Extract(model, result)

	//** Assert
	require.NoError(t, err)
	require.Len(t, solution.Assignments, 1)
	assert.Equal(t, uint64(1), solution.Assignments[0].Slot)
	assert.Equal(t, []float64{2, 10, 0.5}, solution.Assignments[0].Magnitudes)
	assert.InDelta(t, 102.5, solution.Score, 1e-9)
}

func TestSelectSlot(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		slot   uint64
	}{
		{name: "Single selection", values: []float64{0, 0, 1}, slot: 2},
		{name: "Numerical noise", values: []float64{0.0000001, 0.9999999, 0}, slot: 1},
		{name: "Nothing selected", values: []float64{0.2, 0.4, 0.4}, slot: 1},
		{name: "Several selected", values: []float64{0.6, 1, 1}, slot: 1},
		{name: "All zero", values: []float64{0, 0, 0}, slot: 0},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.slot, selectSlot(test.values))
		})
	}
}

func TestDiagnose(t *testing.T) {
	tests := []struct {
		name      string
		problem   Problem
		strategy  Strategy
		unmatched []uint64
	}{
		{
			name:      "Perfect matching",
			problem:   flatProblem(3, 3, nil, nil),
			strategy:  NewBinaryStrategy(true),
			unmatched: []uint64{},
		},
		{
			name: "Empty allowed set with shared slots",
			problem: func() Problem {
				problem := flatProblem(3, 2, nil, nil)
				problem.AllowedSlots = map[uint64][]uint64{1: {}}
				return problem
			}(),
			strategy:  NewBinaryStrategy(false),
			unmatched: []uint64{1},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			//** Arrange
			model := buildTestModel(t, test.problem, test.strategy)

			//** Act
			unmatched, err := Diagnose(model)

			//** Assert
			require.NoError(t, err)
			assert.ElementsMatch(t, test.unmatched, unmatched)
		})
	}
}

func TestDiagnoseTooManyCourses(t *testing.T) {
	//** Arrange
	problem := flatProblem(4, 2, nil, nil)
	problem.AllowedSlots = map[uint64][]uint64{0: {0}, 1: {0}}
	model := buildTestModel(t, problem, NewBinaryStrategy(true))

	//** Act
	unmatched, err := Diagnose(model)

	//** Assert
	require.NoError(t, err)
	assert.Len(t, unmatched, 2)
}

func TestSolutionMatrix(t *testing.T) {
	problem := flatProblem(2, 3, nil, nil)

	binary := Solution{Assignments: []Assignment{{Course: 0, Slot: 2}, {Course: 1, Slot: 0}}}
	continuous := Solution{Assignments: []Assignment{
		{Course: 0, Slot: 1, Magnitudes: []float64{0, 10, 2}},
		{Course: 1, Slot: 0, Magnitudes: []float64{9, 0, 0}},
	}}

	assert.Equal(t, [][]float64{{0, 0, 1}, {1, 0, 0}}, binary.Matrix(problem))
	assert.Equal(t, [][]float64{{0, 10, 2}, {9, 0, 0}}, continuous.Matrix(problem))
	assert.Equal(t, [][]float64{{0, 0, 0}, {0, 0, 0}}, Solution{}.Matrix(problem))
}
