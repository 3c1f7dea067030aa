package model

import (
	"testing"

	"github.com/limaJavier/coursesched/pkg/lp"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTestModel(t *testing.T, problem Problem, strategy Strategy) *Model {
	t.Helper()
	courses, slots := uint64(len(problem.Courses)), uint64(len(problem.Slots))
	policy, err := NewConflictPolicy(courses, slots, problem.Conflicts, problem.AllowedSlots)
	require.NoError(t, err)
	scores := NewScoreMatrix(courses, slots, problem.BaseScore, problem.ElevatedScore, problem.Preferences)
	model, err := BuildModel(scores, policy, problem.Hints(), strategy)
	require.NoError(t, err)
	return model
}

func constraintNames(model *Model) []string {
	return lo.Map(model.Program.Constraints, func(constraint lp.Constraint, _ int) string { return constraint.Name })
}

func TestBuildModelBinary(t *testing.T) {
	//** Arrange
	problem := flatProblem(2, 3, []Preference{{1, 2}}, []ConflictGroup{{1, 0}})
	problem.AllowedSlots = map[uint64][]uint64{0: {0, 2}}

	//** Act
	model := buildTestModel(t, problem, NewBinaryStrategy(true))

	//** Assert
	require.NoError(t, model.Program.Validate())
	assert.Equal(t, "courses-2-slots-3-binary", model.Program.Name)
	assert.True(t, model.Program.Maximize)
	assert.Equal(t, []string{"x_0_0", "x_0_1", "x_0_2", "x_1_0", "x_1_1", "x_1_2"},
		lo.Map(model.Program.Variables, func(variable lp.Variable, _ int) string { return variable.Name }))
	assert.Equal(t, []float64{1, 1, 1, 1, 1, 10}, model.Program.Objective)
	assert.Equal(t, []string{
		"assign_0", "assign_1",
		"exclusive_slot_0", "exclusive_slot_1", "exclusive_slot_2",
		"conflict_0_1_slot_0", "conflict_0_1_slot_1", "conflict_0_1_slot_2",
		"allowed_0_slot_1",
	}, constraintNames(model))
	assert.Equal(t, []float64{0, 0, 0, 0, 0, 1}, model.Program.Start)
	assert.Equal(t, [][]float64{{0, 0, 0}, {0, 0, 1}}, model.StartMatrix())
}

func TestBuildModelSharedSlots(t *testing.T) {
	//** Arrange
	problem := flatProblem(3, 2, nil, nil)

	//** Act
	model := buildTestModel(t, problem, NewBinaryStrategy(false))

	//** Assert
	assert.Equal(t, []string{"assign_0", "assign_1", "assign_2"}, constraintNames(model))
}

func TestBuildModelContinuous(t *testing.T) {
	//** Arrange
	problem := flatProblem(3, 2, []Preference{{0, 1}, {0, 0}, {2, 0}}, []ConflictGroup{{0, 1}})

	//** Act
	model := buildTestModel(t, problem, NewContinuousStrategy(0))

	//** Assert
	require.NoError(t, model.Program.Validate())
	assert.False(t, model.Program.Binary())
	for _, variable := range model.Program.Variables {
		assert.Equal(t, lp.Continuous, variable.Kind)
		assert.Equal(t, ContinuousUpper, variable.Upper)
	}
	// Course 1 conflicts but has no hint, course 2 has a hint but no conflict
	assert.Equal(t, []string{"conflict_0_1_slot_0", "conflict_0_1_slot_1", "penalty_0_slot_0"}, constraintNames(model))
	penalty := model.Program.Constraints[2]
	assert.Equal(t, []lp.Term{{Variable: 0, Coefficient: 1}, {Variable: 1, Coefficient: -1}}, penalty.Terms)
	assert.Equal(t, -1.0, penalty.RHS)
	assert.Equal(t, DefaultContinuousCapacity, model.Program.Constraints[0].RHS)
	assert.Equal(t, [][]float64{{0.5, 10}, {0.5, 0.5}, {10, 0.5}}, model.StartMatrix())
}

func TestBuildModelEmpty(t *testing.T) {
	//** Arrange
	problem := flatProblem(0, 4, nil, nil)

	//** Act
	model := buildTestModel(t, problem, NewBinaryStrategy(true))

	//** Assert
	assert.True(t, model.Empty())
	assert.Empty(t, model.Program.Constraints)
	assert.NoError(t, model.Program.Validate())
}

func TestBuildModelDimensionMismatch(t *testing.T) {
	//** Arrange
	policy, err := NewConflictPolicy(2, 2, nil, nil)
	require.NoError(t, err)

	//** Act
	_, err = BuildModel(NewScoreMatrix(2, 3, 1, 10, nil), policy, nil, NewBinaryStrategy(true))

	//** Assert
	assert.Error(t, err)
}

func TestModelMatrix(t *testing.T) {
	model := buildTestModel(t, flatProblem(2, 2, nil, nil), NewBinaryStrategy(true))

	assert.Equal(t, [][]float64{{1, 2}, {3, 4}}, model.Matrix([]float64{1, 2, 3, 4}))
	assert.Nil(t, model.Matrix([]float64{1}))
}

func TestDefaultStrategy(t *testing.T) {
	flat := flatProblem(1, 1, nil, nil)
	grid := flat
	grid.Days, grid.Periods = 1, 1

	assert.True(t, DefaultStrategy(flat).SlotExclusive())
	assert.False(t, DefaultStrategy(grid).SlotExclusive())
	assert.Equal(t, "continuous", NewContinuousStrategy(-3).Name())
	assert.Equal(t, DefaultContinuousCapacity, NewContinuousStrategy(-3).capacity())
	assert.Equal(t, 4.0, NewContinuousStrategy(4).capacity())
}
