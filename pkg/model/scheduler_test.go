package model

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/limaJavier/coursesched/pkg/lp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	feasibleTestDirectory   = "testdata/feasible/"
	infeasibleTestDirectory = "testdata/infeasible/"
)

var expectedScores = map[string]float64{
	"preferred_conflicts.json":   41,
	"perfect_matching.json":      40,
	"restricted_course.json":     12,
	"day_grid.json":              21,
	"restricted_preference.json": 30,
}

func TestGiniBasedScheduler(t *testing.T) {
	scheduler := NewScheduler(lp.NewGiniSolver())

	t.Run("Feasible instances", func(t *testing.T) {
		feasibleExecution(t, scheduler)
	})
	t.Run("Infeasible instances", func(t *testing.T) {
		infeasibleExecution(t, scheduler)
	})
}

func TestSimplexBasedScheduler(t *testing.T) {
	scheduler := NewScheduler(lp.NewSimplexSolver())

	t.Run("Feasible instances", func(t *testing.T) {
		feasibleExecution(t, scheduler)
	})
	t.Run("Infeasible instances", func(t *testing.T) {
		infeasibleExecution(t, scheduler)
	})
}

func feasibleExecution(t *testing.T, scheduler Scheduler) {
	files, err := filepath.Glob(feasibleTestDirectory + "*.json")
	require.NoError(t, err)
	require.Len(t, files, len(expectedScores))

	for _, file := range files {
		t.Run(filepath.Base(file), func(t *testing.T) {
			//** Arrange
			input, err := InputFromJson(file)
			require.NoError(t, err)

			//** Act
			solution, err := scheduler.Build(input)

			//** Assert
			require.NoError(t, err)
			assert.InDelta(t, expectedScores[filepath.Base(file)], solution.Score, 1e-6)
			assert.Len(t, solution.Assignments, len(input.Courses))
			assert.NotEmpty(t, solution.RunID)
			assert.True(t, scheduler.Verify(solution, input))
		})
	}
}

func infeasibleExecution(t *testing.T, scheduler Scheduler) {
	files, err := filepath.Glob(infeasibleTestDirectory + "*.json")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		t.Run(filepath.Base(file), func(t *testing.T) {
			//** Arrange
			input, err := InputFromJson(file)
			require.NoError(t, err)

			//** Act
			solution, err := scheduler.Build(input)

			//** Assert
			require.ErrorIs(t, err, ErrInfeasible)
			var infeasible *InfeasibleError
			require.True(t, errors.As(err, &infeasible))
			assert.Len(t, infeasible.Unmatched, 1)
			assert.Empty(t, solution.Assignments)
		})
	}
}

func TestSchedulerConflictsNeverShareSlot(t *testing.T) {
	//** Arrange
	input := flatProblem(3, 3, []Preference{{0, 0}, {1, 0}, {2, 1}}, []ConflictGroup{{0, 1}})

	for _, solver := range []lp.Solver{lp.NewGiniSolver(), lp.NewSimplexSolver()} {
		t.Run(lp.SolverName(solver), func(t *testing.T) {
			scheduler := NewScheduler(solver, WithStrategy(NewBinaryStrategy(false)))

			//** Act
			solution, err := scheduler.Build(input)

			//** Assert
			require.NoError(t, err)
			assert.InDelta(t, 21, solution.Score, 1e-6)
			assert.NotEqual(t, solution.Assignments[0].Slot, solution.Assignments[1].Slot)
			assert.Equal(t, "binary-shared", solution.Strategy)
			assert.True(t, scheduler.Verify(solution, input))
		})
	}
}

func TestSchedulerIsIdempotent(t *testing.T) {
	//** Arrange
	input, err := InputFromJson(feasibleTestDirectory + "preferred_conflicts.json")
	require.NoError(t, err)
	scheduler := NewScheduler(lp.NewGiniSolver())

	//** Act
	first, err := scheduler.Build(input)
	require.NoError(t, err)
	second, err := scheduler.Build(input)
	require.NoError(t, err)

	//** Assert
	assert.Equal(t, first.Score, second.Score)
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestSchedulerConcurrentBuilds(t *testing.T) {
	//** Arrange
	input, err := InputFromJson(feasibleTestDirectory + "preferred_conflicts.json")
	require.NoError(t, err)
	schedulers := []Scheduler{NewScheduler(lp.NewGiniSolver()), NewScheduler(lp.NewSimplexSolver())}
	const runs = 4

	//** Act
	solutions := make([]Solution, len(schedulers)*runs)
	errs := make([]error, len(solutions))
	var wg sync.WaitGroup
	for i := range solutions {
		wg.Add(1)
		go func() {
			defer wg.Done()
			solutions[i], errs[i] = schedulers[i%len(schedulers)].Build(input)
		}()
	}
	wg.Wait()

	//** Assert
	for i, solution := range solutions {
		require.NoError(t, errs[i])
		assert.InDelta(t, 41, solution.Score, 1e-6)
		assert.True(t, schedulers[i%len(schedulers)].Verify(solution, input))
	}
}

func TestSchedulerRestrictedCourseTakesBestAllowedSlot(t *testing.T) {
	//** Arrange
	// Algebra prefers slot 0, which it may not use, and slot 3, which it may
	input, err := InputFromJson(feasibleTestDirectory + "restricted_preference.json")
	require.NoError(t, err)

	for _, solver := range []lp.Solver{lp.NewGiniSolver(), lp.NewSimplexSolver()} {
		t.Run(lp.SolverName(solver), func(t *testing.T) {
			//** Act
			solution, err := NewScheduler(solver).Build(input)

			//** Assert
			require.NoError(t, err)
			require.Len(t, solution.Assignments, 3)
			assert.Equal(t, uint64(0), solution.Assignments[0].Course)
			assert.Equal(t, uint64(3), solution.Assignments[0].Slot)
			assert.Equal(t, 10.0, solution.Assignments[0].Score)
			assert.Equal(t, uint64(0), solution.Assignments[1].Slot)
			assert.Equal(t, uint64(1), solution.Assignments[2].Slot)
		})
	}
}

func TestSchedulerLargeElevatedScore(t *testing.T) {
	//** Arrange
	input, err := InputFromJson(feasibleTestDirectory + "preferred_conflicts.json")
	require.NoError(t, err)
	input.ElevatedScore = 1000

	for _, solver := range []lp.Solver{lp.NewGiniSolver(lp.WithTimeLimit(30 * time.Second)), lp.NewSimplexSolver()} {
		t.Run(lp.SolverName(solver), func(t *testing.T) {
			//** Act
			solution, err := NewScheduler(solver).Build(input)

			//** Assert
			require.NoError(t, err)
			// Four preferred placements and one course on a base slot
			assert.InDelta(t, 4001, solution.Score, 1e-6)
		})
	}
}

func TestSchedulerContinuousStrategy(t *testing.T) {
	tests := []struct {
		name      string
		problem   Problem
		objective float64
	}{
		{
			name:      "Two conflicting courses",
			problem:   flatProblem(2, 2, []Preference{{0, 0}, {1, 1}}, []ConflictGroup{{0, 1}}),
			objective: 200,
		},
		{
			name:      "Conflict chain",
			problem:   flatProblem(3, 3, []Preference{{0, 0}, {1, 1}, {2, 2}}, []ConflictGroup{{0, 1}, {1, 2}}),
			objective: 318,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			//** Arrange
			scheduler := NewScheduler(lp.NewSimplexSolver(), WithStrategy(NewContinuousStrategy(0)))

			//** Act
			solution, err := scheduler.Build(test.problem)

			//** Assert
			require.NoError(t, err)
			assert.InDelta(t, test.objective, solution.Score, 1e-6)
			assert.Equal(t, "continuous", solution.Strategy)
			for _, assignment := range solution.Assignments {
				assert.Len(t, assignment.Magnitudes, len(test.problem.Slots))
				assert.Equal(t, assignment.Course, assignment.Slot)
			}
			assert.True(t, scheduler.Verify(solution, test.problem))
		})
	}
}

func TestSchedulerRejectsContinuousOnGini(t *testing.T) {
	//** Arrange
	scheduler := NewScheduler(lp.NewGiniSolver(), WithStrategy(NewContinuousStrategy(0)))

	//** Act
	_, err := scheduler.Build(flatProblem(2, 2, nil, nil))

	//** Assert
	assert.ErrorIs(t, err, ErrSolver)
	assert.ErrorIs(t, err, lp.ErrUnsupported)
}

func TestSchedulerInvalidConflictIndex(t *testing.T) {
	//** Arrange
	input := flatProblem(5, 5, []Preference{{0, 0}}, []ConflictGroup{{0, 1}, {6, 7}})
	sink := &recordingSink{}
	scheduler := NewScheduler(lp.NewGiniSolver(), WithMetrics(sink))

	//** Act
	_, err := scheduler.Build(input)

	//** Assert
	require.ErrorIs(t, err, ErrInvalidIndex)
	var indexErr *IndexError
	require.True(t, errors.As(err, &indexErr))
	assert.Equal(t, uint64(6), indexErr.Index)
	assert.Equal(t, uint64(5), indexErr.Limit)
	require.Len(t, sink.records, 1)
	assert.Equal(t, OutcomeInvalid, sink.records[0].Outcome)
}

func TestSchedulerIgnoresOutOfRangePreferences(t *testing.T) {
	//** Arrange
	input := flatProblem(2, 2, []Preference{{0, 0}, {1, 5}, {4, 1}}, nil)
	scheduler := NewScheduler(lp.NewGiniSolver(), WithLogger(zerolog.Nop()))

	//** Act
	solution, err := scheduler.Build(input)

	//** Assert
	require.NoError(t, err)
	assert.InDelta(t, 11, solution.Score, 1e-6)
}

func TestSchedulerEmptyProblem(t *testing.T) {
	tests := []struct {
		name    string
		problem Problem
	}{
		{name: "No courses", problem: flatProblem(0, 3, nil, nil)},
		{name: "No slots", problem: flatProblem(3, 0, nil, nil)},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			//** Arrange
			scheduler := NewScheduler(lp.NewSimplexSolver())

			//** Act
			solution, err := scheduler.Build(test.problem)

			//** Assert
			require.NoError(t, err)
			assert.Empty(t, solution.Assignments)
			assert.Zero(t, solution.Score)
			assert.True(t, scheduler.Verify(solution, test.problem))
		})
	}
}

func TestSchedulerRecordsMetrics(t *testing.T) {
	//** Arrange
	sink := &recordingSink{}
	scheduler := NewScheduler(lp.NewGiniSolver(), WithMetrics(sink))

	//** Act
	_, err := scheduler.Build(flatProblem(2, 2, []Preference{{0, 1}}, nil))
	require.NoError(t, err)
	_, err = scheduler.Build(flatProblem(3, 2, nil, nil))
	require.Error(t, err)

	//** Assert
	require.Len(t, sink.records, 2)
	assert.Equal(t, SolveRecord{
		Backend:     "gini",
		Strategy:    "binary",
		Outcome:     OutcomeOptimal,
		Duration:    sink.records[0].Duration,
		Variables:   4,
		Constraints: 4,
		Score:       11,
	}, sink.records[0])
	assert.Equal(t, OutcomeInfeasible, sink.records[1].Outcome)
}

func TestSchedulerVerify(t *testing.T) {
	input, err := InputFromJson(feasibleTestDirectory + "preferred_conflicts.json")
	require.NoError(t, err)
	scheduler := NewScheduler(lp.NewSimplexSolver())
	solution, err := scheduler.Build(input)
	require.NoError(t, err)

	tests := []struct {
		name   string
		tamper func(solution *Solution)
	}{
		{
			name:   "Missing course",
			tamper: func(solution *Solution) { solution.Assignments = solution.Assignments[1:] },
		},
		{
			name: "Shared slot",
			tamper: func(solution *Solution) {
				solution.Assignments[1].Slot = solution.Assignments[0].Slot
				solution.Assignments[1].Score = 1
			},
		},
		{
			name:   "Wrong total",
			tamper: func(solution *Solution) { solution.Score++ },
		},
		{
			name:   "Slot out of range",
			tamper: func(solution *Solution) { solution.Assignments[0].Slot = 9 },
		},
		{
			name:   "Duplicate course",
			tamper: func(solution *Solution) { solution.Assignments[1].Course = 0 },
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			//** Arrange
			tampered := solution
			tampered.Assignments = append([]Assignment(nil), solution.Assignments...)
			test.tamper(&tampered)

			//** Act & Assert
			assert.False(t, scheduler.Verify(tampered, input))
		})
	}
}

func TestSchedulerFormulate(t *testing.T) {
	//** Arrange
	input, err := InputFromJson(feasibleTestDirectory + "day_grid.json")
	require.NoError(t, err)
	scheduler := NewScheduler(lp.NewGiniSolver())

	//** Act
	model, err := scheduler.Formulate(input)

	//** Assert
	require.NoError(t, err)
	assert.False(t, model.Strategy.SlotExclusive())
	assert.Len(t, model.Program.Variables, 12)
	// Three assignment rows and one conflict row per slot
	assert.Len(t, model.Program.Constraints, 7)
}

type recordingSink struct {
	records []SolveRecord
}

func (sink *recordingSink) RecordSolve(record SolveRecord) {
	sink.records = append(sink.records, record)
}

func flatProblem(courses, slots int, preferences []Preference, conflicts []ConflictGroup) Problem {
	problem := Problem{
		Preferences:   preferences,
		Conflicts:     conflicts,
		BaseScore:     DefaultBaseScore,
		ElevatedScore: DefaultElevatedScore,
	}
	for i := range courses {
		problem.Courses = append(problem.Courses, Course{Id: uint64(i)})
	}
	for i := range slots {
		problem.Slots = append(problem.Slots, TimeSlot{Id: uint64(i)})
	}
	return problem
}
