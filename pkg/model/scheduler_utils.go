package model

import (
	"math"

	"github.com/limaJavier/coursesched/pkg/lp"
	"github.com/onsi/gomega/matchers/support/goraph/bipartitegraph"
	"github.com/samber/lo"
)

const verifyTolerance = 1e-6

// Diagnose names the courses that cannot be placed: courses whose allowed set is empty and, when slots are
// exclusive, the courses left over by a largest matching of courses onto their allowed slots
func Diagnose(model *Model) ([]uint64, error) {
	courses := lo.Range(int(model.Courses()))
	slots := lo.Range(int(model.Slots()))

	if !model.Strategy.SlotExclusive() {
		return lo.FilterMap(courses, func(course int, _ int) (uint64, bool) {
			return uint64(course), !lo.SomeBy(slots, func(slot int) bool {
				return model.Policy.Allowed(uint64(course), uint64(slot))
			})
		}), nil
	}

	// Build neighbors predicate based on allowed slots
	neighbors := func(courseAny any, slotAny any) (bool, error) {
		return model.Policy.Allowed(uint64(courseAny.(int)), uint64(slotAny.(int))), nil
	}

	coursesAny, slotsAny := lo.Map(courses, func(course int, _ int) any { return course }), lo.Map(slots, func(slot int, _ int) any { return slot })

	graph, err := bipartitegraph.NewBipartiteGraph(coursesAny, slotsAny, neighbors)
	if err != nil {
		return nil, err
	}

	matching := graph.LargestMatching()
	unmatched, _ := graph.FreeLeftRight(matching)

	return lo.Map(unmatched, func(course any, _ int) uint64 { return uint64(course.(int)) }), nil
}

func verify(solution Solution, problem Problem, strategy Strategy) bool {
	courses, slots := uint64(len(problem.Courses)), uint64(len(problem.Slots))

	policy, err := NewConflictPolicy(courses, slots, problem.Conflicts, problem.AllowedSlots)
	if err != nil {
		return false
	}
	scores := NewScoreMatrix(courses, slots, problem.BaseScore, problem.ElevatedScore, problem.Preferences)

	// An empty model has nothing to assign
	if courses == 0 || slots == 0 {
		return len(solution.Assignments) == 0 && solution.Score == 0
	}
	if uint64(len(solution.Assignments)) != courses {
		return false
	}

	seen := make(map[uint64]bool)
	for _, assignment := range solution.Assignments {
		if assignment.Course >= courses || assignment.Slot >= slots || seen[assignment.Course] {
			return false
		}
		seen[assignment.Course] = true
	}

	verifier := verifyBinary
	if strategy.Kind() == lp.Continuous {
		verifier = verifyContinuous
	}
	total, ok := verifier(solution, problem, policy, scores, strategy)
	return ok && math.Abs(total-solution.Score) <= verifyTolerance
}

func verifyBinary(solution Solution, _ Problem, policy *ConflictPolicy, scores *ScoreMatrix, strategy Strategy) (float64, bool) {
	placement := make(map[uint64]uint64, len(solution.Assignments))
	occupied := make(map[uint64]bool)
	total := 0.0

	for _, assignment := range solution.Assignments {
		// Check that:
		// - The slot is allowed for the course
		// - No other course holds the slot when slots are exclusive
		// - The reported score is the score of the chosen cell
		if !policy.Allowed(assignment.Course, assignment.Slot) ||
			(strategy.SlotExclusive() && occupied[assignment.Slot]) ||
			math.Abs(assignment.Score-scores.At(assignment.Course, assignment.Slot)) > verifyTolerance {
			return 0, false
		}
		placement[assignment.Course] = assignment.Slot
		occupied[assignment.Slot] = true
		total += assignment.Score
	}

	for _, pair := range policy.Pairs() {
		if placement[pair.First] == placement[pair.Second] {
			return 0, false
		}
	}
	return total, true
}

func verifyContinuous(solution Solution, problem Problem, policy *ConflictPolicy, scores *ScoreMatrix, strategy Strategy) (float64, bool) {
	slots := scores.Slots()
	magnitudes := make(map[uint64][]float64, len(solution.Assignments))
	total := 0.0

	for _, assignment := range solution.Assignments {
		if uint64(len(assignment.Magnitudes)) != slots {
			return 0, false
		}
		score := 0.0
		for slot, value := range assignment.Magnitudes {
			if value < -verifyTolerance || value > ContinuousUpper+verifyTolerance {
				return 0, false
			}
			if !policy.Allowed(assignment.Course, uint64(slot)) && math.Abs(value) > verifyTolerance {
				return 0, false
			}
			score += scores.At(assignment.Course, uint64(slot)) * value
		}
		if math.Abs(score-assignment.Score) > verifyTolerance {
			return 0, false
		}
		magnitudes[assignment.Course] = assignment.Magnitudes
		total += score
	}

	for _, pair := range policy.Pairs() {
		for slot := range slots {
			if magnitudes[pair.First][slot]+magnitudes[pair.Second][slot] > strategy.capacity()+verifyTolerance {
				return 0, false
			}
		}
	}

	for course, hint := range problem.Hints() {
		if !policy.Conflicting(course) {
			continue
		}
		for slot := range slots {
			if slot != hint && magnitudes[course][slot]-magnitudes[course][hint] > -1+verifyTolerance {
				return 0, false
			}
		}
	}
	return total, true
}
