package model

import (
	"fmt"

	"github.com/limaJavier/coursesched/pkg/lp"
)

type constraintFamily func(state constraintState) []lp.Constraint

type constraintState struct {
	indexer  Indexer
	policy   *ConflictPolicy
	hints    map[uint64]uint64
	capacity float64

	courses,
	slots uint64
}

// Σ_s x[c,s] = 1
func assignmentConstraints(state constraintState) []lp.Constraint {
	constraints := make([]lp.Constraint, 0, state.courses)
	for course := range state.courses {
		terms := make([]lp.Term, 0, state.slots)
		for slot := range state.slots {
			terms = append(terms, lp.Term{Variable: int(state.indexer.Index(course, slot)), Coefficient: 1})
		}
		constraints = append(constraints, lp.Constraint{
			Name:  fmt.Sprintf("assign_%d", course),
			Terms: terms,
			Sense: lp.Equal,
			RHS:   1,
		})
	}
	return constraints
}

// Σ_c x[c,s] <= 1
func slotExclusivityConstraints(state constraintState) []lp.Constraint {
	constraints := make([]lp.Constraint, 0, state.slots)
	for slot := range state.slots {
		terms := make([]lp.Term, 0, state.courses)
		for course := range state.courses {
			terms = append(terms, lp.Term{Variable: int(state.indexer.Index(course, slot)), Coefficient: 1})
		}
		constraints = append(constraints, lp.Constraint{
			Name:  fmt.Sprintf("exclusive_slot_%d", slot),
			Terms: terms,
			Sense: lp.LessEqual,
			RHS:   1,
		})
	}
	return constraints
}

func conflictConstraints(state constraintState) []lp.Constraint {
	return state.policy.ConflictClauses(state.indexer, state.capacity)
}

func allowedSlotConstraints(state constraintState) []lp.Constraint {
	constraints := make([]lp.Constraint, 0)
	for _, course := range state.policy.RestrictedCourses() {
		constraints = append(constraints, state.policy.AllowedSlotClauses(course, state.indexer)...)
	}
	return constraints
}

func movementPenaltyConstraints(state constraintState) []lp.Constraint {
	return state.policy.MovementPenaltyClauses(state.indexer, state.hints)
}
