package model

import (
	"fmt"
	"maps"
	"slices"

	"github.com/limaJavier/coursesched/pkg/lp"
)

// ConflictPolicy holds the conflict pairs and the allowed-slot restrictions of a problem and generates the
// constraints that enforce them. Generators never mutate the policy.
type ConflictPolicy struct {
	courses     uint64
	slots       uint64
	pairs       []ConflictGroup
	ignored     []ConflictGroup
	conflicting map[uint64]bool
	allowed     map[uint64]map[uint64]bool
}

// NewConflictPolicy validates every referenced index. Unlike preferences, out-of-range conflicts or restrictions
// are rejected since dropping them would silently change the optimal schedule.
func NewConflictPolicy(courses, slots uint64, conflicts []ConflictGroup, allowed map[uint64][]uint64) (*ConflictPolicy, error) {
	policy := &ConflictPolicy{
		courses:     courses,
		slots:       slots,
		pairs:       make([]ConflictGroup, 0, len(conflicts)),
		conflicting: make(map[uint64]bool),
		allowed:     make(map[uint64]map[uint64]bool),
	}

	seen := make(map[ConflictGroup]bool)
	for i, conflict := range conflicts {
		for _, course := range []uint64{conflict.First, conflict.Second} {
			if course >= courses {
				return nil, &IndexError{Context: fmt.Sprintf("conflict group %d", i), Index: course, Limit: courses}
			}
		}

		// A course trivially shares its slot with itself
		if conflict.First == conflict.Second {
			policy.ignored = append(policy.ignored, conflict)
			continue
		}

		normalized := ConflictGroup{First: min(conflict.First, conflict.Second), Second: max(conflict.First, conflict.Second)}
		if seen[normalized] {
			continue
		}
		seen[normalized] = true
		policy.pairs = append(policy.pairs, normalized)
		policy.conflicting[normalized.First] = true
		policy.conflicting[normalized.Second] = true
	}

	for _, course := range slices.Sorted(maps.Keys(allowed)) {
		slots := allowed[course]
		if course >= courses {
			return nil, &IndexError{Context: "allowed-slot restriction", Index: course, Limit: courses}
		}
		policy.allowed[course] = make(map[uint64]bool, len(slots))
		for _, slot := range slots {
			if slot >= policy.slots {
				return nil, &IndexError{Context: fmt.Sprintf("allowed slots of course %d", course), Index: slot, Limit: policy.slots}
			}
			policy.allowed[course][slot] = true
		}
	}

	return policy, nil
}

// Pairs returns the normalized (First < Second) distinct conflict pairs in input order
func (policy *ConflictPolicy) Pairs() []ConflictGroup {
	return policy.pairs
}

// Ignored returns the self-referencing conflict groups that were dropped
func (policy *ConflictPolicy) Ignored() []ConflictGroup {
	return policy.ignored
}

func (policy *ConflictPolicy) Conflicting(course uint64) bool {
	return policy.conflicting[course]
}

func (policy *ConflictPolicy) Restricted(course uint64) bool {
	_, ok := policy.allowed[course]
	return ok
}

func (policy *ConflictPolicy) Allowed(course, slot uint64) bool {
	if slot >= policy.slots {
		return false
	}
	if restriction, ok := policy.allowed[course]; ok {
		return restriction[slot]
	}
	return true
}

// RestrictedCourses returns the courses with an allowed-slot restriction in ascending order
func (policy *ConflictPolicy) RestrictedCourses() []uint64 {
	return slices.Sorted(maps.Keys(policy.allowed))
}

// ConflictClauses produces x[a,s] + x[b,s] <= capacity for every conflict pair and slot
func (policy *ConflictPolicy) ConflictClauses(indexer Indexer, capacity float64) []lp.Constraint {
	clauses := make([]lp.Constraint, 0, len(policy.pairs)*int(policy.slots))
	for _, pair := range policy.pairs {
		for slot := range policy.slots {
			clauses = append(clauses, lp.Constraint{
				Name: fmt.Sprintf("conflict_%d_%d_slot_%d", pair.First, pair.Second, slot),
				Terms: []lp.Term{
					{Variable: int(indexer.Index(pair.First, slot)), Coefficient: 1},
					{Variable: int(indexer.Index(pair.Second, slot)), Coefficient: 1},
				},
				Sense: lp.LessEqual,
				RHS:   capacity,
			})
		}
	}
	return clauses
}

// AllowedSlotClauses forces x[course,s] = 0 on every slot outside the course's allowed set
func (policy *ConflictPolicy) AllowedSlotClauses(course uint64, indexer Indexer) []lp.Constraint {
	if !policy.Restricted(course) {
		return nil
	}
	clauses := make([]lp.Constraint, 0, policy.slots)
	for slot := range policy.slots {
		if policy.Allowed(course, slot) {
			continue
		}
		clauses = append(clauses, lp.Constraint{
			Name:  fmt.Sprintf("allowed_%d_slot_%d", course, slot),
			Terms: []lp.Term{{Variable: int(indexer.Index(course, slot)), Coefficient: 1}},
			Sense: lp.Equal,
			RHS:   0,
		})
	}
	return clauses
}

// MovementPenaltyClauses caps a conflicting course at every slot other than its hinted one h by one unit below its
// value at h: x[c,s] - x[c,h] <= -1. Only meaningful for continuous variables.
func (policy *ConflictPolicy) MovementPenaltyClauses(indexer Indexer, hints map[uint64]uint64) []lp.Constraint {
	clauses := make([]lp.Constraint, 0)
	for course := range policy.courses {
		hint, ok := hints[course]
		if !ok || !policy.conflicting[course] || hint >= policy.slots {
			continue
		}
		for slot := range policy.slots {
			if slot == hint {
				continue
			}
			clauses = append(clauses, lp.Constraint{
				Name: fmt.Sprintf("penalty_%d_slot_%d", course, slot),
				Terms: []lp.Term{
					{Variable: int(indexer.Index(course, slot)), Coefficient: 1},
					{Variable: int(indexer.Index(course, hint)), Coefficient: -1},
				},
				Sense: lp.LessEqual,
				RHS:   -1,
			})
		}
	}
	return clauses
}
