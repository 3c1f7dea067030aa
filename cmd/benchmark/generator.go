package main

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/limaJavier/coursesched/pkg/model"
	"github.com/samber/lo"
)

// ProblemShape describes one family of random problems
type ProblemShape struct {
	Courses           int
	Slots             int // Ignored when Days and Periods are set
	Days              int
	Periods           int
	ConflictDensity   float64 // Probability that a pair of courses conflicts
	PreferenceRate    float64 // Probability that a course carries a preferred slot
	RestrictionRate   float64 // Probability that a course is limited to a subset of slots
	RestrictionLength int
}

func (shape ProblemShape) slots() int {
	if shape.Days > 0 && shape.Periods > 0 {
		return shape.Days * shape.Periods
	}
	return shape.Slots
}

func (shape ProblemShape) String() string {
	if shape.Days > 0 && shape.Periods > 0 {
		return fmt.Sprintf("c%d-d%dxp%d", shape.Courses, shape.Days, shape.Periods)
	}
	return fmt.Sprintf("c%d-s%d", shape.Courses, shape.Slots)
}

// generateProblem draws a problem of the given shape; equal seeds give equal problems
func generateProblem(shape ProblemShape, seed uint64) model.RawProblem {
	random := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	slots := shape.slots()

	raw := model.RawProblem{
		Courses: lo.Map(lo.Range(shape.Courses), func(course int, _ int) model.Course {
			return model.Course{Id: uint64(course), Name: fmt.Sprintf("course-%d", course)}
		}),
	}
	if shape.Days > 0 && shape.Periods > 0 {
		raw.Days = lo.Map(lo.Range(shape.Days), func(day int, _ int) string { return fmt.Sprintf("day-%d", day) })
		raw.Periods = lo.Map(lo.Range(shape.Periods), func(period int, _ int) string { return fmt.Sprintf("period-%d", period) })
	} else {
		raw.Slots = lo.Map(lo.Range(slots), func(slot int, _ int) string { return fmt.Sprintf("slot-%d", slot) })
	}
	if slots == 0 {
		return raw
	}

	for course := range shape.Courses {
		if random.Float64() < shape.PreferenceRate {
			slot := random.IntN(slots)
			raw.Preferences = append(raw.Preferences, model.RawPreference{
				Course: uint64(course),
				Slot:   uint64(slot),
				Day:    uint64(slot / max(shape.Periods, 1)),
				Period: uint64(slot % max(shape.Periods, 1)),
			})
		}
		if shape.RestrictionLength > 0 && random.Float64() < shape.RestrictionRate {
			raw.AllowedSlots = append(raw.AllowedSlots, model.RawRestriction{
				Course: uint64(course),
				Slots: lo.Map(random.Perm(slots)[:min(shape.RestrictionLength, slots)], func(slot int, _ int) uint64 {
					return uint64(slot)
				}),
			})
		}
		for other := course + 1; other < shape.Courses; other++ {
			if random.Float64() < shape.ConflictDensity {
				raw.Conflicts = append(raw.Conflicts, model.ConflictGroup{First: uint64(course), Second: uint64(other)})
			}
		}
	}
	return raw
}

// writeProblems generates count problems per shape into directory and returns their paths
func writeProblems(directory string, shapes []ProblemShape, count int, seed uint64) ([]string, error) {
	if err := os.MkdirAll(directory, 0755); err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(shapes)*count)
	for _, shape := range shapes {
		for i := range count {
			raw := generateProblem(shape, seed+uint64(i))
			content, err := json.MarshalIndent(raw, "", "  ")
			if err != nil {
				return nil, err
			}
			path := filepath.Join(directory, fmt.Sprintf("%v-%d.json", shape, i))
			if err := os.WriteFile(path, content, 0644); err != nil {
				return nil, err
			}
			paths = append(paths, path)
		}
	}
	return paths, nil
}
