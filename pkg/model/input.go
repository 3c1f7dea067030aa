package model

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"github.com/mitchellh/mapstructure"
	"github.com/samber/lo"
)

const (
	DefaultBaseScore     = 1.0
	DefaultElevatedScore = 10.0
)

type Course struct {
	Id   uint64
	Name string
}

type TimeSlot struct {
	Id     uint64
	Day    uint64
	Period uint64
	Name   string
}

// Preference is a hinted (course, slot) pair, e.g. the department chair's desired schedule
type Preference struct {
	Course uint64
	Slot   uint64
}

// ConflictGroup is an unordered pair of courses that must not share a slot
type ConflictGroup struct {
	First  uint64
	Second uint64
}

type Problem struct {
	Courses       []Course
	Slots         []TimeSlot
	Days          uint64 // Zero unless slots are decomposed into day×period
	Periods       uint64
	Preferences   []Preference
	Conflicts     []ConflictGroup
	AllowedSlots  map[uint64][]uint64 // Absent courses may use every slot
	BaseScore     float64
	ElevatedScore float64
}

func (problem Problem) DayDecomposed() bool {
	return problem.Days > 0 && problem.Periods > 0
}

// Hints returns the first in-range preferred slot of each course
func (problem Problem) Hints() map[uint64]uint64 {
	hints := make(map[uint64]uint64)
	for _, preference := range problem.Preferences {
		if preference.Course >= uint64(len(problem.Courses)) || preference.Slot >= uint64(len(problem.Slots)) {
			continue
		}
		if _, ok := hints[preference.Course]; !ok {
			hints[preference.Course] = preference.Slot
		}
	}
	return hints
}

type RawPreference struct {
	Course uint64
	Slot   uint64
	Day    uint64
	Period uint64
}

type RawRestriction struct {
	Course uint64
	Slots  []uint64
}

type RawProblem struct {
	Courses       []Course
	Slots         []string // Flat slot names
	Days          []string // Day and period names, used instead of Slots for day×period problems
	Periods       []string
	Preferences   []RawPreference
	Conflicts     []ConflictGroup
	AllowedSlots  []RawRestriction
	BaseScore     *float64
	ElevatedScore *float64
}

func InputFromJson(file string) (Problem, error) {
	bytes, err := os.ReadFile(file)
	if err != nil {
		return Problem{}, err
	}
	var inputJson map[string]any
	if err := json.Unmarshal(bytes, &inputJson); err != nil {
		return Problem{}, err
	}

	var rawInput RawProblem
	if err := mapstructure.Decode(inputJson, &rawInput); err != nil {
		return Problem{}, fmt.Errorf("cannot decode problem %v: %w", file, err)
	}
	return ProcessRawInput(rawInput)
}

func ProcessRawInput(rawInput RawProblem) (Problem, error) {
	problem := Problem{
		Courses:       rawInput.Courses,
		Conflicts:     rawInput.Conflicts,
		BaseScore:     DefaultBaseScore,
		ElevatedScore: DefaultElevatedScore,
	}

	//** Manage courses
	// Course ids double as indices
	for i, course := range rawInput.Courses {
		if course.Id != uint64(i) {
			return Problem{}, fmt.Errorf("course \"%v\" has id %d but is declared at position %d", course.Name, course.Id, i)
		}
	}

	//** Manage slots
	if len(rawInput.Slots) > 0 && (len(rawInput.Days) > 0 || len(rawInput.Periods) > 0) {
		return Problem{}, fmt.Errorf("slots must be given either as a flat list or as days and periods, not both")
	} else if (len(rawInput.Days) > 0) != (len(rawInput.Periods) > 0) {
		return Problem{}, fmt.Errorf("day×period slots need both days and periods: got %d days and %d periods", len(rawInput.Days), len(rawInput.Periods))
	}

	if len(rawInput.Days) > 0 {
		problem.Days, problem.Periods = uint64(len(rawInput.Days)), uint64(len(rawInput.Periods))
		indexer := NewSlotIndexer(problem.Days, problem.Periods)
		for day, dayName := range rawInput.Days {
			for period, periodName := range rawInput.Periods {
				problem.Slots = append(problem.Slots, TimeSlot{
					Id:     indexer.Slot(uint64(day), uint64(period)),
					Day:    uint64(day),
					Period: uint64(period),
					Name:   fmt.Sprintf("%v %v", dayName, periodName),
				})
			}
		}
	} else {
		problem.Slots = lo.Map(rawInput.Slots, func(name string, i int) TimeSlot {
			return TimeSlot{Id: uint64(i), Name: name}
		})
	}

	//** Manage preferences
	// Day×period preferences outside the grid are mapped past the last slot so that they are ignored like any other
	// out-of-range preference instead of wrapping into a neighbouring day
	totalSlots := uint64(len(problem.Slots))
	problem.Preferences = lo.Map(rawInput.Preferences, func(preference RawPreference, _ int) Preference {
		if !problem.DayDecomposed() {
			return Preference{Course: preference.Course, Slot: preference.Slot}
		}
		if preference.Day >= problem.Days || preference.Period >= problem.Periods {
			return Preference{Course: preference.Course, Slot: totalSlots}
		}
		return Preference{Course: preference.Course, Slot: NewSlotIndexer(problem.Days, problem.Periods).Slot(preference.Day, preference.Period)}
	})

	//** Manage allowed slots
	if len(rawInput.AllowedSlots) > 0 {
		problem.AllowedSlots = make(map[uint64][]uint64)
	}
	for _, restriction := range rawInput.AllowedSlots {
		if _, ok := problem.AllowedSlots[restriction.Course]; ok {
			return Problem{}, fmt.Errorf("duplicate allowed-slot restriction for course %d", restriction.Course)
		}
		slots := slices.Clone(restriction.Slots)
		slices.Sort(slots)
		problem.AllowedSlots[restriction.Course] = slices.Compact(slots)
	}

	//** Manage scores
	if rawInput.BaseScore != nil {
		problem.BaseScore = *rawInput.BaseScore
	}
	if rawInput.ElevatedScore != nil {
		problem.ElevatedScore = *rawInput.ElevatedScore
	}
	if problem.BaseScore < 0 || problem.ElevatedScore < 0 {
		return Problem{}, fmt.Errorf("scores must be non-negative: base %v, elevated %v", problem.BaseScore, problem.ElevatedScore)
	}

	return problem, nil
}
