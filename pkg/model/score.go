package model

// ScoreMatrix holds one score per (course, slot) pair: the base score everywhere except on preferred pairs, which
// carry the elevated score
type ScoreMatrix struct {
	indexer   Indexer
	base      float64
	elevated  float64
	cells     []float64
	preferred []bool
	ignored   []Preference
}

// NewScoreMatrix builds the score matrix. Preferred pairs outside the matrix are ignored rather than rejected, so a
// malformed external schedule cannot abort the build; they are reported by Ignored.
func NewScoreMatrix(courses, slots uint64, base, elevated float64, preferred []Preference) *ScoreMatrix {
	matrix := &ScoreMatrix{
		indexer:   NewIndexer(courses, slots),
		base:      base,
		elevated:  elevated,
		cells:     make([]float64, courses*slots),
		preferred: make([]bool, courses*slots),
	}
	for i := range matrix.cells {
		matrix.cells[i] = base
	}

	for _, preference := range preferred {
		if preference.Course >= courses || preference.Slot >= slots {
			matrix.ignored = append(matrix.ignored, preference)
			continue
		}
		index := matrix.indexer.Index(preference.Course, preference.Slot)
		matrix.cells[index] = elevated
		matrix.preferred[index] = true
	}
	return matrix
}

func (matrix *ScoreMatrix) At(course, slot uint64) float64 {
	return matrix.cells[matrix.indexer.Index(course, slot)]
}

func (matrix *ScoreMatrix) Preferred(course, slot uint64) bool {
	return matrix.preferred[matrix.indexer.Index(course, slot)]
}

func (matrix *ScoreMatrix) Courses() uint64 {
	return matrix.indexer.Courses()
}

func (matrix *ScoreMatrix) Slots() uint64 {
	return matrix.indexer.Slots()
}

// Total sums every cell. It always equals N·T·base + P·(elevated - base), where P counts distinct in-range
// preferred pairs.
func (matrix *ScoreMatrix) Total() float64 {
	total := 0.0
	for _, cell := range matrix.cells {
		total += cell
	}
	return total
}

func (matrix *ScoreMatrix) Ignored() []Preference {
	return matrix.ignored
}
