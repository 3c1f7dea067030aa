package model

// Indexer is designed to give a unique dense index to every (course, slot) decision variable and vice versa
type Indexer interface {
	// Returns the variable index of a course placed in a slot
	Index(course, slot uint64) uint64
	// Returns the course and slot of a variable index
	Attributes(index uint64) (course, slot uint64)
	Courses() uint64
	Slots() uint64
}

func NewIndexer(courses, slots uint64) Indexer {
	return &indexerImplementation{
		courses: courses,
		slots:   slots,
	}
}

// SlotIndexer flattens a day×period grid into slot indices
type SlotIndexer interface {
	Slot(day, period uint64) uint64
	DayPeriod(slot uint64) (day, period uint64)
}

func NewSlotIndexer(days, periods uint64) SlotIndexer {
	return &slotIndexerImplementation{
		days:    days,
		periods: periods,
	}
}
