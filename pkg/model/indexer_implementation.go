package model

type indexerImplementation struct {
	courses uint64
	slots   uint64
}

func (indexer *indexerImplementation) Index(course, slot uint64) uint64 {
	return slot + indexer.slots*course
}

func (indexer *indexerImplementation) Attributes(index uint64) (course, slot uint64) {
	slot = index % indexer.slots
	course = index / indexer.slots
	return course, slot
}

func (indexer *indexerImplementation) Courses() uint64 {
	return indexer.courses
}

func (indexer *indexerImplementation) Slots() uint64 {
	return indexer.slots
}

type slotIndexerImplementation struct {
	days    uint64
	periods uint64
}

func (indexer *slotIndexerImplementation) Slot(day, period uint64) uint64 {
	return period + indexer.periods*day
}

func (indexer *slotIndexerImplementation) DayPeriod(slot uint64) (day, period uint64) {
	period = slot % indexer.periods
	day = slot / indexer.periods
	return day, period
}
