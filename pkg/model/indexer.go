package model

// indexer interface is design to give a unique linear index to a (day, slot) cell of the grid and vice versa, so that usage can be kept in flat slices
type indexer interface {
	// Returns a unique index for the day position and slot
	Index(day, slot int) int
	// Returns the day position and slot from a unique index
	Attributes(index int) (day int, slot int)
	// Returns the amount of indices (i.e. days * slots)
	Size() int
}

func newIndexer(days, slots int) indexer {
	return &indexerImplementation{
		days:  days,
		slots: slots,
	}
}
