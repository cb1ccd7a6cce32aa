package model

// predicateEvaluator answers the static questions about the snapshot, i.e. the ones that do not depend on the partial assignment
type predicateEvaluator interface {
	// Checks whether the session, starting at the given slot, ends inside the day
	InGrid(session Session, slot int) bool

	// Checks whether none of the slots covered by the session (starting at the given slot) is the lunch break
	ClearOfLunch(session Session, slot int) bool

	// Checks whether the instructor is available at the given day position and slot
	InstructorAvailable(instructor string, day, slot int) bool

	// Checks whether the room has the type the session needs and the course's registered students fit in it
	Fits(session Session, room Room) bool

	// Returns the instructor's maximum weekly load in slot-units
	MaxLoad(instructor string) int
}
