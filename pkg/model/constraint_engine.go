package model

import (
	"fmt"
	"slices"
)

// Rule names the hard constraint a placement breaks
type Rule string

const (
	RuleOutOfGrid              Rule = "out-of-grid"
	RuleLunchBreak             Rule = "lunch-break"
	RuleInstructorUnavailable  Rule = "instructor-unavailable"
	RuleInstructorDoubleBooked Rule = "instructor-double-booked"
	RuleLoadExceeded           Rule = "load-exceeded"
	RuleCourseOverlap          Rule = "course-overlap"
	RuleRoomUnavailable        Rule = "room-unavailable"
	RuleRoomIncompatible       Rule = "room-incompatible"
	RuleRoomDoubleBooked       Rule = "room-double-booked"
	RuleUnknownReference       Rule = "unknown-reference"
	RuleDuplicatePlacement     Rule = "duplicate-placement"
	RuleIncomplete             Rule = "incomplete"
)

var ruleOrder = []Rule{
	RuleUnknownReference,
	RuleDuplicatePlacement,
	RuleOutOfGrid,
	RuleLunchBreak,
	RuleInstructorUnavailable,
	RuleInstructorDoubleBooked,
	RuleLoadExceeded,
	RuleCourseOverlap,
	RuleRoomUnavailable,
	RuleRoomIncompatible,
	RuleRoomDoubleBooked,
	RuleIncomplete,
}

func (rule Rule) order() int {
	if i := slices.Index(ruleOrder, rule); i >= 0 {
		return i
	}
	return len(ruleOrder)
}

// Static rules only depend on the snapshot, the others on the partial assignment
func (rule Rule) static() bool {
	return rule == RuleOutOfGrid || rule == RuleLunchBreak || rule == RuleInstructorUnavailable
}

// Verdict is the answer of the constraint engine for one candidate placement
type Verdict struct {
	Allowed bool
	Rule    Rule
	Reason  string
	Room    string // Room chosen for the placement (empty when rooms are not modeled or the session needs none)

	moves []roomMove // Rooms other sessions must move to so that Room becomes free
}

type roomMove struct {
	session int
	room    string
}

type placementState struct {
	placed    bool
	day, slot int
	room      string
	undo      []roomMove // Rooms held by re-matched sessions before this placement was committed
}

// constraintEngine checks candidate placements against a partial assignment and keeps the usage index up to date
type constraintEngine struct {
	modelInput ModelInput
	evaluator  predicateEvaluator
	indexer    indexer
	sessions   []Session

	state           []placementState
	instructorUsage map[string][]int // Occupying session id + 1 per linear slot index, 0 when free
	courseUsage     map[string][]int
	roomUsage       map[string][]int
	load            map[string]int
	placed          int
}

func newConstraintEngine(modelInput ModelInput, sessions []Session) *constraintEngine {
	indexer := newIndexer(len(modelInput.Grid.Days), modelInput.Grid.PeriodsPerDay())
	engine := &constraintEngine{
		modelInput:      modelInput,
		evaluator:       newPredicateEvaluator(modelInput, indexer),
		indexer:         indexer,
		sessions:        sessions,
		state:           make([]placementState, len(sessions)),
		instructorUsage: make(map[string][]int, len(modelInput.Faculty)),
		courseUsage:     make(map[string][]int, len(modelInput.Courses)),
		roomUsage:       make(map[string][]int, len(modelInput.Rooms)),
		load:            make(map[string]int, len(modelInput.Faculty)),
	}
	for _, member := range modelInput.Faculty {
		engine.instructorUsage[member.Id] = make([]int, indexer.Size())
	}
	for _, course := range modelInput.Courses {
		engine.courseUsage[course.Code] = make([]int, indexer.Size())
	}
	for _, room := range modelInput.Rooms {
		engine.roomUsage[room.Id] = make([]int, indexer.Size())
	}
	return engine
}

func rejected(rule Rule, format string, args ...any) Verdict {
	return Verdict{Rule: rule, Reason: fmt.Sprintf(format, args...)}
}

// Checks the static rules only, i.e. the ones independent of the partial assignment
func (engine *constraintEngine) checkStatic(id, day, slot int) (Verdict, bool) {
	session := engine.sessions[id]
	grid := engine.modelInput.Grid

	if day < 0 || day >= len(grid.Days) || !engine.evaluator.InGrid(session, slot) {
		return rejected(RuleOutOfGrid, "%v needs %d slot(s) from slot %d", session, session.Units, slot), false
	}
	if !engine.evaluator.ClearOfLunch(session, slot) {
		return rejected(RuleLunchBreak, "%v would cover the lunch break on %v", session, grid.Days[day]), false
	}
	if session.NeedsInstructor() {
		for unit, limit := 0, session.Units; unit < limit; unit++ {
			if !engine.evaluator.InstructorAvailable(session.Instructor, day, slot+unit) {
				return rejected(RuleInstructorUnavailable, "%v is unavailable on %v#%d", session.Instructor, grid.Days[day], slot+unit), false
			}
		}
	}
	return Verdict{Allowed: true}, true
}

// Check evaluates the placement of session id at (day position, slot) against the current partial assignment
func (engine *constraintEngine) Check(id, day, slot int) Verdict {
	if verdict, ok := engine.checkStatic(id, day, slot); !ok {
		return verdict
	}

	session := engine.sessions[id]
	grid := engine.modelInput.Grid

	if session.NeedsInstructor() {
		usage := engine.instructorUsage[session.Instructor]
		for unit, limit := 0, session.Units; unit < limit; unit++ {
			index := engine.indexer.Index(day, slot+unit)
			if occupant := usage[index]; occupant != 0 {
				return rejected(RuleInstructorDoubleBooked, "%v already teaches %v on %v", session.Instructor, engine.sessions[occupant-1], engine.describe(index))
			}
		}
		if maxLoad := engine.evaluator.MaxLoad(session.Instructor); engine.load[session.Instructor]+session.Units > maxLoad {
			return rejected(RuleLoadExceeded, "%v would teach %d slot-units, above the maximum load of %d", session.Instructor, engine.load[session.Instructor]+session.Units, maxLoad)
		}
	}

	usage := engine.courseUsage[session.Course]
	for unit, limit := 0, session.Units; unit < limit; unit++ {
		index := engine.indexer.Index(day, slot+unit)
		if occupant := usage[index]; occupant != 0 {
			return rejected(RuleCourseOverlap, "%v already meets for %v on %v", session.Course, engine.sessions[occupant-1], engine.describe(index))
		}
	}

	if !engine.modelInput.RoomsModeled() || !session.NeedsRoom() {
		return Verdict{Allowed: true}
	}
	room, moves, ok := engine.findRoom(id, day, slot)
	if !ok {
		return rejected(RuleRoomUnavailable, "no free %v for %v on %v#%d", session.RoomType(), session, grid.Days[day], slot)
	}
	return Verdict{Allowed: true, Room: room, moves: moves}
}

// Renders a linear slot index as day#slot
func (engine *constraintEngine) describe(index int) string {
	day, slot := engine.indexer.Attributes(index)
	return fmt.Sprintf("%v#%d", engine.modelInput.Grid.Days[day], slot)
}

// Picks the smallest compatible room free on every covered slot, re-matching the slot's rooms when none is left
func (engine *constraintEngine) findRoom(id, day, slot int) (string, []roomMove, bool) {
	session := engine.sessions[id]
	for _, room := range engine.modelInput.Rooms {
		if !engine.evaluator.Fits(session, room) {
			continue
		}
		free := true
		for unit, limit := 0, session.Units; unit < limit; unit++ {
			if engine.roomUsage[room.Id][engine.indexer.Index(day, slot+unit)] != 0 {
				free = false
				break
			}
		}
		if free {
			return room.Id, nil, true
		}
	}

	// Multi-unit sessions would need a consistent room across several slots, so they are never re-matched
	if session.Units != 1 {
		return "", nil, false
	}
	return engine.rematchRooms(id, day, slot)
}

func (engine *constraintEngine) rematchRooms(id, day, slot int) (string, []roomMove, bool) {
	index := engine.indexer.Index(day, slot)

	movable := []int{id}
	free := make([]Room, 0, len(engine.modelInput.Rooms))
	for _, room := range engine.modelInput.Rooms {
		occupant := engine.roomUsage[room.Id][index]
		if occupant == 0 {
			free = append(free, room)
			continue
		}
		// Rooms held by multi-unit sessions stay where they are
		if engine.sessions[occupant-1].Units == 1 {
			movable = append(movable, occupant-1)
			free = append(free, room)
		}
	}

	assignment, err := assignRooms(movable, free, func(session int, room Room) bool {
		return engine.evaluator.Fits(engine.sessions[session], room)
	})
	if err != nil {
		return "", nil, false
	}

	moves := make([]roomMove, 0)
	for _, other := range movable[1:] {
		if assignment[other] != engine.state[other].room {
			moves = append(moves, roomMove{session: other, room: assignment[other]})
		}
	}
	return assignment[id], moves, true
}

// Commit places session id as decided by an allowed verdict
func (engine *constraintEngine) Commit(id, day, slot int, verdict Verdict) {
	session := engine.sessions[id]

	undo := make([]roomMove, 0, len(verdict.moves))
	for _, move := range verdict.moves {
		undo = append(undo, roomMove{session: move.session, room: engine.state[move.session].room})
	}
	engine.relocate(verdict.moves)

	engine.state[id] = placementState{placed: true, day: day, slot: slot, room: verdict.Room, undo: undo}
	engine.mark(id, id+1)
	if session.NeedsInstructor() {
		engine.load[session.Instructor] += session.Units
	}
	engine.placed++
}

// Release removes session id and restores the rooms its commit moved
func (engine *constraintEngine) Release(id int) {
	session := engine.sessions[id]
	undo := engine.state[id].undo

	engine.mark(id, 0)
	if session.NeedsInstructor() {
		engine.load[session.Instructor] -= session.Units
	}
	engine.state[id] = placementState{}
	engine.placed--

	engine.relocate(undo)
}

// Forgets every undo log, so later releases leave other sessions' rooms untouched
func (engine *constraintEngine) settle() {
	for id := range engine.state {
		engine.state[id].undo = nil
	}
}

func (engine *constraintEngine) mark(id, value int) {
	session := engine.sessions[id]
	state := engine.state[id]
	for unit, limit := 0, session.Units; unit < limit; unit++ {
		index := engine.indexer.Index(state.day, state.slot+unit)
		if session.NeedsInstructor() {
			engine.instructorUsage[session.Instructor][index] = value
		}
		engine.courseUsage[session.Course][index] = value
		if state.room != "" {
			engine.roomUsage[state.room][index] = value
		}
	}
}

// Moves 1-unit sessions between rooms in two phases, since they may swap rooms among themselves
func (engine *constraintEngine) relocate(moves []roomMove) {
	for _, move := range moves {
		state := engine.state[move.session]
		engine.roomUsage[state.room][engine.indexer.Index(state.day, state.slot)] = 0
	}
	for _, move := range moves {
		state := &engine.state[move.session]
		state.room = move.room
		engine.roomUsage[move.room][engine.indexer.Index(state.day, state.slot)] = move.session + 1
	}
}

func (engine *constraintEngine) isPlaced(id int) bool {
	return engine.state[id].placed
}

// Placements of every placed session, in schedule order
func (engine *constraintEngine) placements() []Placement {
	placements := make([]Placement, 0, engine.placed)
	for id, state := range engine.state {
		if !state.placed {
			continue
		}
		placements = append(placements, Placement{
			Session: engine.sessions[id],
			Day:     engine.modelInput.Grid.Days[state.day],
			Slot:    state.slot,
			Room:    state.room,
		})
	}
	slices.SortFunc(placements, comparePlacements)
	return placements
}
