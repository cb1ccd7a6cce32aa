package model

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

const (
	feasibleTestDirectory   = "testdata/feasible/"
	infeasibleTestDirectory = "testdata/infeasible/"
)

func TestBacktrackingTimetabler(t *testing.T) {
	timetabler := NewBacktrackingTimetabler(DefaultConfig(), nil)

	t.Run("Feasible instances", func(t *testing.T) {
		feasibleExecution(t, timetabler)
	})

	t.Run("Infeasible instances", func(t *testing.T) {
		infeasibleExecution(t, timetabler)
	})
}

func TestGreedyTimetabler(t *testing.T) {
	timetabler := NewGreedyTimetabler(DefaultConfig(), nil)

	t.Run("Infeasible instances", func(t *testing.T) {
		infeasibleExecution(t, timetabler)
	})

	t.Run("Sound on feasible instances", func(t *testing.T) {
		for _, filename := range testFiles(feasibleTestDirectory) {
			input, err := InputFromFile(filename)
			if err != nil {
				log.Fatalf("cannot parse input file: %v", err)
			}

			schedule, err := timetabler.Build(context.Background(), input)

			assert.Nil(t, err)
			assert.Empty(t, timetabler.Verify(schedule, input).Violations, filename)
		}
	})
}

// One room and three morning slots: the only complete assignment puts A in the middle slot, which first-fit placement misses
func chainedRoomInput() RawModelInput {
	return RawModelInput{
		Grid: &GridConfig{Days: []Day{Monday}, StartHour: 9, EndHour: 12},
		Faculty: []Faculty{
			{Id: "FA", Name: "Leslie Lamport", MaxLoad: 5, Unavailable: []TimeSlot{{Day: Monday, Slot: 2}}},
			{Id: "FB", Name: "Butler Lampson", MaxLoad: 5, Unavailable: []TimeSlot{{Day: Monday, Slot: 1}}},
			{Id: "FC", Name: "Tony Hoare", MaxLoad: 5, Unavailable: []TimeSlot{{Day: Monday, Slot: 1}}},
		},
		Rooms: []Room{{Id: "R1", Capacity: 30, Type: LectureHall}},
		Courses: []Course{
			{Code: "A", Name: "Distributed Systems", Instructor: "FA", RegistrationCount: 20, Lecture: 1},
			{Code: "B", Name: "Computer Systems", Instructor: "FB", RegistrationCount: 20, Lecture: 1},
			{Code: "C", Name: "Concurrency", Instructor: "FC", RegistrationCount: 20, Lecture: 1},
		},
	}
}

func placedSlots(schedule *Schedule) map[string]int {
	slots := make(map[string]int, len(schedule.Placements))
	for _, placement := range schedule.Placements {
		slots[placement.Session.Key()] = placement.Slot
	}
	return slots
}

func TestBacktrackingPlacesWhatGreedyMisses(t *testing.T) {
	//** Arrange
	input := mustInput(t, chainedRoomInput())

	//** Act
	backtracking, err := NewBacktrackingTimetabler(DefaultConfig(), nil).Build(context.Background(), input)
	assert.Nil(t, err)
	greedy, err := NewGreedyTimetabler(DefaultConfig(), nil).Build(context.Background(), input)
	assert.Nil(t, err)

	//** Assert
	assert.False(t, backtracking.Partial)
	assert.Empty(t, backtracking.Unplaceable)
	assert.Equal(t, map[string]int{"A/L1": 1, "B/L1": 0, "C/L1": 2}, placedSlots(backtracking))
	assert.True(t, ValidateSchedule(backtracking, input).Valid())

	assert.True(t, greedy.Partial)
	assert.Equal(t, []string{"C/L1"}, greedy.UnplaceableKeys())
	assert.Equal(t, RuleRoomUnavailable, greedy.Unplaceable[0].Rule)
	assert.Empty(t, ValidateSchedule(greedy, input).Violations)
}

func TestBacktrackingLeavesOutSessionWithoutPosition(t *testing.T) {
	//** Arrange
	rawInput := chainedRoomInput()
	rawInput.Faculty = append(rawInput.Faculty, Faculty{Id: "FZ", Name: "Frances Allen", MaxLoad: 5})
	rawInput.Courses = append(rawInput.Courses, Course{Code: "Z", Name: "Compilers Lab", Instructor: "FZ", RegistrationCount: 20, Practical: 1})
	input := mustInput(t, rawInput)

	//** Act
	schedule, err := NewBacktrackingTimetabler(DefaultConfig(), nil).Build(context.Background(), input)

	//** Assert
	assert.Nil(t, err)
	assert.True(t, schedule.Partial)
	assert.False(t, schedule.BudgetExhausted)
	assert.Equal(t, []string{"Z/P1"}, schedule.UnplaceableKeys())
	assert.Equal(t, RuleRoomUnavailable, schedule.Unplaceable[0].Rule)
	assert.Equal(t, map[string]int{"A/L1": 1, "B/L1": 0, "C/L1": 2}, placedSlots(schedule))
	assert.Empty(t, ValidateSchedule(schedule, input).Violations)
}

func TestBacktrackingLeavesOutInstructorOverflow(t *testing.T) {
	//** Arrange
	rawInput := chainedRoomInput()
	rawInput.Rooms = append(rawInput.Rooms, Room{Id: "LAB", Capacity: 30, Type: Lab})
	rawInput.Faculty = append(rawInput.Faculty, Faculty{Id: "FX", Name: "Jim Gray", MaxLoad: 1})
	rawInput.Courses = append(rawInput.Courses, Course{Code: "D", Name: "Transaction Processing", Instructor: "FX", RegistrationCount: 20, Practical: 2})
	input := mustInput(t, rawInput)

	//** Act
	backtracking, err := NewBacktrackingTimetabler(DefaultConfig(), nil).Build(context.Background(), input)
	assert.Nil(t, err)
	greedy, err := NewGreedyTimetabler(DefaultConfig(), nil).Build(context.Background(), input)
	assert.Nil(t, err)

	//** Assert
	assert.Equal(t, []string{"D/P2"}, backtracking.UnplaceableKeys())
	assert.Equal(t, RuleLoadExceeded, backtracking.Unplaceable[0].Rule)
	slots := placedSlots(backtracking)
	assert.Len(t, slots, 4)
	assert.Equal(t, 1, slots["A/L1"])
	assert.Equal(t, 0, slots["B/L1"])
	assert.Equal(t, 2, slots["C/L1"])
	assert.Contains(t, slots, "D/P1")
	assert.Empty(t, ValidateSchedule(backtracking, input).Violations)

	assert.Equal(t, []string{"C/L1", "D/P2"}, greedy.UnplaceableKeys())
}

func feasibleExecution(t *testing.T, timetabler Timetabler) {
	for _, filename := range testFiles(feasibleTestDirectory) {
		//** Arrange
		input, err := InputFromFile(filename)
		if err != nil {
			log.Fatalf("cannot parse input file: %v", err)
		}

		//** Act
		schedule, err := timetabler.Build(context.Background(), input)

		//** Assert
		assert.Nil(t, err)
		assert.NotNil(t, schedule)
		assert.False(t, schedule.Partial, filename)
		assert.Empty(t, schedule.Unplaceable, filename)
		assert.True(t, timetabler.Verify(schedule, input).Valid(), filename)
	}
}

func infeasibleExecution(t *testing.T, timetabler Timetabler) {
	for _, filename := range testFiles(infeasibleTestDirectory) {
		//** Arrange
		input, err := InputFromFile(filename)
		if err != nil {
			log.Fatalf("cannot parse input file: %v", err)
		}

		//** Act
		schedule, err := timetabler.Build(context.Background(), input)

		//** Assert
		assert.Nil(t, err)
		assert.NotNil(t, schedule)
		assert.True(t, schedule.Partial, filename)
		assert.NotEmpty(t, schedule.Unplaceable, filename)
		assert.Empty(t, timetabler.Verify(schedule, input).Violations, filename)
	}
}

func testFiles(directory string) []string {
	entries, err := os.ReadDir(directory)
	if err != nil {
		log.Fatalf("cannot read directory: %v", err)
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		files = append(files, filepath.Join(directory, entry.Name()))
	}
	return files
}
