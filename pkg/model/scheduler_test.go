package model

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustInput(t *testing.T, rawInput RawModelInput) ModelInput {
	t.Helper()
	input, err := ProcessRawInput(rawInput)
	require.NoError(t, err)
	return input
}

func lecture(course, instructor string, ordinal int) Session {
	return Session{Course: course, Kind: Lecture, Ordinal: ordinal, Units: 1, Instructor: instructor}
}

func TestComputeScheduleSingleCourse(t *testing.T) {
	input := mustInput(t, RawModelInput{
		Faculty: []Faculty{{Id: "F1", Name: "Donald Knuth", MaxLoad: 20}},
		Courses: []Course{{Code: "CS100", Name: "Concrete Mathematics", Instructor: "F1", Lecture: 2}},
	})

	schedule, err := ComputeSchedule(context.Background(), input, DefaultConfig(), nil)

	require.NoError(t, err)
	require.Len(t, schedule.Placements, 2)
	first, second := schedule.Placements[0], schedule.Placements[1]
	assert.NotEqual(t, TimeSlot{first.Day, first.Slot}, TimeSlot{second.Day, second.Slot})
	assert.Empty(t, schedule.Unplaceable)
	assert.False(t, schedule.Partial)
	assert.Empty(t, ValidateSchedule(schedule, input).Violations)

	// Spread over distinct days once the improvement pass is done
	assert.NotEqual(t, first.Day, second.Day)
	assert.Equal(t, 0, schedule.Score.Spread)
}

func TestComputeScheduleLoadLimit(t *testing.T) {
	input := mustInput(t, RawModelInput{
		Faculty: []Faculty{{Id: "F1", Name: "Barbara Liskov", MaxLoad: 1}},
		Courses: []Course{{Code: "CS200", Name: "Abstraction", Instructor: "F1", Lecture: 2}},
	})

	schedule, err := ComputeSchedule(context.Background(), input, DefaultConfig(), nil)

	require.NoError(t, err)
	require.Len(t, schedule.Unplaceable, 1)
	assert.Equal(t, RuleLoadExceeded, schedule.Unplaceable[0].Rule)
	assert.Equal(t, "CS200/L2", schedule.Unplaceable[0].Session.Key())
	assert.Len(t, schedule.Placements, 1)
	assert.True(t, schedule.Partial)
	assert.False(t, schedule.BudgetExhausted)
	assert.Empty(t, ValidateSchedule(schedule, input).Violations)
}

func TestComputeScheduleSingleAvailableSlot(t *testing.T) {
	unavailable := make([]TimeSlot, 0)
	for _, day := range []Day{Monday, Tuesday, Wednesday, Thursday, Friday} {
		for slot := 0; slot < 8; slot++ {
			if day == Monday && slot == 0 {
				continue
			}
			unavailable = append(unavailable, TimeSlot{Day: day, Slot: slot})
		}
	}
	input := mustInput(t, RawModelInput{
		Faculty: []Faculty{{Id: "F1", Name: "Grace Hopper", MaxLoad: 20, Unavailable: unavailable}},
		Courses: []Course{
			{Code: "AAA", Name: "First", Instructor: "F1", Lecture: 1},
			{Code: "BBB", Name: "Second", Instructor: "F1", Lecture: 1},
		},
	})

	schedule, err := ComputeSchedule(context.Background(), input, DefaultConfig(), nil)

	require.NoError(t, err)
	require.Len(t, schedule.Placements, 1)
	assert.Equal(t, Placement{Session: lecture("AAA", "F1", 1), Day: Monday, Slot: 0}, schedule.Placements[0])
	require.Len(t, schedule.Unplaceable, 1)
	assert.Equal(t, "BBB/L1", schedule.Unplaceable[0].Session.Key())
	assert.Equal(t, RuleInstructorDoubleBooked, schedule.Unplaceable[0].Rule)
	assert.True(t, schedule.Partial)
	assert.Empty(t, ValidateSchedule(schedule, input).Violations)
}

func TestValidateScheduleDoubleBooking(t *testing.T) {
	input := mustInput(t, RawModelInput{
		Faculty: []Faculty{{Id: "F1", Name: "Alan Kay", MaxLoad: 10}},
		Courses: []Course{
			{Code: "C1", Name: "Smalltalk", Instructor: "F1", Lecture: 1},
			{Code: "C2", Name: "Dynabook", Instructor: "F1", Lecture: 1},
		},
	})
	schedule := &Schedule{
		Grid:    input.Grid,
		Options: DefaultConfig().derivation(),
		Placements: []Placement{
			{Session: lecture("C1", "F1", 1), Day: Tuesday, Slot: 1},
			{Session: lecture("C2", "F1", 1), Day: Tuesday, Slot: 1},
		},
	}

	result := ValidateSchedule(schedule, input)

	require.Len(t, result.Violations, 1)
	violation := result.Violations[0]
	assert.Equal(t, RuleInstructorDoubleBooked, violation.Rule)
	assert.Equal(t, "F1", violation.Subject)
	assert.Equal(t, []string{"C1/L1", "C2/L1"}, violation.Sessions)
	assert.Equal(t, &TimeSlot{Day: Tuesday, Slot: 1}, violation.At)
	assert.False(t, result.Valid())
}

func TestComputeScheduleDeterminism(t *testing.T) {
	input, err := InputFromFile(feasibleTestDirectory + "department.json")
	require.NoError(t, err)

	first, err := ComputeSchedule(context.Background(), input, DefaultConfig(), nil)
	require.NoError(t, err)
	second, err := ComputeSchedule(context.Background(), input, DefaultConfig(), nil)
	require.NoError(t, err)

	firstJson, err := json.Marshal(first)
	require.NoError(t, err)
	secondJson, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(firstJson), string(secondJson))
}

func TestValidateScheduleIdempotence(t *testing.T) {
	input, err := InputFromFile(feasibleTestDirectory + "department.json")
	require.NoError(t, err)
	schedule, err := ComputeSchedule(context.Background(), input, DefaultConfig(), nil)
	require.NoError(t, err)

	// Break the schedule to get a non-trivial result
	schedule.Placements = append(schedule.Placements, schedule.Placements[0])

	first := ValidateSchedule(schedule, input)
	second := ValidateSchedule(schedule, input)
	assert.Equal(t, first, second)
	assert.Len(t, first.Of(RuleDuplicatePlacement), 1)
}

func TestComputeScheduleNodeBudget(t *testing.T) {
	input, err := InputFromFile(feasibleTestDirectory + "department.json")
	require.NoError(t, err)
	config := DefaultConfig()
	config.NodeBudget = 1

	schedule, err := ComputeSchedule(context.Background(), input, config, nil)

	require.NoError(t, err)
	assert.True(t, schedule.BudgetExhausted)
	assert.True(t, schedule.Partial)
	assert.Equal(t, 1, schedule.NodesExpanded)
	assert.Empty(t, ValidateSchedule(schedule, input).Violations)
}

func TestComputeScheduleCancelled(t *testing.T) {
	input, err := InputFromFile(feasibleTestDirectory + "department.json")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	schedule, err := ComputeSchedule(ctx, input, DefaultConfig(), nil)

	assert.Nil(t, schedule)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestComputeScheduleInvalidConfig(t *testing.T) {
	input, err := InputFromFile(feasibleTestDirectory + "single_course.json")
	require.NoError(t, err)

	for _, config := range []Config{
		{NodeBudget: -1},
		{PracticalBlock: -2},
		{LoadPenaltyWeight: -1},
		{ImprovementRounds: -1},
	} {
		_, err := ComputeSchedule(context.Background(), input, config, nil)
		assert.True(t, errors.Is(err, ErrInvalidConfig), "%+v", config)
	}
}

func TestComputeScheduleSelfStudy(t *testing.T) {
	input := mustInput(t, RawModelInput{
		Faculty: []Faculty{{Id: "F1", Name: "Seymour Papert", MaxLoad: 1}},
		Rooms:   []Room{{Id: "R1", Capacity: 20, Type: LectureHall}},
		Courses: []Course{{Code: "ED100", Name: "Mindstorms", Instructor: "F1", RegistrationCount: 20, Lecture: 1, SelfStudy: 2}},
	})
	config := DefaultConfig()
	config.SchedulesSelfStudy = true

	schedule, err := ComputeSchedule(context.Background(), input, config, nil)

	require.NoError(t, err)
	assert.False(t, schedule.Partial)
	assert.Len(t, schedule.Placements, 3)
	for _, placement := range schedule.Placements {
		if placement.Session.Kind == SelfStudy {
			assert.Empty(t, placement.Room)
			assert.Empty(t, placement.Session.Instructor)
		} else {
			assert.Equal(t, "R1", placement.Room)
		}
	}
	assert.True(t, ValidateSchedule(schedule, input).Valid())

	// Without the option the self-study hours are not sessions at all
	schedule, err = ComputeSchedule(context.Background(), input, DefaultConfig(), nil)
	require.NoError(t, err)
	assert.Len(t, schedule.Placements, 1)
	assert.True(t, ValidateSchedule(schedule, input).Valid())
}

func TestComputeScheduleSelfStudyOnlyCourse(t *testing.T) {
	input := mustInput(t, RawModelInput{
		Faculty: []Faculty{{Id: "F1", Name: "Seymour Papert", MaxLoad: 4}},
		Courses: []Course{{Code: "ED200", Name: "Reading Group", Instructor: "F1", SelfStudy: 2}},
	})

	_, err := ComputeSchedule(context.Background(), input, DefaultConfig(), nil)
	assert.True(t, errors.Is(err, ErrInvalidCourse))
	var inputError *InputError
	require.True(t, errors.As(err, &inputError))
	assert.Equal(t, "ED200", inputError.Key)

	config := DefaultConfig()
	config.SchedulesSelfStudy = true
	schedule, err := ComputeSchedule(context.Background(), input, config, nil)
	require.NoError(t, err)
	assert.Len(t, schedule.Placements, 2)
	assert.False(t, schedule.Partial)
}

func TestComputeSchedulePracticalBlocks(t *testing.T) {
	input := mustInput(t, RawModelInput{
		Faculty: []Faculty{{Id: "F1", Name: "Niklaus Wirth", MaxLoad: 10}},
		Rooms: []Room{
			{Id: "R1", Capacity: 40, Type: LectureHall},
			{Id: "LAB", Capacity: 40, Type: Lab},
		},
		Courses: []Course{{Code: "CS210", Name: "Compilers", Instructor: "F1", RegistrationCount: 30, Lecture: 2, Practical: 3}},
	})
	config := DefaultConfig()
	config.PracticalBlock = 2

	schedule, err := ComputeSchedule(context.Background(), input, config, nil)

	require.NoError(t, err)
	assert.False(t, schedule.Partial)
	units := 0
	for _, placement := range schedule.Placements {
		if placement.Session.Kind != Practical {
			continue
		}
		units += placement.Session.Units
		assert.Equal(t, "LAB", placement.Room)
		for _, slot := range placement.Covers() {
			assert.True(t, input.Grid.Contains(slot))
			assert.False(t, input.Grid.IsLunch(slot.Slot))
		}
	}
	assert.Equal(t, 3, units)
	assert.True(t, ValidateSchedule(schedule, input).Valid())
}

func TestComputeScheduleMissingRoomType(t *testing.T) {
	input, err := InputFromFile(infeasibleTestDirectory + "missing_lab.json")
	require.NoError(t, err)

	schedule, err := ComputeSchedule(context.Background(), input, DefaultConfig(), nil)

	require.NoError(t, err)
	assert.Equal(t, []string{"CS210/P1", "CS210/P2"}, schedule.UnplaceableKeys())
	for _, unplaceable := range schedule.Unplaceable {
		assert.Equal(t, RuleRoomUnavailable, unplaceable.Rule)
	}
	assert.Len(t, schedule.Placements, 2)
}

func TestValidateScheduleReportsEveryRule(t *testing.T) {
	input := mustInput(t, RawModelInput{
		Faculty: []Faculty{{Id: "F1", Name: "Edsger Dijkstra", MaxLoad: 1, Unavailable: []TimeSlot{{Day: Wednesday, Slot: 0}}}},
		Rooms:   []Room{{Id: "R1", Capacity: 10, Type: LectureHall}},
		Courses: []Course{{Code: "GO101", Name: "Structured Programming", Instructor: "F1", RegistrationCount: 20, Lecture: 3, Tutorial: 1}},
	})
	schedule := &Schedule{
		Grid:    input.Grid,
		Options: DefaultConfig().derivation(),
		Placements: []Placement{
			{Session: lecture("GO101", "F1", 1), Day: Monday, Slot: 3, Room: "R1"},
			{Session: lecture("GO101", "F1", 2), Day: Wednesday, Slot: 0, Room: "R1"},
			{Session: lecture("GO101", "F1", 3), Day: Monday, Slot: 9},
			{Session: lecture("XX999", "F1", 1), Day: Friday, Slot: 0},
		},
	}

	result := ValidateSchedule(schedule, input)

	rules := make([]Rule, 0)
	for _, violation := range result.Violations {
		rules = append(rules, violation.Rule)
	}
	assert.Equal(t, []Rule{
		RuleUnknownReference,
		RuleOutOfGrid,
		RuleLunchBreak,
		RuleInstructorUnavailable,
		RuleLoadExceeded,
		RuleRoomIncompatible,
		RuleRoomIncompatible,
		RuleIncomplete,
	}, rules)
	assert.Equal(t, "GO101/T1", result.Of(RuleIncomplete)[0].Subject)
}

func TestScheduleTimetable(t *testing.T) {
	input := mustInput(t, RawModelInput{
		Faculty: []Faculty{{Id: "F1", Name: "Donald Knuth", MaxLoad: 20}},
		Courses: []Course{{Code: "CS100", Name: "Concrete Mathematics", Instructor: "F1", Lecture: 1}},
	})
	schedule, err := ComputeSchedule(context.Background(), input, DefaultConfig(), nil)
	require.NoError(t, err)

	timetable := schedule.Timetable()

	require.Len(t, timetable, 5)
	monday := timetable[0]
	assert.Equal(t, Monday, monday.Day)
	require.Len(t, monday.Cells, 8)
	assert.Equal(t, CellSession, monday.Cells[0].Type)
	assert.Equal(t, "CS100/L1", monday.Cells[0].Label)
	assert.Equal(t, CellIdle, monday.Cells[1].Type)
	assert.Equal(t, IdleLabel, monday.Cells[1].Label)
	assert.Equal(t, CellLunch, monday.Cells[3].Type)
	assert.Equal(t, "12:00", monday.Cells[3].Start)
	assert.Equal(t, 60, monday.Cells[3].Minutes)
	for _, row := range timetable[1:] {
		for _, cell := range row.Cells {
			assert.NotEqual(t, CellSession, cell.Type)
		}
	}

	loads := schedule.FacultyLoads(input)
	require.Len(t, loads, 1)
	assert.Equal(t, FacultyLoad{Id: "F1", Name: "Donald Knuth", Assigned: 1, MaxLoad: 20, Utilisation: 0.05}, loads[0])
}
