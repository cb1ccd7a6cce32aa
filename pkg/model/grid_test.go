package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDefaultGrid(t *testing.T) {
	grid, err := BuildGrid(DefaultGridConfig())
	require.NoError(t, err)

	assert.Len(t, grid.Days, 5)
	assert.Equal(t, 8, grid.PeriodsPerDay())
	assert.Equal(t, 7, grid.ClassSlots())

	starts := make([]string, 0)
	for _, period := range grid.Periods {
		starts = append(starts, period.Start)
	}
	assert.Equal(t, []string{"09:00", "10:00", "11:00", "12:00", "13:00", "14:00", "15:00", "16:00"}, starts)
	assert.Equal(t, Period{Index: 3, Start: "12:00", Minutes: 60, Type: SlotLunch}, grid.Periods[3])
	assert.Equal(t, ClassMinutes, grid.Periods[0].Minutes)
	assert.True(t, grid.IsLunch(3))
	assert.False(t, grid.IsLunch(8))
}

func TestBuildGridLongLunch(t *testing.T) {
	grid, err := BuildGrid(GridConfig{Days: []Day{Friday, Monday}, StartHour: 8, EndHour: 16, LunchStart: 12, LunchDuration: 2})
	require.NoError(t, err)

	// Lunch hours collapse into a single slot
	assert.Equal(t, []Day{Monday, Friday}, grid.Days)
	assert.Equal(t, 7, grid.PeriodsPerDay())
	assert.Equal(t, 120, grid.Periods[4].Minutes)
	assert.Equal(t, "15:00", grid.Periods[6].Start)

	position, ok := grid.DayPosition(Friday)
	assert.True(t, ok)
	assert.Equal(t, 1, position)
	_, ok = grid.DayPosition(Tuesday)
	assert.False(t, ok)
	assert.False(t, grid.Contains(TimeSlot{Day: Tuesday, Slot: 0}))
}

func TestBuildGridWithoutLunch(t *testing.T) {
	grid, err := BuildGrid(GridConfig{Days: []Day{Monday}, StartHour: 9, EndHour: 12})
	require.NoError(t, err)

	assert.Equal(t, 3, grid.PeriodsPerDay())
	assert.Equal(t, 3, grid.ClassSlots())
}

func TestBuildGridErrors(t *testing.T) {
	configs := []GridConfig{
		{},
		{Days: []Day{Monday}, StartHour: 9, EndHour: 9},
		{Days: []Day{Monday, Monday}, StartHour: 9, EndHour: 17},
		{Days: []Day{Day(6)}, StartHour: 9, EndHour: 17},
		{Days: []Day{Monday}, StartHour: 9, EndHour: 17, LunchStart: 16, LunchDuration: 2},
		{Days: []Day{Monday}, StartHour: 12, EndHour: 13, LunchStart: 12, LunchDuration: 1},
	}
	for _, config := range configs {
		_, err := BuildGrid(config)
		assert.True(t, errors.Is(err, ErrInvalidGrid), "%+v", config)
	}
}

func TestParseDay(t *testing.T) {
	for text, expected := range map[string]Day{"Monday": Monday, "tue": Tuesday, " WEDNESDAY ": Wednesday, "thu": Thursday, "Fri": Friday} {
		day, err := ParseDay(text)
		assert.Nil(t, err)
		assert.Equal(t, expected, day)
	}

	_, err := ParseDay("Sunday")
	assert.Error(t, err)

	text, err := Thursday.MarshalText()
	assert.Nil(t, err)
	assert.Equal(t, "Thursday", string(text))
}

func TestIndexer(t *testing.T) {
	indexer := newIndexer(5, 8)
	assert.Equal(t, 40, indexer.Size())

	seen := make(map[int]bool)
	for day := 0; day < 5; day++ {
		for slot := 0; slot < 8; slot++ {
			index := indexer.Index(day, slot)
			assert.False(t, seen[index])
			seen[index] = true

			gotDay, gotSlot := indexer.Attributes(index)
			assert.Equal(t, day, gotDay)
			assert.Equal(t, slot, gotSlot)
		}
	}
}
