package model

import (
	"fmt"
	"slices"
	"strings"
)

type Day int

const (
	Monday Day = iota
	Tuesday
	Wednesday
	Thursday
	Friday
)

var dayNames = [...]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}

func (day Day) String() string {
	if day < Monday || day > Friday {
		return fmt.Sprintf("Day(%d)", int(day))
	}
	return dayNames[day]
}

func (day Day) Valid() bool {
	return day >= Monday && day <= Friday
}

// ParseDay accepts full English day names and their three-letter abbreviations, case-insensitive
func ParseDay(value string) (Day, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	for i, name := range dayNames {
		lower := strings.ToLower(name)
		if value == lower || value == lower[:3] {
			return Day(i), nil
		}
	}
	return 0, fmt.Errorf("unknown day %q", value)
}

func (day Day) MarshalText() ([]byte, error) {
	if !day.Valid() {
		return nil, fmt.Errorf("cannot marshal invalid day %d", int(day))
	}
	return []byte(day.String()), nil
}

func (day *Day) UnmarshalText(text []byte) error {
	parsed, err := ParseDay(string(text))
	if err != nil {
		return err
	}
	*day = parsed
	return nil
}

type SlotType string

const (
	SlotClass SlotType = "class"
	SlotLunch SlotType = "lunch"
)

const ClassMinutes = 50 // 50-minute class followed by a 10-minute break

type GridConfig struct {
	Days          []Day `json:"days,omitempty" mapstructure:"days"`
	StartHour     int   `json:"startHour" mapstructure:"startHour"`
	EndHour       int   `json:"endHour" mapstructure:"endHour"`
	LunchStart    int   `json:"lunchStart" mapstructure:"lunchStart"`
	LunchDuration int   `json:"lunchDuration" mapstructure:"lunchDuration"`
}

func DefaultGridConfig() GridConfig {
	return GridConfig{
		Days:          []Day{Monday, Tuesday, Wednesday, Thursday, Friday},
		StartHour:     9,
		EndHour:       17,
		LunchStart:    12,
		LunchDuration: 1,
	}
}

// Period is one row of the daily grid; every day of a Grid shares the same periods
type Period struct {
	Index   int      `json:"index"`
	Start   string   `json:"start"`
	Minutes int      `json:"minutes"`
	Type    SlotType `json:"type"`
}

type Grid struct {
	Days    []Day    `json:"days"`
	Periods []Period `json:"periods"`
}

// TimeSlot identifies a single (day, slot-index) cell of the grid
type TimeSlot struct {
	Day  Day `json:"day" mapstructure:"day"`
	Slot int `json:"slot" mapstructure:"slot"`
}

func (slot TimeSlot) String() string {
	return fmt.Sprintf("%v#%d", slot.Day, slot.Slot)
}

func BuildGrid(config GridConfig) (Grid, error) {
	//** Validate days
	if len(config.Days) == 0 {
		return Grid{}, invalid(ErrInvalidGrid, "", "at least one day is required")
	}
	days := slices.Clone(config.Days)
	slices.Sort(days)
	for i, day := range days {
		if !day.Valid() {
			return Grid{}, invalid(ErrInvalidGrid, "", "day %d is outside Monday..Friday", int(day))
		}
		if i > 0 && days[i-1] == day {
			return Grid{}, invalid(ErrInvalidGrid, "", "day %v is listed more than once", day)
		}
	}

	//** Validate hours
	if config.StartHour < 0 || config.EndHour > 24 || config.EndHour <= config.StartHour {
		return Grid{}, invalid(ErrInvalidGrid, "", "hours must satisfy 0 <= start < end <= 24: got %d..%d", config.StartHour, config.EndHour)
	}
	if config.LunchDuration < 0 {
		return Grid{}, invalid(ErrInvalidGrid, "", "lunch duration must not be negative: %d", config.LunchDuration)
	}
	if config.LunchDuration > 0 && (config.LunchStart < config.StartHour || config.LunchStart+config.LunchDuration > config.EndHour) {
		return Grid{}, invalid(ErrInvalidGrid, "", "lunch %d+%dh lies outside %d..%d", config.LunchStart, config.LunchDuration, config.StartHour, config.EndHour)
	}

	//** Build periods, collapsing the lunch hours into a single non-assignable slot
	periods := make([]Period, 0, config.EndHour-config.StartHour)
	classes := 0
	for hour := config.StartHour; hour < config.EndHour; hour++ {
		if config.LunchDuration > 0 && hour == config.LunchStart {
			periods = append(periods, Period{Index: len(periods), Start: clock(hour), Minutes: 60 * config.LunchDuration, Type: SlotLunch})
			hour += config.LunchDuration - 1
			continue
		}
		periods = append(periods, Period{Index: len(periods), Start: clock(hour), Minutes: ClassMinutes, Type: SlotClass})
		classes++
	}
	if classes == 0 {
		return Grid{}, invalid(ErrInvalidGrid, "", "grid has no class slots")
	}

	return Grid{Days: days, Periods: periods}, nil
}

func clock(hour int) string {
	return fmt.Sprintf("%02d:00", hour)
}

func (grid Grid) PeriodsPerDay() int {
	return len(grid.Periods)
}

// Returns the position of the day within the grid (i.e. the canonical day order)
func (grid Grid) DayPosition(day Day) (int, bool) {
	position := slices.Index(grid.Days, day)
	return position, position >= 0
}

func (grid Grid) IsLunch(slot int) bool {
	return slot >= 0 && slot < len(grid.Periods) && grid.Periods[slot].Type == SlotLunch
}

// Number of assignable slot-units per day
func (grid Grid) ClassSlots() int {
	count := 0
	for _, period := range grid.Periods {
		if period.Type == SlotClass {
			count++
		}
	}
	return count
}

func (grid Grid) Contains(slot TimeSlot) bool {
	_, ok := grid.DayPosition(slot.Day)
	return ok && slot.Slot >= 0 && slot.Slot < len(grid.Periods)
}
