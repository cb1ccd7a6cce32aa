package model

import (
	"slices"
	"strings"

	"github.com/samber/lo"
)

type Placement struct {
	Session Session `json:"session"`
	Day     Day     `json:"day"`
	Slot    int     `json:"slot"`
	Room    string  `json:"room,omitempty"`
}

// Slots covered by the placement
func (placement Placement) Covers() []TimeSlot {
	slots := make([]TimeSlot, 0, placement.Session.Units)
	for unit, limit := 0, placement.Session.Units; unit < limit; unit++ {
		slots = append(slots, TimeSlot{Day: placement.Day, Slot: placement.Slot + unit})
	}
	return slots
}

// Unplaceable reports a session the scheduler could not place and the rule that rejected it most often
type Unplaceable struct {
	Session Session `json:"session"`
	Rule    Rule    `json:"rule"`
	Reason  string  `json:"reason"`
}

type Schedule struct {
	Grid            Grid              `json:"grid"`
	Options         DerivationOptions `json:"options"`
	Placements      []Placement       `json:"placements"`  // Sorted by day, slot and session
	Unplaceable     []Unplaceable     `json:"unplaceable"` // Sorted by session
	Partial         bool              `json:"partial"`
	BudgetExhausted bool              `json:"budgetExhausted"`
	NodesExpanded   int               `json:"nodesExpanded"`
	Score           Score             `json:"score"`
}

type CellType string

const (
	CellLunch   CellType = "lunch"
	CellSession CellType = "session"
	CellIdle    CellType = "idle"
)

// Label of idle class slots, left for study time
const IdleLabel = "Available"

type Cell struct {
	Slot       int         `json:"slot"`
	Start      string      `json:"start"`
	Minutes    int         `json:"minutes"`
	Type       CellType    `json:"type"`
	Label      string      `json:"label,omitempty"`
	Placements []Placement `json:"placements,omitempty"`
}

type DayTimetable struct {
	Day   Day    `json:"day"`
	Cells []Cell `json:"cells"`
}

// Timetable lays the placements out as an ordered per-day, per-slot grid
func (schedule *Schedule) Timetable() []DayTimetable {
	cells := make(map[TimeSlot][]Placement)
	for _, placement := range schedule.Placements {
		for _, slot := range placement.Covers() {
			cells[slot] = append(cells[slot], placement)
		}
	}

	timetable := make([]DayTimetable, 0, len(schedule.Grid.Days))
	for _, day := range schedule.Grid.Days {
		row := DayTimetable{Day: day, Cells: make([]Cell, 0, len(schedule.Grid.Periods))}
		for _, period := range schedule.Grid.Periods {
			cell := Cell{Slot: period.Index, Start: period.Start, Minutes: period.Minutes}
			placements := cells[TimeSlot{Day: day, Slot: period.Index}]
			switch {
			case period.Type == SlotLunch:
				cell.Type, cell.Label = CellLunch, "Lunch"
			case len(placements) > 0:
				cell.Type, cell.Placements = CellSession, placements
				cell.Label = strings.Join(lo.Map(placements, func(placement Placement, _ int) string { return placement.Session.Key() }), ", ")
			default:
				cell.Type, cell.Label = CellIdle, IdleLabel
			}
			row.Cells = append(row.Cells, cell)
		}
		timetable = append(timetable, row)
	}
	return timetable
}

type FacultyLoad struct {
	Id          string  `json:"id" csv:"id"`
	Name        string  `json:"name" csv:"name"`
	Assigned    int     `json:"assigned" csv:"assigned"`
	MaxLoad     int     `json:"maxLoad" csv:"max_load"`
	Utilisation float64 `json:"utilisation" csv:"utilisation"` // Assigned over maximum load, 0 when the maximum is 0
}

// FacultyLoads reports the weekly slot-units assigned to every faculty member of the snapshot
func (schedule *Schedule) FacultyLoads(modelInput ModelInput) []FacultyLoad {
	assigned := make(map[string]int)
	for _, placement := range schedule.Placements {
		if placement.Session.NeedsInstructor() {
			assigned[placement.Session.Instructor] += placement.Session.Units
		}
	}

	loads := make([]FacultyLoad, 0, len(modelInput.Faculty))
	for _, member := range modelInput.Faculty {
		load := FacultyLoad{Id: member.Id, Name: member.Name, Assigned: assigned[member.Id], MaxLoad: member.MaxLoad}
		if member.MaxLoad > 0 {
			load.Utilisation = float64(load.Assigned) / float64(member.MaxLoad)
		}
		loads = append(loads, load)
	}
	return loads
}

// Placements taught by the given instructor, in schedule order
func (schedule *Schedule) ByInstructor(instructor string) []Placement {
	placements := make([]Placement, 0)
	for _, placement := range schedule.Placements {
		if placement.Session.Instructor == instructor {
			placements = append(placements, placement)
		}
	}
	return placements
}

// Keys of the unplaceable sessions, sorted
func (schedule *Schedule) UnplaceableKeys() []string {
	keys := make([]string, 0, len(schedule.Unplaceable))
	for _, unplaceable := range schedule.Unplaceable {
		keys = append(keys, unplaceable.Session.Key())
	}
	slices.Sort(keys)
	return keys
}
