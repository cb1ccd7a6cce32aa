package export

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"

	"github.com/campusgrid/timetabling/pkg/model"
)

// ScheduleRow is one placed session as written to CSV
type ScheduleRow struct {
	Day        string `csv:"day"`
	Start      string `csv:"start"`
	Slot       int    `csv:"slot"`
	Units      int    `csv:"units"`
	Session    string `csv:"session"`
	Course     string `csv:"course"`
	Kind       string `csv:"kind"`
	Instructor string `csv:"instructor"`
	Room       string `csv:"room"`
}

// UnplaceableRow is one session the scheduler could not place
type UnplaceableRow struct {
	Session string `csv:"session"`
	Rule    string `csv:"rule"`
	Reason  string `csv:"reason"`
}

func scheduleRows(schedule *model.Schedule) []*ScheduleRow {
	rows := make([]*ScheduleRow, 0, len(schedule.Placements))
	for _, placement := range schedule.Placements {
		start := ""
		if placement.Slot >= 0 && placement.Slot < len(schedule.Grid.Periods) {
			start = schedule.Grid.Periods[placement.Slot].Start
		}
		rows = append(rows, &ScheduleRow{
			Day:        placement.Day.String(),
			Start:      start,
			Slot:       placement.Slot,
			Units:      placement.Session.Units,
			Session:    placement.Session.Key(),
			Course:     placement.Session.Course,
			Kind:       string(placement.Session.Kind),
			Instructor: placement.Session.Instructor,
			Room:       placement.Room,
		})
	}
	return rows
}

// WriteScheduleCSV writes one row per placement, in schedule order
func WriteScheduleCSV(out io.Writer, schedule *model.Schedule) error {
	rows := scheduleRows(schedule)
	if err := gocsv.Marshal(&rows, out); err != nil {
		return fmt.Errorf("marshal schedule csv: %w", err)
	}
	return nil
}

func WriteUnplaceableCSV(out io.Writer, schedule *model.Schedule) error {
	rows := make([]*UnplaceableRow, 0, len(schedule.Unplaceable))
	for _, entry := range schedule.Unplaceable {
		rows = append(rows, &UnplaceableRow{Session: entry.Session.Key(), Rule: string(entry.Rule), Reason: entry.Reason})
	}
	if err := gocsv.Marshal(&rows, out); err != nil {
		return fmt.Errorf("marshal unplaceable csv: %w", err)
	}
	return nil
}

func WriteFacultyLoadCSV(out io.Writer, schedule *model.Schedule, modelInput model.ModelInput) error {
	loads := schedule.FacultyLoads(modelInput)
	if err := gocsv.Marshal(&loads, out); err != nil {
		return fmt.Errorf("marshal faculty load csv: %w", err)
	}
	return nil
}
