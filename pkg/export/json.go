package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/samber/lo"

	"github.com/campusgrid/timetabling/pkg/model"
)

// InstructorEntry is one weekly session of an instructor
type InstructorEntry struct {
	Day     model.Day `json:"day"`
	Start   string    `json:"start"`
	Slot    int       `json:"slot"`
	Units   int       `json:"units"`
	Session string    `json:"session"`
	Course  string    `json:"course"`
	Room    string    `json:"room,omitempty"`
}

// InstructorView is the weekly timetable of a single faculty member
type InstructorView struct {
	Id          string            `json:"id"`
	Name        string            `json:"name"`
	Assigned    int               `json:"assigned"`
	MaxLoad     int               `json:"maxLoad"`
	Sessions    []InstructorEntry `json:"sessions"`
	Unplaceable []string          `json:"unplaceable,omitempty"`
}

// ByInstructor groups the schedule per faculty member, in faculty id order
func ByInstructor(schedule *model.Schedule, modelInput model.ModelInput) []InstructorView {
	loads := lo.SliceToMap(schedule.FacultyLoads(modelInput), func(load model.FacultyLoad) (string, model.FacultyLoad) {
		return load.Id, load
	})

	views := make([]InstructorView, 0, len(modelInput.Faculty))
	for _, member := range modelInput.Faculty {
		view := InstructorView{
			Id:       member.Id,
			Name:     member.Name,
			Assigned: loads[member.Id].Assigned,
			MaxLoad:  member.MaxLoad,
			Sessions: lo.Map(schedule.ByInstructor(member.Id), func(placement model.Placement, _ int) InstructorEntry {
				return InstructorEntry{
					Day:     placement.Day,
					Start:   schedule.Grid.Periods[placement.Slot].Start,
					Slot:    placement.Slot,
					Units:   placement.Session.Units,
					Session: placement.Session.Key(),
					Course:  placement.Session.Course,
					Room:    placement.Room,
				}
			}),
		}
		for _, entry := range schedule.Unplaceable {
			if entry.Session.Instructor == member.Id {
				view.Unplaceable = append(view.Unplaceable, entry.Session.Key())
			}
		}
		views = append(views, view)
	}
	return views
}

func WriteInstructorJSON(out io.Writer, schedule *model.Schedule, modelInput model.ModelInput) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(ByInstructor(schedule, modelInput)); err != nil {
		return fmt.Errorf("encode instructor json: %w", err)
	}
	return nil
}
