package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campusgrid/timetabling/pkg/model"
)

type courseRow struct {
	Code              string `db:"code"`
	Name              string `db:"name"`
	InstructorID      string `db:"instructor_id"`
	Semester          string `db:"semester"`
	RegistrationCount int    `db:"registration_count"`
	Lecture           int    `db:"lecture"`
	Tutorial          int    `db:"tutorial"`
	Practical         int    `db:"practical"`
	SelfStudy         int    `db:"self_study"`
}

type facultyRow struct {
	ID      string `db:"id"`
	Name    string `db:"name"`
	MaxLoad int    `db:"max_load"`
}

type unavailabilityRow struct {
	FacultyID string `db:"faculty_id"`
	Day       string `db:"day_of_week"`
	Slot      int    `db:"slot"`
}

type roomRow struct {
	ID       string `db:"id"`
	Capacity int    `db:"capacity"`
	Type     string `db:"room_type"`
}

type runRow struct {
	ID              string    `db:"id"`
	Semester        string    `db:"semester"`
	Partial         bool      `db:"partial"`
	BudgetExhausted bool      `db:"budget_exhausted"`
	NodesExpanded   int       `db:"nodes_expanded"`
	Score           float64   `db:"score"`
	CreatedAt       time.Time `db:"created_at"`
}

type placementRow struct {
	RunID        string `db:"run_id"`
	SessionKey   string `db:"session_key"`
	CourseCode   string `db:"course_code"`
	Kind         string `db:"kind"`
	Ordinal      int    `db:"ordinal"`
	Units        int    `db:"units"`
	InstructorID string `db:"instructor_id"`
	Day          string `db:"day_of_week"`
	Slot         int    `db:"slot"`
	Room         string `db:"room"`
}

type unplaceableRow struct {
	RunID      string `db:"run_id"`
	SessionKey string `db:"session_key"`
	Rule       string `db:"rule"`
	Reason     string `db:"reason"`
}

// SnapshotStore reads the scheduling snapshot of a semester and persists computed schedules.
type SnapshotStore struct {
	db *sqlx.DB
}

func NewSnapshotStore(db *sqlx.DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

// LoadSnapshot reads the courses offered in the semester together with every faculty member and room.
// The snapshot goes through the same validation as file or request input.
func (s *SnapshotStore) LoadSnapshot(ctx context.Context, semester string) (model.ModelInput, error) {
	var courses []courseRow
	const courseQuery = `SELECT code, name, instructor_id, semester, registration_count, lecture, tutorial, practical, self_study FROM courses WHERE semester = $1 ORDER BY code`
	if err := s.db.SelectContext(ctx, &courses, courseQuery, semester); err != nil {
		return model.ModelInput{}, fmt.Errorf("list courses: %w", err)
	}

	var faculty []facultyRow
	const facultyQuery = `SELECT id, name, max_load FROM faculty ORDER BY id`
	if err := s.db.SelectContext(ctx, &faculty, facultyQuery); err != nil {
		return model.ModelInput{}, fmt.Errorf("list faculty: %w", err)
	}

	var unavailability []unavailabilityRow
	const unavailabilityQuery = `SELECT faculty_id, day_of_week, slot FROM faculty_unavailability ORDER BY faculty_id, day_of_week, slot`
	if err := s.db.SelectContext(ctx, &unavailability, unavailabilityQuery); err != nil {
		return model.ModelInput{}, fmt.Errorf("list faculty unavailability: %w", err)
	}

	var rooms []roomRow
	const roomQuery = `SELECT id, capacity, room_type FROM rooms ORDER BY id`
	if err := s.db.SelectContext(ctx, &rooms, roomQuery); err != nil {
		return model.ModelInput{}, fmt.Errorf("list rooms: %w", err)
	}

	rawInput, err := toRawInput(courses, faculty, unavailability, rooms)
	if err != nil {
		return model.ModelInput{}, err
	}
	return model.ProcessRawInput(rawInput)
}

func toRawInput(courses []courseRow, faculty []facultyRow, unavailability []unavailabilityRow, rooms []roomRow) (model.RawModelInput, error) {
	slots := make(map[string][]model.TimeSlot)
	for _, row := range unavailability {
		day, err := model.ParseDay(row.Day)
		if err != nil {
			return model.RawModelInput{}, fmt.Errorf("faculty %s unavailability: %w", row.FacultyID, err)
		}
		slots[row.FacultyID] = append(slots[row.FacultyID], model.TimeSlot{Day: day, Slot: row.Slot})
	}

	rawInput := model.RawModelInput{
		Courses: make([]model.Course, 0, len(courses)),
		Faculty: make([]model.Faculty, 0, len(faculty)),
		Rooms:   make([]model.Room, 0, len(rooms)),
	}
	for _, row := range courses {
		rawInput.Courses = append(rawInput.Courses, model.Course{
			Code:              row.Code,
			Name:              row.Name,
			Instructor:        row.InstructorID,
			Semester:          row.Semester,
			RegistrationCount: row.RegistrationCount,
			Lecture:           row.Lecture,
			Tutorial:          row.Tutorial,
			Practical:         row.Practical,
			SelfStudy:         row.SelfStudy,
		})
	}
	for _, row := range faculty {
		rawInput.Faculty = append(rawInput.Faculty, model.Faculty{
			Id:          row.ID,
			Name:        row.Name,
			MaxLoad:     row.MaxLoad,
			Unavailable: slots[row.ID],
		})
	}
	for _, row := range rooms {
		rawInput.Rooms = append(rawInput.Rooms, model.Room{Id: row.ID, Capacity: row.Capacity, Type: model.RoomType(row.Type)})
	}
	return rawInput, nil
}

// SaveSchedule persists a computed schedule as a new run of the semester and returns the run id.
func (s *SnapshotStore) SaveSchedule(ctx context.Context, semester string, schedule *model.Schedule) (runID string, err error) {
	if schedule == nil {
		return "", fmt.Errorf("nil schedule provided")
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin save schedule: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	run := runRow{
		ID:              uuid.NewString(),
		Semester:        semester,
		Partial:         schedule.Partial,
		BudgetExhausted: schedule.BudgetExhausted,
		NodesExpanded:   schedule.NodesExpanded,
		Score:           schedule.Score.Total,
		CreatedAt:       time.Now().UTC(),
	}
	const runQuery = `INSERT INTO schedule_runs (id, semester, partial, budget_exhausted, nodes_expanded, score, created_at) VALUES (:id, :semester, :partial, :budget_exhausted, :nodes_expanded, :score, :created_at)`
	if _, err = sqlx.NamedExecContext(ctx, tx, runQuery, run); err != nil {
		return "", fmt.Errorf("insert schedule run: %w", err)
	}

	if err = insertPlacements(ctx, tx, run.ID, schedule.Placements); err != nil {
		return "", err
	}
	if err = insertUnplaceable(ctx, tx, run.ID, schedule.Unplaceable); err != nil {
		return "", err
	}

	if err = tx.Commit(); err != nil {
		return "", fmt.Errorf("commit save schedule: %w", err)
	}
	return run.ID, nil
}

func insertPlacements(ctx context.Context, exec sqlx.ExtContext, runID string, placements []model.Placement) error {
	const query = `INSERT INTO schedule_placements (run_id, session_key, course_code, kind, ordinal, units, instructor_id, day_of_week, slot, room) VALUES (:run_id, :session_key, :course_code, :kind, :ordinal, :units, :instructor_id, :day_of_week, :slot, :room)`
	for _, placement := range placements {
		row := placementRow{
			RunID:        runID,
			SessionKey:   placement.Session.Key(),
			CourseCode:   placement.Session.Course,
			Kind:         string(placement.Session.Kind),
			Ordinal:      placement.Session.Ordinal,
			Units:        placement.Session.Units,
			InstructorID: placement.Session.Instructor,
			Day:          placement.Day.String(),
			Slot:         placement.Slot,
			Room:         placement.Room,
		}
		if _, err := sqlx.NamedExecContext(ctx, exec, query, row); err != nil {
			return fmt.Errorf("insert placement %s: %w", row.SessionKey, err)
		}
	}
	return nil
}

func insertUnplaceable(ctx context.Context, exec sqlx.ExtContext, runID string, unplaceable []model.Unplaceable) error {
	const query = `INSERT INTO schedule_unplaceable (run_id, session_key, rule, reason) VALUES (:run_id, :session_key, :rule, :reason)`
	for _, entry := range unplaceable {
		row := unplaceableRow{
			RunID:      runID,
			SessionKey: entry.Session.Key(),
			Rule:       string(entry.Rule),
			Reason:     entry.Reason,
		}
		if _, err := sqlx.NamedExecContext(ctx, exec, query, row); err != nil {
			return fmt.Errorf("insert unplaceable %s: %w", row.SessionKey, err)
		}
	}
	return nil
}
