package model

import (
	"fmt"
	"strings"
)

type SessionKind string

const (
	Lecture   SessionKind = "lecture"
	Tutorial  SessionKind = "tutorial"
	Practical SessionKind = "practical"
	SelfStudy SessionKind = "self-study"
)

var sessionKinds = []SessionKind{Lecture, Tutorial, Practical, SelfStudy}

// Letter used in session keys, following the course's L-T-P-S structure
func (kind SessionKind) Letter() string {
	switch kind {
	case Lecture:
		return "L"
	case Tutorial:
		return "T"
	case Practical:
		return "P"
	case SelfStudy:
		return "S"
	}
	return "?"
}

func (kind SessionKind) order() int {
	for i, other := range sessionKinds {
		if other == kind {
			return i
		}
	}
	return len(sessionKinds)
}

// Session is the atom placed by the scheduler: one weekly teaching unit of a course
type Session struct {
	Course     string      `json:"course"`
	Kind       SessionKind `json:"kind"`
	Ordinal    int         `json:"ordinal"`
	Units      int         `json:"units"`
	Instructor string      `json:"instructor,omitempty"` // Empty for self-study sessions
}

func (session Session) Key() string {
	return fmt.Sprintf("%v/%v%d", session.Course, session.Kind.Letter(), session.Ordinal)
}

func (session Session) String() string {
	return session.Key()
}

// Self-study sessions need neither an instructor nor a room
func (session Session) NeedsInstructor() bool {
	return session.Kind != SelfStudy
}

func (session Session) NeedsRoom() bool {
	return session.Kind != SelfStudy
}

// Room type required by the session
func (session Session) RoomType() RoomType {
	if session.Kind == Practical {
		return Lab
	}
	return LectureHall
}

func compareSessions(a, b Session) int {
	if c := strings.Compare(a.Course, b.Course); c != 0 {
		return c
	}
	if a.Kind != b.Kind {
		return a.Kind.order() - b.Kind.order()
	}
	return a.Ordinal - b.Ordinal
}

type DerivationOptions struct {
	SchedulesSelfStudy bool `json:"schedulesSelfStudy"`
	PracticalBlock     int  `json:"practicalBlock"` // Consecutive slot-units per practical session
}

func (options DerivationOptions) practicalBlock() int {
	if options.PracticalBlock < 1 {
		return 1
	}
	return options.PracticalBlock
}

// DeriveSessions converts the weekly requirement counts of a course into its sessions
func DeriveSessions(course Course, options DerivationOptions) ([]Session, error) {
	counts := map[SessionKind]int{
		Lecture:   course.Lecture,
		Tutorial:  course.Tutorial,
		Practical: course.Practical,
		SelfStudy: course.SelfStudy,
	}

	sessions := make([]Session, 0, course.Lecture+course.Tutorial+course.Practical+course.SelfStudy)
	for _, kind := range sessionKinds {
		count := counts[kind]
		if count < 0 {
			return nil, invalid(ErrInvalidCourse, course.Code, "%v count must not be negative: %d", kind, count)
		}
		if kind == SelfStudy && !options.SchedulesSelfStudy {
			continue
		}

		instructor := course.Instructor
		if kind == SelfStudy {
			instructor = ""
		}

		// Practical hours are grouped in blocks, the remainder (if any) becomes a shorter session
		block := 1
		if kind == Practical {
			block = options.practicalBlock()
		}
		for ordinal := 1; count > 0; ordinal++ {
			units := min(block, count)
			sessions = append(sessions, Session{
				Course:     course.Code,
				Kind:       kind,
				Ordinal:    ordinal,
				Units:      units,
				Instructor: instructor,
			})
			count -= units
		}
	}
	return sessions, nil
}

func deriveAllSessions(modelInput ModelInput, options DerivationOptions) ([]Session, error) {
	sessions := make([]Session, 0)
	for _, course := range modelInput.Courses {
		derived, err := DeriveSessions(course, options)
		if err != nil {
			return nil, err
		}
		if len(derived) == 0 {
			return nil, invalid(ErrInvalidCourse, course.Code, "no weekly requirement among the scheduled session kinds (self-study is not scheduled)")
		}
		sessions = append(sessions, derived...)
	}
	return sessions, nil
}
