package model

import (
	"fmt"
	"slices"
	"strings"
)

// Violation is a hard constraint broken by a schedule
type Violation struct {
	Rule     Rule      `json:"rule"`
	Subject  string    `json:"subject"`      // Instructor, course, room or session the violation is about
	Sessions []string  `json:"sessions"`     // Keys of the offending sessions, sorted
	At       *TimeSlot `json:"at,omitempty"` // Slot where the violation happens (if bound to one)
	Message  string    `json:"message"`
}

type ValidationResult struct {
	Violations []Violation `json:"violations"`
}

func (result ValidationResult) Valid() bool {
	return len(result.Violations) == 0
}

// Violations of the given rule
func (result ValidationResult) Of(rule Rule) []Violation {
	violations := make([]Violation, 0)
	for _, violation := range result.Violations {
		if violation.Rule == rule {
			violations = append(violations, violation)
		}
	}
	return violations
}

type occupancyKey struct {
	subject string
	slot    TimeSlot
}

// verify re-checks every hard constraint on the schedule without trusting how it was produced
func verify(schedule *Schedule, modelInput ModelInput) ValidationResult {
	violations := make([]Violation, 0)
	report := func(rule Rule, subject string, sessions []string, at *TimeSlot, format string, args ...any) {
		sessions = append([]string{}, sessions...)
		slices.Sort(sessions)
		violations = append(violations, Violation{Rule: rule, Subject: subject, Sessions: sessions, At: at, Message: fmt.Sprintf(format, args...)})
	}

	//** Derive the sessions the snapshot expects
	expected := make(map[string]Session)
	derived := make([]Session, 0)
	for _, course := range modelInput.Courses {
		sessions, err := DeriveSessions(course, schedule.Options)
		if err != nil {
			report(RuleUnknownReference, course.Code, nil, nil, "course %v cannot be derived: %v", course.Code, err)
			continue
		}
		for _, session := range sessions {
			expected[session.Key()] = session
		}
		derived = append(derived, sessions...)
	}

	grid := modelInput.Grid
	placed := make(map[string]bool)
	instructorUsage := make(map[occupancyKey][]string)
	courseUsage := make(map[occupancyKey][]string)
	roomUsage := make(map[occupancyKey][]string)
	load := make(map[string]int)

	placements := slices.Clone(schedule.Placements)
	slices.SortStableFunc(placements, comparePlacements)
	for _, placement := range placements {
		session, key := placement.Session, placement.Session.Key()

		//** References
		reference, ok := expected[key]
		if !ok || reference != session {
			report(RuleUnknownReference, key, []string{key}, nil, "%v is not a session of the snapshot", key)
			continue
		}
		if placed[key] {
			report(RuleDuplicatePlacement, key, []string{key}, nil, "%v is placed more than once", key)
			continue
		}
		placed[key] = true

		//** Grid
		covered := placement.Covers()
		if _, ok := grid.DayPosition(placement.Day); !ok || !grid.Contains(covered[0]) || !grid.Contains(covered[len(covered)-1]) {
			report(RuleOutOfGrid, key, []string{key}, nil, "%v on %v#%d leaves the grid", key, placement.Day, placement.Slot)
			continue
		}
		for _, slot := range covered {
			if grid.IsLunch(slot.Slot) {
				report(RuleLunchBreak, key, []string{key}, &slot, "%v is placed on the lunch break", key)
				break
			}
		}

		//** Instructor
		if session.NeedsInstructor() {
			member, _ := modelInput.FacultyMember(session.Instructor)
			for _, slot := range covered {
				if slices.Contains(member.Unavailable, slot) {
					report(RuleInstructorUnavailable, member.Id, []string{key}, &slot, "%v is unavailable on %v", member.Id, slot)
					break
				}
			}
			for _, slot := range covered {
				instructorUsage[occupancyKey{session.Instructor, slot}] = append(instructorUsage[occupancyKey{session.Instructor, slot}], key)
			}
			load[session.Instructor] += session.Units
		}

		//** Course
		for _, slot := range covered {
			courseUsage[occupancyKey{session.Course, slot}] = append(courseUsage[occupancyKey{session.Course, slot}], key)
		}

		//** Room
		switch {
		case placement.Room == "" && session.NeedsRoom() && modelInput.RoomsModeled():
			report(RuleRoomUnavailable, key, []string{key}, &covered[0], "%v has no room", key)
		case placement.Room != "":
			room, ok := modelInput.Room(placement.Room)
			if !ok {
				report(RuleUnknownReference, placement.Room, []string{key}, nil, "room %v is not part of the snapshot", placement.Room)
				break
			}
			course, _ := modelInput.Course(session.Course)
			if !session.NeedsRoom() || room.Type != session.RoomType() || room.Capacity < course.RegistrationCount {
				report(RuleRoomIncompatible, room.Id, []string{key}, &covered[0], "%v (%v, capacity %d) cannot host %v", room.Id, room.Type, room.Capacity, key)
			}
			for _, slot := range covered {
				roomUsage[occupancyKey{room.Id, slot}] = append(roomUsage[occupancyKey{room.Id, slot}], key)
			}
		}
	}

	//** Collisions, one violation per subject and slot
	collisions := func(usage map[occupancyKey][]string, rule Rule, noun string) {
		for key, sessions := range usage {
			if len(sessions) < 2 {
				continue
			}
			slot := key.slot
			report(rule, key.subject, sessions, &slot, "%v %v is booked %d times on %v: %v", noun, key.subject, len(sessions), slot, strings.Join(sessions, ", "))
		}
	}
	collisions(instructorUsage, RuleInstructorDoubleBooked, "instructor")
	collisions(courseUsage, RuleCourseOverlap, "course")
	collisions(roomUsage, RuleRoomDoubleBooked, "room")

	//** Load
	for _, member := range modelInput.Faculty {
		if load[member.Id] > member.MaxLoad {
			sessions := make([]string, 0)
			for _, session := range derived {
				if session.Instructor == member.Id && placed[session.Key()] {
					sessions = append(sessions, session.Key())
				}
			}
			report(RuleLoadExceeded, member.Id, sessions, nil, "%v teaches %d slot-units, above the maximum load of %d", member.Id, load[member.Id], member.MaxLoad)
		}
	}

	//** Completeness
	unplaceable := make(map[string]bool)
	for _, entry := range schedule.Unplaceable {
		key := entry.Session.Key()
		if _, ok := expected[key]; !ok {
			report(RuleUnknownReference, key, []string{key}, nil, "unplaceable %v is not a session of the snapshot", key)
			continue
		}
		unplaceable[key] = true
	}
	for _, session := range derived {
		key := session.Key()
		if !placed[key] && !unplaceable[key] {
			report(RuleIncomplete, key, []string{key}, nil, "%v is neither placed nor reported unplaceable", key)
		}
	}

	slices.SortFunc(violations, compareViolations)
	return ValidationResult{Violations: violations}
}
