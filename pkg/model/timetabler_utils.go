package model

import (
	"slices"
	"strings"

	"github.com/onsi/gomega/matchers/support/goraph/bipartitegraph"
	"github.com/samber/lo"
)

type unassignableError struct {
}

func (err unassignableError) Error() string {
	return "not all sessions can be assigned a room"
}

// Finds a room for every session through a maximum bipartite matching between sessions and rooms
func assignRooms(sessions []int, rooms []Room, fits func(session int, room Room) bool) (map[int]string, error) {
	if len(sessions) > len(rooms) {
		return nil, unassignableError{}
	}

	// Build neighbors predicate based on compatibility
	neighbors := func(sessionAny any, roomAny any) (bool, error) {
		return fits(sessionAny.(int), roomAny.(Room)), nil
	}

	// Transform sessions and rooms to slices of any
	sessionsAny, roomsAny := lo.Map(sessions, func(session int, _ int) any { return session }), lo.Map(rooms, func(room Room, _ int) any { return room })

	graph, err := bipartitegraph.NewBipartiteGraph(sessionsAny, roomsAny, neighbors)
	if err != nil {
		return nil, err
	}

	matching := graph.LargestMatching()

	// Check the matching is a maximum one
	if len(matching) < len(sessions) {
		return nil, unassignableError{}
	}

	assignments := make(map[int]string, len(sessions))
	for _, edge := range matching {
		sessionIndex, roomIndex := edge.Node1, edge.Node2
		if sessionIndex >= len(sessions) { // Edges may come reversed out of the augmenting paths
			sessionIndex, roomIndex = roomIndex, sessionIndex
		}
		assignments[sessions[sessionIndex]] = rooms[roomIndex-len(sessions)].Id
	}

	return assignments, nil
}

func comparePlacements(a, b Placement) int {
	if a.Day != b.Day {
		return int(a.Day) - int(b.Day)
	}
	if a.Slot != b.Slot {
		return a.Slot - b.Slot
	}
	return compareSessions(a.Session, b.Session)
}

func compareUnplaceable(a, b Unplaceable) int {
	return compareSessions(a.Session, b.Session)
}

func compareViolations(a, b Violation) int {
	if a.Rule != b.Rule {
		return a.Rule.order() - b.Rule.order()
	}
	if c := strings.Compare(a.Subject, b.Subject); c != 0 {
		return c
	}
	switch {
	case a.At == nil && b.At != nil:
		return -1
	case a.At != nil && b.At == nil:
		return 1
	case a.At != nil && b.At != nil:
		if c := compareTimeSlots(*a.At, *b.At); c != 0 {
			return c
		}
	}
	return slices.Compare(a.Sessions, b.Sessions)
}

func ceilDiv(a, b int) int {
	if b <= 0 {
		return 0
	}
	return (a + b - 1) / b
}
