package model

// Score is the soft-constraint penalty of a schedule; lower is better
type Score struct {
	Spread  int     `json:"spread"`  // Sessions of a course sharing a day, beyond the first one
	Pairing int     `json:"pairing"` // Practical sessions on the day of a lecture of their course, but not adjacent to it
	Load    float64 `json:"load"`    // Weighted daily overload above the even share of each instructor's weekly units
	Total   float64 `json:"total"`
}

type dayKey struct {
	key string
	day Day
}

func scorePlacements(placements []Placement, grid Grid, config Config) Score {
	score := Score{}

	perCourseDay := make(map[dayKey]int)
	perInstructorDay := make(map[dayKey]int)
	weekly := make(map[string]int)
	lectures := make(map[dayKey][]int)
	for _, placement := range placements {
		perCourseDay[dayKey{placement.Session.Course, placement.Day}]++
		if placement.Session.Kind == Lecture {
			key := dayKey{placement.Session.Course, placement.Day}
			lectures[key] = append(lectures[key], placement.Slot)
		}
		if placement.Session.NeedsInstructor() {
			perInstructorDay[dayKey{placement.Session.Instructor, placement.Day}] += placement.Session.Units
			weekly[placement.Session.Instructor] += placement.Session.Units
		}
	}

	//** Spread
	for _, count := range perCourseDay {
		score.Spread += max(0, count-1)
	}

	//** Pairing
	if config.PreferPairedLabs {
		for _, placement := range placements {
			if placement.Session.Kind != Practical {
				continue
			}
			slots, ok := lectures[dayKey{placement.Session.Course, placement.Day}]
			if !ok {
				continue
			}
			adjacent := false
			for _, slot := range slots {
				if slot == placement.Slot-1 || slot == placement.Slot+placement.Session.Units {
					adjacent = true
					break
				}
			}
			if !adjacent {
				score.Pairing++
			}
		}
	}

	//** Load
	overload := 0
	for key, units := range perInstructorDay {
		share := ceilDiv(weekly[key.key], len(grid.Days))
		overload += max(0, units-share)
	}
	score.Load = config.LoadPenaltyWeight * float64(overload)

	score.Total = float64(score.Spread+score.Pairing) + score.Load
	return score
}
