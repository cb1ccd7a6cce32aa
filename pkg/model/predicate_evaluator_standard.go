package model

type predicateEvaluatorStandard struct {
	modelInput  ModelInput
	indexer     indexer
	unavailable map[string][]bool // Unavailability per instructor, addressed by the indexer
	maxLoad     map[string]int
	enrolment   map[string]int // Registration count per course
}

func newPredicateEvaluator(modelInput ModelInput, indexer indexer) predicateEvaluator {
	evaluator := predicateEvaluatorStandard{
		modelInput:  modelInput,
		indexer:     indexer,
		unavailable: make(map[string][]bool, len(modelInput.Faculty)),
		maxLoad:     make(map[string]int, len(modelInput.Faculty)),
		enrolment:   make(map[string]int, len(modelInput.Courses)),
	}

	for _, member := range modelInput.Faculty {
		evaluator.maxLoad[member.Id] = member.MaxLoad
		evaluator.unavailable[member.Id] = make([]bool, indexer.Size())
		for _, slot := range member.Unavailable {
			day, ok := modelInput.Grid.DayPosition(slot.Day)
			if !ok {
				continue
			}
			evaluator.unavailable[member.Id][indexer.Index(day, slot.Slot)] = true
		}
	}

	for _, course := range modelInput.Courses {
		evaluator.enrolment[course.Code] = course.RegistrationCount
	}

	return &evaluator
}

func (evaluator *predicateEvaluatorStandard) InGrid(session Session, slot int) bool {
	return slot >= 0 && slot+session.Units <= evaluator.modelInput.Grid.PeriodsPerDay()
}

func (evaluator *predicateEvaluatorStandard) ClearOfLunch(session Session, slot int) bool {
	for unit, limit := 0, session.Units; unit < limit; unit++ {
		if evaluator.modelInput.Grid.IsLunch(slot + unit) {
			return false
		}
	}
	return true
}

func (evaluator *predicateEvaluatorStandard) InstructorAvailable(instructor string, day, slot int) bool {
	unavailable, ok := evaluator.unavailable[instructor]
	if !ok {
		return false
	}
	return !unavailable[evaluator.indexer.Index(day, slot)]
}

func (evaluator *predicateEvaluatorStandard) Fits(session Session, room Room) bool {
	return room.Type == session.RoomType() && room.Capacity >= evaluator.enrolment[session.Course]
}

func (evaluator *predicateEvaluatorStandard) MaxLoad(instructor string) int {
	return evaluator.maxLoad[instructor]
}
