package model

import (
	"context"
	"slices"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

type position struct {
	day, slot int
}

type snapshotEntry struct {
	id       int
	position position
	room     string
}

// searchRun holds the state of a single scheduling run; runs share nothing
type searchRun struct {
	ctx        context.Context
	config     Config
	logger     *zap.Logger
	modelInput ModelInput
	sessions   []Session
	engine     *constraintEngine

	order      []int        // Session ids, most constrained first
	candidates [][]position // Statically legal positions per session, Monday to Friday and then by slot
	related    [][]int      // Sessions sharing the instructor or the course, per session
	taught     map[string][]int

	skipped  []bool // Sessions the search decided to leave unplaced
	skips    int
	maxSkips int
	minSkips int // Lower bound on the sessions no complete assignment can place

	nodes     int
	exhausted bool
	best      []snapshotEntry // Placements of the best partial assignment, by session id
	started   time.Time
}

func newSearchRun(ctx context.Context, modelInput ModelInput, sessions []Session, config Config, logger *zap.Logger) *searchRun {
	run := &searchRun{
		ctx:        ctx,
		config:     config,
		logger:     logger,
		modelInput: modelInput,
		sessions:   sessions,
		engine:     newConstraintEngine(modelInput, sessions),
		candidates: make([][]position, len(sessions)),
		related:    make([][]int, len(sessions)),
		taught:     make(map[string][]int),
		skipped:    make([]bool, len(sessions)),
		started:    time.Now(),
	}

	//** Static candidates
	options := make([]int, len(sessions))
	for id, session := range sessions {
		for day := range modelInput.Grid.Days {
			for slot, limit := 0, modelInput.Grid.PeriodsPerDay(); slot < limit; slot++ {
				if _, ok := run.engine.checkStatic(id, day, slot); ok {
					run.candidates[id] = append(run.candidates[id], position{day, slot})
				}
			}
		}
		options[id] = len(run.candidates[id])
		if modelInput.RoomsModeled() && session.NeedsRoom() && !slices.ContainsFunc(modelInput.Rooms, func(room Room) bool {
			return run.engine.evaluator.Fits(session, room)
		}) {
			options[id] = 0
		}
	}

	//** Related sessions
	for id, session := range sessions {
		for other, otherSession := range sessions {
			if other == id {
				continue
			}
			sharesInstructor := session.NeedsInstructor() && otherSession.NeedsInstructor() && session.Instructor == otherSession.Instructor
			if sharesInstructor || session.Course == otherSession.Course {
				run.related[id] = append(run.related[id], other)
			}
		}
	}

	//** Most-constrained-first order
	run.order = make([]int, len(sessions))
	for id := range sessions {
		run.order[id] = id
	}
	slices.SortStableFunc(run.order, func(a, b int) int {
		if options[a] != options[b] {
			return options[a] - options[b]
		}
		if sessions[a].Units != sessions[b].Units {
			return sessions[b].Units - sessions[a].Units
		}
		return compareSessions(sessions[a], sessions[b])
	})

	//** Sessions no assignment can place
	units := make(map[string][]int)
	for id, session := range sessions {
		if !session.NeedsInstructor() {
			continue
		}
		run.taught[session.Instructor] = append(run.taught[session.Instructor], id)
		if options[id] > 0 {
			units[session.Instructor] = append(units[session.Instructor], session.Units)
		}
	}
	for id := range sessions {
		if options[id] == 0 {
			run.minSkips++
		}
	}
	for _, member := range modelInput.Faculty {
		run.minSkips += sessionsOver(units[member.Id], member.MaxLoad)
	}

	return run
}

// Least number of sessions, among the given unit counts, to leave out so that the rest fits in capacity
func sessionsOver(units []int, capacity int) int {
	excess := lo.Sum(units) - capacity
	if excess <= 0 {
		return 0
	}
	sorted := slices.Clone(units)
	slices.SortFunc(sorted, func(a, b int) int { return b - a })

	count := 0
	for _, unit := range sorted {
		if excess <= 0 {
			break
		}
		excess -= unit
		count++
	}
	return count
}

func (run *searchRun) commit(id int, at position, verdict Verdict) {
	run.engine.Commit(id, at.day, at.slot, verdict)
}

func (run *searchRun) release(id int) {
	run.engine.Release(id)
}

func (run *searchRun) skip(id int) {
	run.skipped[id] = true
	run.skips++
}

func (run *searchRun) unskip(id int) {
	run.skipped[id] = false
	run.skips--
}

// Undecided sessions are neither placed nor left out yet
func (run *searchRun) undecided(id int) bool {
	return !run.engine.isPlaced(id) && !run.skipped[id]
}

// Keeps the placements of the partial assignment with the most sessions placed so far; ties go to the one placing earlier sessions
// (session ids follow course code, kind and ordinal, so the smallest id list is the one with the earliest course codes)
func (run *searchRun) record() {
	if run.engine.placed < len(run.best) {
		return
	}
	ids := make([]int, 0, run.engine.placed)
	for id, state := range run.engine.state {
		if state.placed {
			ids = append(ids, id)
		}
	}
	if len(ids) == len(run.best) && slices.Compare(ids, lo.Map(run.best, func(entry snapshotEntry, _ int) int { return entry.id })) >= 0 {
		return
	}

	run.best = make([]snapshotEntry, 0, len(ids))
	for _, id := range ids {
		state := run.engine.state[id]
		run.best = append(run.best, snapshotEntry{id: id, position: position{state.day, state.slot}, room: state.room})
	}
}

// Replays the best partial assignment on a fresh engine
func (run *searchRun) restoreBest() {
	run.engine = newConstraintEngine(run.modelInput, run.sessions)
	for _, entry := range run.best {
		run.commit(entry.id, entry.position, Verdict{Allowed: true, Room: entry.room})
	}
}

// Checks whether the sessions the placement of id leaves without a legal position, or over the instructor's load, still fit in the skips left
func (run *searchRun) forwardCheck(id int) bool {
	left := run.maxSkips - run.skips

	session := run.sessions[id]
	if session.NeedsInstructor() {
		units := make([]int, 0)
		for _, other := range run.taught[session.Instructor] {
			if run.undecided(other) {
				units = append(units, run.sessions[other].Units)
			}
		}
		remaining := run.engine.evaluator.MaxLoad(session.Instructor) - run.engine.load[session.Instructor]
		if sessionsOver(units, remaining) > left {
			return false
		}
	}

	dead := 0
	for _, other := range run.related[id] {
		if !run.undecided(other) {
			continue
		}
		if !slices.ContainsFunc(run.candidates[other], func(at position) bool {
			return run.engine.Check(other, at.day, at.slot).Allowed
		}) {
			dead++
			if dead > left {
				return false
			}
		}
	}
	return true
}

// Places every session the search left out on its first allowed position, collecting the ones that have none
func (run *searchRun) placeRemaining() ([]Unplaceable, error) {
	unplaceable := make([]Unplaceable, 0)
	for _, id := range run.order {
		if run.engine.isPlaced(id) {
			continue
		}
		if err := run.ctx.Err(); err != nil {
			return nil, err
		}
		if entry, ok := run.placeGreedily(id); !ok {
			unplaceable = append(unplaceable, entry)
		}
	}
	return unplaceable, nil
}

// Places the session on its first allowed position, or explains why none is allowed
func (run *searchRun) placeGreedily(id int) (Unplaceable, bool) {
	counts := make(map[Rule]int)
	reasons := make(map[Rule]string)
	for day := range run.modelInput.Grid.Days {
		for slot, limit := 0, run.modelInput.Grid.PeriodsPerDay(); slot < limit; slot++ {
			verdict := run.engine.Check(id, day, slot)
			if verdict.Allowed {
				run.commit(id, position{day, slot}, verdict)
				return Unplaceable{}, true
			}
			if counts[verdict.Rule] == 0 {
				reasons[verdict.Rule] = verdict.Reason
			}
			counts[verdict.Rule]++
		}
	}

	rule := dominantRule(counts)
	return Unplaceable{Session: run.sessions[id], Rule: rule, Reason: reasons[rule]}, false
}

// The most frequent rejection among positions that pass the static rules, falling back to the most frequent static one
func dominantRule(counts map[Rule]int) Rule {
	best, bestCount, bestStatic := Rule(""), 0, true
	for _, rule := range ruleOrder {
		count := counts[rule]
		if count == 0 {
			continue
		}
		switch {
		case best == "",
			bestStatic && !rule.static(),
			bestStatic == rule.static() && count > bestCount:
			best, bestCount, bestStatic = rule, count, rule.static()
		}
	}
	return best
}

func (run *searchRun) score() Score {
	return scorePlacements(run.engine.placements(), run.modelInput.Grid, run.config)
}

func (run *searchRun) schedule(unplaceable []Unplaceable) *Schedule {
	slices.SortFunc(unplaceable, compareUnplaceable)
	placements := run.engine.placements()
	return &Schedule{
		Grid:            run.modelInput.Grid,
		Options:         run.config.derivation(),
		Placements:      placements,
		Unplaceable:     unplaceable,
		Partial:         len(unplaceable) > 0 || run.exhausted,
		BudgetExhausted: run.exhausted,
		NodesExpanded:   run.nodes,
		Score:           scorePlacements(placements, run.modelInput.Grid, run.config),
	}
}

func (run *searchRun) logResult(strategy string, schedule *Schedule) {
	run.logger.Info("schedule computed",
		zap.String("strategy", strategy),
		zap.Int("sessions", len(run.sessions)),
		zap.Int("placed", len(schedule.Placements)),
		zap.Int("unplaceable", len(schedule.Unplaceable)),
		zap.Int("nodes", schedule.NodesExpanded),
		zap.Bool("budget_exhausted", schedule.BudgetExhausted),
		zap.Float64("score", schedule.Score.Total),
		zap.Duration("elapsed", time.Since(run.started)),
	)
}
