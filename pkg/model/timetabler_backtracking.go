package model

import (
	"context"

	"go.uber.org/zap"
)

type backtrackingTimetabler struct {
	config Config
	logger *zap.Logger
}

func NewBacktrackingTimetabler(config Config, logger *zap.Logger) Timetabler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &backtrackingTimetabler{
		config: config,
		logger: logger,
	}
}

func (timetabler *backtrackingTimetabler) Build(ctx context.Context, modelInput ModelInput) (*Schedule, error) {
	//** Prepare the run
	config, err := timetabler.config.normalize()
	if err != nil {
		return nil, err
	}
	sessions, err := deriveAllSessions(modelInput, config.derivation())
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	run := newSearchRun(ctx, modelInput, sessions, config, timetabler.logger)
	timetabler.logger.Debug("search started",
		zap.Int("sessions", len(sessions)),
		zap.Int("node_budget", config.NodeBudget),
	)

	//** Backtracking search, allowing one more session to be left out after each fully explored tree
	complete := false
	for run.maxSkips = run.minSkips; run.maxSkips <= len(sessions); run.maxSkips++ {
		if complete, err = run.backtrack(0); err != nil {
			return nil, err
		}
		if complete || run.exhausted {
			break
		}
	}
	timetabler.logger.Debug("search finished",
		zap.Bool("complete", complete),
		zap.Int("skips", run.skips),
		zap.Int("min_skips", run.minSkips),
		zap.Int("best_placed", len(run.best)),
		zap.Int("nodes", run.nodes),
		zap.Bool("budget_exhausted", run.exhausted),
	)

	//** Greedy completion of the best partial assignment, or of the sessions the search left out
	if !complete {
		run.restoreBest()
	}
	unplaceable, err := run.placeRemaining()
	if err != nil {
		return nil, err
	}

	//** Soft-constraint improvement
	run.engine.settle()
	if err := run.improve(); err != nil {
		return nil, err
	}

	schedule := run.schedule(unplaceable)
	run.logResult("backtracking", schedule)
	return schedule, nil
}

// Depth-first search over the sessions in order, leaving at most maxSkips of them unplaced; returns true once every session is decided
func (run *searchRun) backtrack(depth int) (bool, error) {
	if err := run.ctx.Err(); err != nil {
		return false, err
	}
	if depth == len(run.order) {
		return true, nil
	}

	id := run.order[depth]
	for _, at := range run.candidates[id] {
		if run.nodes >= run.config.NodeBudget {
			run.exhausted = true
			return false, nil
		}

		verdict := run.engine.Check(id, at.day, at.slot)
		if !verdict.Allowed {
			continue
		}

		run.commit(id, at, verdict)
		run.nodes++
		run.record()

		if run.forwardCheck(id) {
			complete, err := run.backtrack(depth + 1)
			if err != nil || complete {
				return complete, err
			}
		}

		run.release(id)
		if run.exhausted {
			return false, nil
		}
	}

	//** Leave the session out as a last resort
	if run.skips < run.maxSkips {
		run.skip(id)
		complete, err := run.backtrack(depth + 1)
		if err != nil || complete {
			return complete, err
		}
		run.unskip(id)
	}
	return false, nil
}

func (timetabler *backtrackingTimetabler) Verify(schedule *Schedule, modelInput ModelInput) ValidationResult {
	return verify(schedule, modelInput)
}
