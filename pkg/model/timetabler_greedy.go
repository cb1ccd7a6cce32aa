package model

import (
	"context"

	"go.uber.org/zap"
)

// greedyTimetabler skips the backtracking search: every session goes to its first allowed position in search order
type greedyTimetabler struct {
	config Config
	logger *zap.Logger
}

func NewGreedyTimetabler(config Config, logger *zap.Logger) Timetabler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &greedyTimetabler{
		config: config,
		logger: logger,
	}
}

func (timetabler *greedyTimetabler) Build(ctx context.Context, modelInput ModelInput) (*Schedule, error) {
	config, err := timetabler.config.normalize()
	if err != nil {
		return nil, err
	}
	sessions, err := deriveAllSessions(modelInput, config.derivation())
	if err != nil {
		return nil, err
	}
	run := newSearchRun(ctx, modelInput, sessions, config, timetabler.logger)

	unplaceable, err := run.placeRemaining()
	if err != nil {
		return nil, err
	}

	run.engine.settle()
	if err := run.improve(); err != nil {
		return nil, err
	}

	schedule := run.schedule(unplaceable)
	run.logResult("greedy", schedule)
	return schedule, nil
}

func (timetabler *greedyTimetabler) Verify(schedule *Schedule, modelInput ModelInput) ValidationResult {
	return verify(schedule, modelInput)
}
