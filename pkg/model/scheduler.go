package model

import (
	"context"

	"go.uber.org/zap"
)

// ComputeSchedule places every session derived from the snapshot on the weekly grid.
// Sessions that cannot be placed are listed in Schedule.Unplaceable and the schedule is flagged partial;
// only invalid configuration or a cancelled context yield an error.
func ComputeSchedule(ctx context.Context, modelInput ModelInput, config Config, logger *zap.Logger) (*Schedule, error) {
	return NewBacktrackingTimetabler(config, logger).Build(ctx, modelInput)
}

// ValidateSchedule re-checks every hard constraint of a schedule (produced here or built by hand) against the snapshot
func ValidateSchedule(schedule *Schedule, modelInput ModelInput) ValidationResult {
	if schedule == nil { // Nothing placed
		schedule = &Schedule{Grid: modelInput.Grid, Options: DefaultConfig().derivation()}
	}
	return verify(schedule, modelInput)
}
