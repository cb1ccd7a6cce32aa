package model

import "context"

type Timetabler interface {
	// Places the sessions derived from the snapshot; a cancelled context aborts the run without a schedule
	Build(
		ctx context.Context,
		modelInput ModelInput,
	) (*Schedule, error)

	Verify(
		schedule *Schedule,
		modelInput ModelInput,
	) ValidationResult
}
