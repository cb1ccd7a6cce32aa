package model

import "go.uber.org/zap"

// improve moves placed sessions, one at a time and in search order, to the first position that strictly lowers the soft score
func (run *searchRun) improve() error {
	current := run.score()
	for round, limit := 0, run.config.ImprovementRounds; round < limit; round++ {
		moves := 0
		for _, id := range run.order {
			if err := run.ctx.Err(); err != nil {
				return err
			}
			if !run.engine.isPlaced(id) {
				continue
			}

			original := run.engine.state[id]
			run.release(id)

			moved := false
			for _, at := range run.candidates[id] {
				if at.day == original.day && at.slot == original.slot {
					continue
				}
				verdict := run.engine.Check(id, at.day, at.slot)
				if !verdict.Allowed {
					continue
				}
				run.commit(id, at, verdict)
				if score := run.score(); score.Total < current.Total {
					current, moved = score, true
					run.engine.state[id].undo = nil
					break
				}
				run.release(id)
			}

			if !moved {
				run.commit(id, position{original.day, original.slot}, Verdict{Allowed: true, Room: original.room})
				continue
			}
			moves++
		}

		run.logger.Debug("improvement round",
			zap.Int("round", round),
			zap.Int("moves", moves),
			zap.Float64("score", current.Total),
		)
		if moves == 0 {
			break
		}
	}
	return nil
}
