package session

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// RunReport summarizes a whole run.
type RunReport struct {
	Levels []LevelResult
	Solved int
}

// Solver drives levels sequentially. A failed level is abandoned and the run
// moves on; only cancellation or a broken channel aborts the run.
type Solver struct {
	ctrl *Controller
	cfg  Config
	log  *zap.Logger
}

// NewSolver wraps a controller for a multi-level run.
func NewSolver(ctrl *Controller, cfg Config, log *zap.Logger) *Solver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Solver{ctrl: ctrl, cfg: cfg, log: log}
}

// Run attempts levels 1..MaxLevels in order.
func (s *Solver) Run(ctx context.Context) (RunReport, error) {
	var report RunReport
	for level := 1; level <= s.cfg.MaxLevels; level++ {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		res, err := s.ctrl.SolveLevel(ctx, level)
		report.Levels = append(report.Levels, res)
		switch {
		case err == nil:
			report.Solved++
		case errors.Is(err, ErrRetriesExhausted):
			s.log.Warn("abandoning level", zap.Int("level", level), zap.Error(err))
		default:
			return report, err
		}
	}
	s.log.Info("run finished",
		zap.Int("levels", len(report.Levels)), zap.Int("solved", report.Solved))
	return report, nil
}
