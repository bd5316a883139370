package backup

import (
	"context"
	"fmt"
	"time"

	"github.com/adhocore/gronx"

	"EmberVale/internal/logging"
)

// Scheduler writes snapshots on a cron cadence. It ticks once a minute and
// fires when the expression is due, matching cron's minute resolution.
type Scheduler struct {
	engine *Engine
	expr   string
	gron   *gronx.Gronx
	log    *logging.Logger
}

// NewScheduler validates the cron expression and builds a scheduler around
// the engine.
func NewScheduler(engine *Engine, expr string, log *logging.Logger) (*Scheduler, error) {
	gron := gronx.New()
	if !gron.IsValid(expr) {
		return nil, fmt.Errorf("invalid backup schedule %q", expr)
	}
	return &Scheduler{engine: engine, expr: expr, gron: gron, log: log}, nil
}

// Run blocks, snapshotting whenever the schedule is due, until the context
// is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	s.log.WriteToLog(fmt.Sprintf("backup scheduler running on %q", s.expr), logging.ChannelProcessingLoops)
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.WriteToLog("backup scheduler stopped", logging.ChannelProcessingLoops)
			return
		case now := <-ticker.C:
			due, err := s.gron.IsDue(s.expr, now)
			if err != nil {
				s.log.LogError(err)
				continue
			}
			if !due {
				continue
			}
			if err := s.engine.WriteLiveBackup(); err != nil {
				s.log.LogError(err)
			}
		}
	}
}
