// internal/sweeper/sweeper.go
package sweeper

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"trm-match-engine/internal/common/config"
	"trm-match-engine/internal/common/logger"
	"trm-match-engine/internal/models"
)

// sweepTimeout bounds one background sweep run.
const sweepTimeout = 10 * time.Minute

// Engine is the slice of the matching engine the sweeps drive.
type Engine interface {
	CleanupExpired(ctx context.Context) (int64, error)
	FindAndNotifyPerfectMatches(ctx context.Context, jobID *string) (*models.NotifyResult, error)
}

// Sweeper runs the periodic maintenance sweeps on cron schedules: removing
// expired match scores and delivering instant alerts that event-driven
// notification missed.
type Sweeper struct {
	cron *cron.Cron
	eng  Engine
	log  logger.Logger
}

func New(eng Engine, cfg config.SweepConfig, log logger.Logger) (*Sweeper, error) {
	s := &Sweeper{
		cron: cron.New(),
		eng:  eng,
		log:  log,
	}

	if _, err := s.cron.AddFunc(cfg.CleanupSchedule, s.runCleanup); err != nil {
		return nil, err
	}
	if _, err := s.cron.AddFunc(cfg.NotifySchedule, s.runNotify); err != nil {
		return nil, err
	}
	return s, nil
}

// Start begins running scheduled sweeps in the background.
func (s *Sweeper) Start() {
	s.cron.Start()
	s.log.Info("background sweeps scheduled", map[string]interface{}{
		"entries": len(s.cron.Entries()),
	})
}

// Stop halts scheduling and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Sweeper) runCleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	deleted, err := s.eng.CleanupExpired(ctx)
	if err != nil {
		s.log.Error("cleanup sweep failed", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	s.log.Info("cleanup sweep finished", map[string]interface{}{
		"deleted": deleted,
	})
}

func (s *Sweeper) runNotify() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	result, err := s.eng.FindAndNotifyPerfectMatches(ctx, nil)
	if err != nil {
		s.log.Error("notification sweep failed", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	s.log.Info("notification sweep finished", map[string]interface{}{
		"matchesFound": result.MatchesFound,
		"alertsSent":   result.AlertsSent,
		"errors":       len(result.Errors),
	})
}
