package forum

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/warrenhq/warren/internal/models"
	"github.com/warrenhq/warren/pkg/telemetry"
)

// RunAnnealing decays every hot score above the floor by the configured
// factor, then drops the hot-ranked indices and the object cache so the
// next reads rebuild against the decayed scores. Stale score copies in the
// other indices are tolerated until their next refill.
func (s *Service) RunAnnealing(ctx context.Context) error {
	ctx, span := telemetry.StartSpan(ctx, "forum.RunAnnealing")
	defer span.End()

	affected, err := s.posts.DecayHotScores(ctx, s.cfg.Annealing.DecayFactor, s.cfg.Annealing.DecayFloor)
	if err != nil {
		return err
	}

	s.postCache.ClearAll(ctx)
	s.ClearRankedList(ctx, nil, models.OrderModeHot)
	rooms, err := s.posts.DistinctRooms(ctx)
	if err != nil {
		return err
	}
	for _, room := range rooms {
		r := room
		s.ClearRankedList(ctx, &r, models.OrderModeHot)
	}

	s.logger.Info("annealing cycle done",
		zap.Int64("decayed", affected),
		zap.Int("rooms", len(rooms)),
		zap.Float64("factor", s.cfg.Annealing.DecayFactor))
	return nil
}

// AnnealingLoop runs annealing on the configured interval until the
// context is cancelled. The first cycle waits a full interval so process
// restarts do not compound the decay.
func (s *Service) AnnealingLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Annealing.Interval)
	defer ticker.Stop()

	s.logger.Info("annealing loop started",
		zap.Duration("interval", s.cfg.Annealing.Interval))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("annealing loop stopped")
			return
		case <-ticker.C:
			if err := s.RunAnnealing(ctx); err != nil {
				s.logger.Error("annealing cycle failed", zap.Error(err))
			}
		}
	}
}
