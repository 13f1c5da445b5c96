package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"readiness-workers/internal/common/logger"
	"readiness-workers/internal/common/metrics"
)

// Sweeper reclaims space held by expired entries on a cron schedule. Reads are
// correct without it.
type Sweeper struct {
	store   Store
	cron    *cron.Cron
	logger  logger.Logger
	timeout time.Duration
}

func NewSweeper(store Store, schedule string, log logger.Logger) (*Sweeper, error) {
	s := &Sweeper{
		store:   store,
		cron:    cron.New(),
		logger:  log.WithFields(map[string]interface{}{"component": "cache-sweeper", "backend": store.Backend()}),
		timeout: time.Minute,
	}
	if _, err := s.cron.AddFunc(schedule, s.tick); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	return s, nil
}

func (s *Sweeper) Start() {
	s.cron.Start()
	s.logger.Info("cache sweeper started", nil)
}

// Stop waits for a running sweep to finish or ctx to expire.
func (s *Sweeper) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

func (s *Sweeper) RunOnce(ctx context.Context) (int64, error) {
	removed, err := s.store.Sweep(ctx)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		metrics.CacheSweepRemoved.WithLabelValues(s.store.Backend()).Add(float64(removed))
	}
	return removed, nil
}

func (s *Sweeper) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	removed, err := s.RunOnce(ctx)
	if err != nil {
		s.logger.Warn("cache sweep failed", map[string]interface{}{"error": err})
		return
	}
	s.logger.Debug("cache sweep complete", map[string]interface{}{"removed": removed})
}
