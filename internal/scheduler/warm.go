// Package scheduler runs the periodic warm-cache aggregation.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jonesrussell/world-intel/internal/aggregate"
	"github.com/jonesrussell/world-intel/internal/logger"
)

// warmTimeout bounds one warm run so a slow upstream cannot stack runs.
const warmTimeout = 2 * time.Minute

// Warmer periodically re-runs the aggregation so caches and first-seen
// memory stay fresh between requests. Failures are logged and ignored.
type Warmer struct {
	cron       *cron.Cron
	agg        *aggregate.Aggregator
	sinceHours float64
	limit      int
	logger     logger.Logger
}

// NewWarmer creates a Warmer with the given cron spec (standard 5-field).
func NewWarmer(agg *aggregate.Aggregator, spec string, sinceHours float64, limit int, log logger.Logger) (*Warmer, error) {
	w := &Warmer{
		cron:       cron.New(),
		agg:        agg,
		sinceHours: sinceHours,
		limit:      limit,
		logger:     log,
	}

	if _, err := w.cron.AddFunc(spec, w.run); err != nil {
		return nil, err
	}
	return w, nil
}

// Start begins the schedule.
func (w *Warmer) Start() {
	w.cron.Start()
	w.logger.Info("warm-cache scheduler started")
}

// Stop halts the schedule and waits for a running job to finish.
func (w *Warmer) Stop() {
	<-w.cron.Stop().Done()
	w.logger.Info("warm-cache scheduler stopped")
}

func (w *Warmer) run() {
	ctx, cancel := context.WithTimeout(context.Background(), warmTimeout)
	defer cancel()

	start := time.Now()
	items := w.agg.Items(ctx, w.sinceHours, w.limit)

	w.logger.Info("warm-cache run complete",
		logger.Int("items", len(items)),
		logger.Duration("duration", time.Since(start)),
	)
}
