package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/text3d/hub/internal/db"
	"github.com/text3d/hub/internal/logging"
)

const DefaultRetentionInterval = time.Hour

// PromptLogJanitor periodically deletes prompt log entries older than
// Retention. A zero Retention keeps everything.
type PromptLogJanitor struct {
	db        *db.DB
	logger    *zap.Logger
	Retention time.Duration
	Interval  time.Duration
}

func NewPromptLogJanitor(d *db.DB, retention time.Duration, logger *zap.Logger) *PromptLogJanitor {
	return &PromptLogJanitor{
		db:        d,
		logger:    logging.OrNop(logger),
		Retention: retention,
		Interval:  DefaultRetentionInterval,
	}
}

// Start runs the sweep loop until ctx is cancelled. Launch it as a goroutine.
func (j *PromptLogJanitor) Start(ctx context.Context) {
	if j.Retention <= 0 {
		j.logger.Info("prompt log retention disabled")
		return
	}
	ticker := time.NewTicker(j.Interval)
	defer ticker.Stop()

	j.logger.Info("prompt log janitor started",
		zap.Duration("retention", j.Retention),
		zap.Duration("interval", j.Interval))

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("prompt log janitor stopped")
			return
		case <-ticker.C:
			if _, err := j.Sweep(ctx, time.Now()); err != nil {
				j.logger.Warn("prompt log sweep failed", zap.Error(err))
			}
		}
	}
}

// Sweep deletes entries created before now-Retention and reports how many
// were removed.
func (j *PromptLogJanitor) Sweep(ctx context.Context, now time.Time) (int64, error) {
	if j.Retention <= 0 {
		return 0, nil
	}
	cutoff := db.Timestamp(now.Add(-j.Retention))
	res, err := j.db.ExecContext(ctx, j.db.Rebind(`DELETE FROM prompt_logs WHERE created_at < ?`), cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete expired prompt logs: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		j.logger.Info("expired prompt logs removed", zap.Int64("removed", removed))
	}
	return removed, nil
}
