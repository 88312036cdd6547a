package jobs

import (
	"context"
	"time"

	"github.com/cryptofolio/backend/pkg/logger"
)

// OrderCleaner purges order rows older than a retention window.
type OrderCleaner interface {
	Cleanup(ctx context.Context, retention time.Duration) (int64, error)
}

// HistoryCleanupJob prunes stale order history.
type HistoryCleanupJob struct {
	cleaner   OrderCleaner
	retention time.Duration
	logger    *logger.Logger
}

// NewHistoryCleanupJob creates a new history cleanup job.
func NewHistoryCleanupJob(cleaner OrderCleaner, retention time.Duration, log *logger.Logger) *HistoryCleanupJob {
	if retention <= 0 {
		retention = 90 * 24 * time.Hour
	}
	return &HistoryCleanupJob{
		cleaner:   cleaner,
		retention: retention,
		logger:    log,
	}
}

// Name returns the job name.
func (j *HistoryCleanupJob) Name() string {
	return "history_cleanup"
}

// Schedule returns the cron schedule (daily at 03:00).
func (j *HistoryCleanupJob) Schedule() string {
	return "0 0 3 * * *"
}

// Run deletes orders past the retention window.
func (j *HistoryCleanupJob) Run(ctx context.Context) error {
	removed, err := j.cleaner.Cleanup(ctx, j.retention)
	if err != nil {
		return err
	}

	if removed > 0 {
		j.logger.WithField("removed", removed).Info("Order history cleanup completed")
	}
	return nil
}
