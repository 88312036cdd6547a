package jobs

import (
	"context"

	"github.com/cryptofolio/backend/internal/contracts"
	"github.com/cryptofolio/backend/pkg/logger"
)

// QuoteRefresher forces a cache-warming upstream fetch.
type QuoteRefresher interface {
	Refresh(ctx context.Context) (contracts.QuoteSet, error)
}

// QuoteBroadcaster pushes fresh quotes to realtime subscribers.
type QuoteBroadcaster interface {
	BroadcastQuotes(quotes contracts.QuoteSet)
}

// PriceRefreshJob re-fetches the universe quotes, keeping the cache
// warm and feeding the websocket stream.
type PriceRefreshJob struct {
	refresher   QuoteRefresher
	broadcaster QuoteBroadcaster
	logger      *logger.Logger
}

// NewPriceRefreshJob creates a new price refresh job. broadcaster may
// be nil when no realtime stream is running.
func NewPriceRefreshJob(refresher QuoteRefresher, broadcaster QuoteBroadcaster, log *logger.Logger) *PriceRefreshJob {
	return &PriceRefreshJob{
		refresher:   refresher,
		broadcaster: broadcaster,
		logger:      log,
	}
}

// Name returns the job name.
func (j *PriceRefreshJob) Name() string {
	return "price_refresh"
}

// Schedule returns the cron schedule (every 30 seconds).
func (j *PriceRefreshJob) Schedule() string {
	return "*/30 * * * * *"
}

// Run fetches fresh quotes and broadcasts them.
func (j *PriceRefreshJob) Run(ctx context.Context) error {
	quotes, err := j.refresher.Refresh(ctx)
	if err != nil {
		return err
	}

	if j.broadcaster != nil {
		j.broadcaster.BroadcastQuotes(quotes)
	}

	j.logger.WithField("symbols", len(quotes)).Debug("Price refresh completed")
	return nil
}
