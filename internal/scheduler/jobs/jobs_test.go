package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cryptofolio/backend/internal/contracts"
	"github.com/cryptofolio/backend/pkg/logger"
)

type stubRefresher struct {
	quotes contracts.QuoteSet
	err    error
}

func (s *stubRefresher) Refresh(context.Context) (contracts.QuoteSet, error) {
	return s.quotes, s.err
}

type stubBroadcaster struct {
	received []contracts.QuoteSet
}

func (s *stubBroadcaster) BroadcastQuotes(quotes contracts.QuoteSet) {
	s.received = append(s.received, quotes)
}

type stubCleaner struct {
	removed   int64
	retention time.Duration
	err       error
}

func (s *stubCleaner) Cleanup(_ context.Context, retention time.Duration) (int64, error) {
	s.retention = retention
	return s.removed, s.err
}

func TestPriceRefreshJob(t *testing.T) {
	quotes := contracts.QuoteSet{"BTC": {Symbol: "BTC", Price: 45000}}
	broadcaster := &stubBroadcaster{}
	job := NewPriceRefreshJob(&stubRefresher{quotes: quotes}, broadcaster, logger.NewNop())

	require.NoError(t, job.Run(context.Background()))
	require.Len(t, broadcaster.received, 1)
	assert.Equal(t, quotes, broadcaster.received[0])
}

func TestPriceRefreshJob_NilBroadcaster(t *testing.T) {
	job := NewPriceRefreshJob(&stubRefresher{quotes: contracts.QuoteSet{}}, nil, logger.NewNop())
	require.NoError(t, job.Run(context.Background()))
}

func TestPriceRefreshJob_UpstreamFailure(t *testing.T) {
	broadcaster := &stubBroadcaster{}
	job := NewPriceRefreshJob(&stubRefresher{err: errors.New("down")}, broadcaster, logger.NewNop())

	require.Error(t, job.Run(context.Background()))
	assert.Empty(t, broadcaster.received)
}

func TestHistoryCleanupJob(t *testing.T) {
	cleaner := &stubCleaner{removed: 7}
	job := NewHistoryCleanupJob(cleaner, 30*24*time.Hour, logger.NewNop())

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 30*24*time.Hour, cleaner.retention)
}

func TestHistoryCleanupJob_DefaultRetention(t *testing.T) {
	cleaner := &stubCleaner{}
	job := NewHistoryCleanupJob(cleaner, 0, logger.NewNop())

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 90*24*time.Hour, cleaner.retention)
}
