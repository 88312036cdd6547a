package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cryptofolio/backend/internal/advisor"
	"github.com/cryptofolio/backend/internal/execution"
	"github.com/cryptofolio/backend/internal/history"
	"github.com/cryptofolio/backend/internal/ledger"
	"github.com/cryptofolio/backend/internal/marketdata"
	"github.com/cryptofolio/backend/internal/marketdata/coingecko"
	"github.com/cryptofolio/backend/internal/marketdata/news"
	"github.com/cryptofolio/backend/internal/rebalance"
	"github.com/cryptofolio/backend/pkg/config"
	"github.com/cryptofolio/backend/pkg/database"
	"github.com/cryptofolio/backend/pkg/httputil"
	"github.com/cryptofolio/backend/pkg/logger"
	"github.com/cryptofolio/backend/pkg/redis"
)

// app bundles the wired application components shared by the api and
// scheduler commands.
type app struct {
	cfg        *config.Config
	logger     *logger.Logger
	db         *database.DB
	redis      *redis.Client
	fetcher    *marketdata.Fetcher
	account    *ledger.Account
	executor   *execution.Executor
	history    *history.Repository
	rebalancer *rebalance.Rebalancer
	advisor    *advisor.Advisor
}

// buildApp loads config and wires the full component graph.
func buildApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	log.Info("Connected to database")

	redisClient, err := redis.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	httpClient := httputil.New(log)

	geckoClient := coingecko.NewClient(httpClient, coingecko.Config{
		BaseURL:       cfg.CoinGecko.BaseURL,
		APIKey:        cfg.CoinGecko.APIKey,
		RatePerMinute: cfg.CoinGecko.RatePerMinute,
	}, log)

	providers := []news.Provider{
		news.NewFeedClient(httpClient, cfg.NewsAPI.FeedURL, log),
		news.NewNewsAPIClient(httpClient, cfg.NewsAPI.BaseURL, cfg.NewsAPI.APIKey, log),
	}
	aggregator := news.NewAggregator(providers, news.AggregatorConfig{}, log)

	fetcher := marketdata.NewFetcher(
		geckoClient,
		aggregator,
		redis.NewCache(redisClient, "cryptofolio"),
		redis.NewRateLimiter(redisClient, "cryptofolio"),
		marketdata.Config{
			PriceCacheTTL:     cfg.Trading.PriceCacheTTL,
			UpstreamPerMinute: cfg.CoinGecko.RatePerMinute,
			RequestTimeout:    cfg.CoinGecko.RequestTimeout,
		},
		log,
	)

	historyRepo := history.NewRepository(db.Pool)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := historyRepo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure orders schema: %w", err)
	}

	account := ledger.NewAccount(decimal.NewFromFloat(cfg.Trading.StartingCashUSD))

	executor := execution.New(account, historyRepo, execution.Config{
		SlippageBps:    cfg.Trading.SlippageBps,
		FeeBps:         cfg.Trading.FeeBps,
		MinTradeUSD:    cfg.Trading.MinTradeUSD,
		MaxPositionPct: cfg.Trading.MaxPositionPct,
	}, log)

	return &app{
		cfg:      cfg,
		logger:   log,
		db:       db,
		redis:    redisClient,
		fetcher:  fetcher,
		account:  account,
		executor: executor,
		history:  historyRepo,
		rebalancer: rebalance.New(rebalance.Config{
			MinTradeUSD:  cfg.Trading.MinTradeUSD,
			ToleranceBps: cfg.Trading.RebalanceToleranceBps,
		}),
		advisor: advisor.New(advisor.Config{FocusSymbol: "BTC"}, log),
	}, nil
}

// close releases the app's connections.
func (a *app) close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}
