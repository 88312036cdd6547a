package advisor

import (
	"context"
	"fmt"

	"github.com/cryptofolio/backend/internal/contracts"
	"github.com/cryptofolio/backend/pkg/logger"
)

// Advisor produces a rule-based trading recommendation for one focus
// symbol from news sentiment and the current portfolio state. It only
// recommends; execution is always a separate, explicit call.
type Advisor struct {
	cfg    Config
	logger *logger.Logger
}

// Config tunes the decision thresholds.
type Config struct {
	// FocusSymbol is the asset the advisor reasons about.
	FocusSymbol string
	// MinCashToBuy gates new entries.
	MinCashToBuy float64
	// BuyCashFraction of available cash allocated on a buy signal.
	BuyCashFraction float64
	// MaxBuyUSD caps a single buy allocation.
	MaxBuyUSD float64
	// TakeProfitPnL triggers partial profit taking.
	TakeProfitPnL float64
}

// New creates an Advisor. Zero config fields fall back to defaults.
func New(cfg Config, log *logger.Logger) *Advisor {
	if cfg.FocusSymbol == "" {
		cfg.FocusSymbol = "BTC"
	}
	if cfg.MinCashToBuy <= 0 {
		cfg.MinCashToBuy = 1000
	}
	if cfg.BuyCashFraction <= 0 {
		cfg.BuyCashFraction = 0.2
	}
	if cfg.MaxBuyUSD <= 0 {
		cfg.MaxBuyUSD = 2000
	}
	if cfg.TakeProfitPnL <= 0 {
		cfg.TakeProfitPnL = 1000
	}
	return &Advisor{cfg: cfg, logger: log.WithField("module", "advisor")}
}

// Advisory is the full output: the recommendation plus the analysis
// steps it was derived from.
type Advisory struct {
	Recommendation contracts.Recommendation `json:"recommendation"`
	Market         MarketAnalysis           `json:"analysis"`
	Portfolio      PortfolioAssessment      `json:"portfolio_analysis"`
	Explanation    string                   `json:"explanation"`
}

// MarketAnalysis summarizes the market inputs to the decision.
type MarketAnalysis struct {
	Symbol        string  `json:"symbol"`
	CurrentPrice  float64 `json:"current_price"`
	PriceSource   string  `json:"price_source"`
	NewsSentiment string  `json:"news_sentiment"`
	NewsCount     int     `json:"news_count"`
	Trend         string  `json:"trend"`
}

// PortfolioAssessment summarizes the portfolio inputs.
type PortfolioAssessment struct {
	HasPosition   bool    `json:"has_position"`
	Quantity      float64 `json:"quantity"`
	UnrealizedPnL float64 `json:"unrealized_pnl"`
	CashAvailable float64 `json:"cash_available"`
	Exposure      float64 `json:"exposure"`
	RiskCapacity  string  `json:"risk_capacity"`
}

// Advise runs the analyze, assess, recommend pipeline.
func (a *Advisor) Advise(ctx context.Context, valuation contracts.ValuationSnapshot, quote contracts.Quote, articles []contracts.Article) (Advisory, error) {
	if err := ctx.Err(); err != nil {
		return Advisory{}, err
	}
	if quote.Price <= 0 {
		return Advisory{}, contracts.ErrPriceUnavailable
	}

	market := a.analyzeMarket(quote, articles)
	portfolio := a.assessPortfolio(valuation)
	recommendation := a.recommend(market, portfolio)

	advisory := Advisory{
		Recommendation: recommendation,
		Market:         market,
		Portfolio:      portfolio,
		Explanation:    explain(market, portfolio, recommendation),
	}

	a.logger.WithFields(map[string]interface{}{
		"symbol":     recommendation.Symbol,
		"action":     recommendation.Action,
		"confidence": recommendation.Confidence,
	}).Info("Advisory generated")

	return advisory, nil
}

func (a *Advisor) analyzeMarket(quote contracts.Quote, articles []contracts.Article) MarketAnalysis {
	return MarketAnalysis{
		Symbol:        a.cfg.FocusSymbol,
		CurrentPrice:  quote.Price,
		PriceSource:   quote.Source,
		NewsSentiment: dominantSentiment(articles),
		NewsCount:     len(articles),
		Trend:         trendFromChange(quote.Change24h),
	}
}

func (a *Advisor) assessPortfolio(v contracts.ValuationSnapshot) PortfolioAssessment {
	assessment := PortfolioAssessment{CashAvailable: v.Cash}

	for _, pos := range v.Positions {
		if pos.Symbol == a.cfg.FocusSymbol {
			assessment.HasPosition = true
			assessment.Quantity = pos.Quantity
			assessment.UnrealizedPnL = pos.PnL
			break
		}
	}

	if v.TotalValue > 0 {
		assessment.Exposure = (v.TotalValue - v.Cash) / v.TotalValue
	}

	switch {
	case v.Cash > 5000:
		assessment.RiskCapacity = "high"
	case v.Cash > 1000:
		assessment.RiskCapacity = "medium"
	default:
		assessment.RiskCapacity = "low"
	}
	return assessment
}

func (a *Advisor) recommend(market MarketAnalysis, portfolio PortfolioAssessment) contracts.Recommendation {
	symbol := a.cfg.FocusSymbol
	price := market.CurrentPrice

	switch {
	case !portfolio.HasPosition && market.NewsSentiment == contracts.SentimentPositive && portfolio.CashAvailable > a.cfg.MinCashToBuy:
		buyAmount := portfolio.CashAvailable * a.cfg.BuyCashFraction
		if buyAmount > a.cfg.MaxBuyUSD {
			buyAmount = a.cfg.MaxBuyUSD
		}
		target := price * 1.1
		stop := price * 0.95

		return contracts.Recommendation{
			Action:     "buy",
			Symbol:     symbol,
			Quantity:   buyAmount / price,
			Confidence: 0.7,
			Reasoning: fmt.Sprintf("Positive sentiment with $%.2f available cash. Allocating $%.2f (%.0f%% of cash).",
				portfolio.CashAvailable, buyAmount, a.cfg.BuyCashFraction*100),
			RiskLevel:   "medium",
			TargetPrice: &target,
			StopLoss:    &stop,
		}

	case portfolio.HasPosition && market.NewsSentiment == contracts.SentimentNegative:
		sellQuantity := portfolio.Quantity * 0.5
		return contracts.Recommendation{
			Action:     "sell",
			Symbol:     symbol,
			Quantity:   sellQuantity,
			Confidence: 0.6,
			Reasoning: fmt.Sprintf("Negative sentiment suggests reducing exposure. Selling 50%% of position (%.6f %s).",
				sellQuantity, symbol),
			RiskLevel: "low",
		}

	case portfolio.HasPosition && portfolio.UnrealizedPnL > a.cfg.TakeProfitPnL:
		sellQuantity := portfolio.Quantity * 0.3
		return contracts.Recommendation{
			Action:     "sell",
			Symbol:     symbol,
			Quantity:   sellQuantity,
			Confidence: 0.8,
			Reasoning: fmt.Sprintf("Position showing good profits ($%.2f). Taking 30%% off.",
				portfolio.UnrealizedPnL),
			RiskLevel: "low",
		}

	default:
		return contracts.Recommendation{
			Action:     "hold",
			Symbol:     symbol,
			Confidence: 0.5,
			Reasoning: fmt.Sprintf("Mixed signals (sentiment: %s, has_position: %t, cash: $%.2f). Waiting for a clearer opportunity.",
				market.NewsSentiment, portfolio.HasPosition, portfolio.CashAvailable),
			RiskLevel: "low",
		}
	}
}

func explain(market MarketAnalysis, portfolio PortfolioAssessment, rec contracts.Recommendation) string {
	return fmt.Sprintf(
		"Current %s price: $%.2f (%s) | News sentiment: %s (%d articles) | Cash: $%.2f | Position: %.6f %s | Action: %s | Confidence: %.0f%% | %s",
		market.Symbol, market.CurrentPrice, market.PriceSource,
		market.NewsSentiment, market.NewsCount,
		portfolio.CashAvailable, portfolio.Quantity, market.Symbol,
		rec.Action, rec.Confidence*100, rec.Reasoning,
	)
}

// dominantSentiment tallies the top articles, which are already
// ordered by relevance.
func dominantSentiment(articles []contracts.Article) string {
	if len(articles) > 5 {
		articles = articles[:5]
	}

	var positive, negative int
	for _, article := range articles {
		switch article.Sentiment {
		case contracts.SentimentPositive:
			positive++
		case contracts.SentimentNegative:
			negative++
		}
	}

	if positive > negative {
		return contracts.SentimentPositive
	}
	if negative > positive {
		return contracts.SentimentNegative
	}
	return contracts.SentimentNeutral
}

func trendFromChange(change24h float64) string {
	switch {
	case change24h > 5:
		return "very_bullish"
	case change24h > 1:
		return "bullish"
	case change24h < -5:
		return "very_bearish"
	case change24h < -1:
		return "bearish"
	default:
		return "neutral"
	}
}
