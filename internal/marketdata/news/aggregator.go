package news

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cryptofolio/backend/internal/contracts"
	"github.com/cryptofolio/backend/pkg/logger"
)

// AggregatorConfig tunes article scoring.
type AggregatorConfig struct {
	// RecencyHalfLife is the age at which an article's recency score
	// halves.
	RecencyHalfLife time.Duration
	// CredibilityWeights maps provider name to a weight in (0, 1].
	// Unknown providers get 0.5.
	CredibilityWeights map[string]float64
}

// Aggregator fans out to all providers, deduplicates the articles and
// scores them by sentiment, recency and source credibility.
type Aggregator struct {
	providers []Provider
	cfg       AggregatorConfig
	logger    *logger.Logger
	now       func() time.Time
}

// NewAggregator creates an Aggregator over the given providers.
func NewAggregator(providers []Provider, cfg AggregatorConfig, log *logger.Logger) *Aggregator {
	if cfg.RecencyHalfLife <= 0 {
		cfg.RecencyHalfLife = 4 * time.Hour
	}
	if cfg.CredibilityWeights == nil {
		cfg.CredibilityWeights = map[string]float64{
			"newsapi": 0.8,
			"feed":    0.9,
		}
	}
	return &Aggregator{
		providers: providers,
		cfg:       cfg,
		logger:    log.WithField("module", "news"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Fetch gathers articles from every provider concurrently. A provider
// failure is logged and skipped; the call fails only when every
// provider fails.
func (a *Aggregator) Fetch(ctx context.Context, symbols []string) ([]contracts.Article, error) {
	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		articles []contracts.Article
		failures int
	)

	for _, provider := range a.providers {
		wg.Add(1)
		go func(p Provider) {
			defer wg.Done()

			fetched, err := p.Fetch(ctx, symbols)
			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				failures++
				a.logger.WithError(err).WithField("provider", p.Name()).Warn("News provider failed")
				return
			}
			articles = append(articles, fetched...)
		}(provider)
	}
	wg.Wait()

	if len(a.providers) > 0 && failures == len(a.providers) {
		return nil, fmt.Errorf("all %d news providers failed", failures)
	}

	scored := a.score(deduplicate(articles))
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Relevance > scored[j].Relevance
	})
	return scored, nil
}

// ForSymbol returns the top articles mentioning one symbol.
func (a *Aggregator) ForSymbol(ctx context.Context, symbol string, limit int) ([]contracts.Article, error) {
	if limit <= 0 {
		limit = 10
	}

	all, err := a.Fetch(ctx, []string{symbol})
	if err != nil {
		return nil, err
	}

	matched := make([]contracts.Article, 0, limit)
	for _, article := range all {
		for _, s := range article.RelevantSymbols {
			if s == symbol {
				matched = append(matched, article)
				break
			}
		}
		if len(matched) == limit {
			break
		}
	}
	return matched, nil
}

// Summarize counts sentiment labels and picks the dominant one.
func Summarize(articles []contracts.Article) (string, map[string]int) {
	counts := map[string]int{
		contracts.SentimentPositive: 0,
		contracts.SentimentNegative: 0,
		contracts.SentimentNeutral:  0,
	}
	for _, article := range articles {
		counts[article.Sentiment]++
	}

	overall := contracts.SentimentNeutral
	if counts[contracts.SentimentPositive] > counts[contracts.SentimentNegative] {
		overall = contracts.SentimentPositive
	} else if counts[contracts.SentimentNegative] > counts[contracts.SentimentPositive] {
		overall = contracts.SentimentNegative
	}
	return overall, counts
}

func (a *Aggregator) score(articles []contracts.Article) []contracts.Article {
	now := a.now()
	for i := range articles {
		score := scoreSentiment(articles[i].Title + " " + articles[i].Description)
		articles[i].Sentiment = labelSentiment(score)

		age := now.Sub(articles[i].PublishedAt)
		if age < 0 {
			age = 0
		}
		recency := math.Exp2(-age.Minutes() / a.cfg.RecencyHalfLife.Minutes())

		credibility, ok := a.cfg.CredibilityWeights[articles[i].Source]
		if !ok {
			credibility = 0.5
		}

		articles[i].Relevance = math.Abs(score) * recency * credibility
	}
	return articles
}

// deduplicate drops repeated URLs and titles, keeping first occurrence
// so provider ordering decides the survivor.
func deduplicate(articles []contracts.Article) []contracts.Article {
	seenURLs := make(map[string]struct{}, len(articles))
	seenTitles := make(map[string]struct{}, len(articles))

	unique := make([]contracts.Article, 0, len(articles))
	for _, article := range articles {
		titleKey := strings.ToLower(strings.Join(strings.Fields(article.Title), " "))

		if article.URL != "" {
			if _, dup := seenURLs[article.URL]; dup {
				continue
			}
		}
		if _, dup := seenTitles[titleKey]; dup {
			continue
		}

		if article.URL != "" {
			seenURLs[article.URL] = struct{}{}
		}
		seenTitles[titleKey] = struct{}{}
		unique = append(unique, article)
	}
	return unique
}
