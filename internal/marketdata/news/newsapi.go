package news

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cryptofolio/backend/internal/contracts"
	"github.com/cryptofolio/backend/pkg/httputil"
	"github.com/cryptofolio/backend/pkg/logger"
)

// NewsAPIClient fetches articles from newsapi.org.
type NewsAPIClient struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	apiKey     string
}

// NewNewsAPIClient creates a NewsAPI provider. An empty API key yields
// a provider that returns no articles, so the aggregator can still run
// on the feed provider alone.
func NewNewsAPIClient(httpClient *httputil.Client, baseURL, apiKey string, log *logger.Logger) *NewsAPIClient {
	if baseURL == "" {
		baseURL = "https://newsapi.org/v2"
	}
	return &NewsAPIClient{
		httpClient: httpClient,
		logger:     log.WithField("module", "newsapi"),
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
	}
}

// Name implements Provider.
func (c *NewsAPIClient) Name() string { return "newsapi" }

type newsAPIResponse struct {
	Status   string `json:"status"`
	Articles []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
		Source      struct {
			Name string `json:"name"`
		} `json:"source"`
	} `json:"articles"`
}

// Fetch queries the everything endpoint for crypto coverage of the
// given symbols.
func (c *NewsAPIClient) Fetch(ctx context.Context, symbols []string) ([]contracts.Article, error) {
	if c.apiKey == "" {
		return nil, nil
	}

	terms := make([]string, 0, len(symbols))
	for _, symbol := range symbols {
		terms = append(terms, fmt.Sprintf("%q", symbol))
	}

	params := url.Values{}
	params.Set("q", "cryptocurrency OR crypto OR "+strings.Join(terms, " OR "))
	params.Set("language", "en")
	params.Set("sortBy", "publishedAt")
	params.Set("pageSize", "20")

	fullURL := fmt.Sprintf("%s/everything?%s", c.baseURL, params.Encode())

	resp, err := c.httpClient.GetWithHeaders(ctx, fullURL, map[string]string{
		"X-Api-Key": c.apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("newsapi request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("newsapi unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read newsapi response: %w", err)
	}

	var parsed newsAPIResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse newsapi response: %w", err)
	}

	articles := make([]contracts.Article, 0, len(parsed.Articles))
	for _, raw := range parsed.Articles {
		if raw.Title == "" {
			continue
		}
		publishedAt, err := time.Parse(time.RFC3339, raw.PublishedAt)
		if err != nil {
			publishedAt = time.Now().UTC()
		}

		articles = append(articles, contracts.Article{
			Title:           raw.Title,
			Description:     raw.Description,
			URL:             raw.URL,
			PublishedAt:     publishedAt,
			Source:          c.Name(),
			RelevantSymbols: extractSymbols(raw.Title + " " + raw.Description),
		})
	}

	c.logger.WithField("count", len(articles)).Debug("Fetched NewsAPI articles")
	return articles, nil
}
