package news

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/cryptofolio/backend/internal/contracts"
	"github.com/cryptofolio/backend/pkg/httputil"
	"github.com/cryptofolio/backend/pkg/logger"
)

const defaultFeedURL = "https://www.coindesk.com/arc/outboundfeeds/rss/"

// FeedClient scrapes an RSS feed. It needs no API key, so it is the
// fallback provider when NewsAPI is not configured.
type FeedClient struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	feedURL    string
}

// NewFeedClient creates an RSS feed provider.
func NewFeedClient(httpClient *httputil.Client, feedURL string, log *logger.Logger) *FeedClient {
	if feedURL == "" {
		feedURL = defaultFeedURL
	}
	return &FeedClient{
		httpClient: httpClient,
		logger:     log.WithField("module", "newsfeed"),
		feedURL:    feedURL,
	}
}

// Name implements Provider.
func (c *FeedClient) Name() string { return "feed" }

// Fetch downloads and parses the feed. The symbols argument only
// drives relevance tagging; the feed itself is not filterable.
func (c *FeedClient) Fetch(ctx context.Context, symbols []string) ([]contracts.Article, error) {
	resp, err := c.httpClient.Get(ctx, c.feedURL)
	if err != nil {
		return nil, fmt.Errorf("feed request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed unexpected status code: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	articles := make([]contracts.Article, 0, 20)
	doc.Find("item").EachWithBreak(func(_ int, item *goquery.Selection) bool {
		title := strings.TrimSpace(item.Find("title").Text())
		if title == "" {
			return true
		}

		articles = append(articles, contracts.Article{
			Title:           title,
			Description:     strings.TrimSpace(item.Find("description").Text()),
			URL:             itemLink(item),
			PublishedAt:     parseFeedDate(item.Find("pubDate").Text()),
			Source:          c.Name(),
			RelevantSymbols: extractSymbols(title + " " + item.Find("description").Text()),
		})
		return len(articles) < 20
	})

	c.logger.WithField("count", len(articles)).Debug("Fetched feed articles")
	return articles, nil
}

// itemLink extracts the item URL. The HTML parser treats <link> as a
// void element, which leaves the URL in the following text node.
func itemLink(item *goquery.Selection) string {
	link := item.Find("link")
	if text := strings.TrimSpace(link.Text()); text != "" {
		return text
	}
	if len(link.Nodes) > 0 && link.Nodes[0].NextSibling != nil {
		if text := strings.TrimSpace(link.Nodes[0].NextSibling.Data); text != "" {
			return text
		}
	}
	return strings.TrimSpace(item.Find("guid").Text())
}

// parseFeedDate handles the date formats seen across RSS feeds.
func parseFeedDate(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{time.RFC1123Z, time.RFC1123, time.RFC3339} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed.UTC()
		}
	}
	return time.Now().UTC()
}
