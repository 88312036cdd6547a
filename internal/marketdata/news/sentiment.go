package news

import (
	"strings"

	"github.com/cryptofolio/backend/internal/contracts"
)

var positiveTerms = []string{
	"surge", "rally", "gain", "soar", "bullish", "record high",
	"adoption", "approval", "breakout", "upgrade", "partnership",
	"all-time high", "rebound", "recover", "inflow",
}

var negativeTerms = []string{
	"crash", "plunge", "drop", "bearish", "hack", "exploit",
	"fraud", "lawsuit", "ban", "selloff", "sell-off", "liquidation",
	"scam", "collapse", "outflow", "bankruptcy", "decline",
}

// scoreSentiment returns a keyword score in [-1, 1]. Zero means no
// sentiment-bearing terms were found.
func scoreSentiment(text string) float64 {
	lower := strings.ToLower(text)

	var positive, negative int
	for _, term := range positiveTerms {
		positive += strings.Count(lower, term)
	}
	for _, term := range negativeTerms {
		negative += strings.Count(lower, term)
	}

	total := positive + negative
	if total == 0 {
		return 0
	}
	return float64(positive-negative) / float64(total)
}

// labelSentiment maps a score to a label. The thresholds match the
// summary counting cutoffs.
func labelSentiment(score float64) string {
	switch {
	case score > 0.1:
		return contracts.SentimentPositive
	case score < -0.1:
		return contracts.SentimentNegative
	default:
		return contracts.SentimentNeutral
	}
}
