package indicators

import (
	"fmt"
	"time"

	"github.com/markcheno/go-talib"
)

// Signal labels emitted by indicator interpretation.
const (
	SignalBullish = "bullish"
	SignalBearish = "bearish"
	SignalNeutral = "neutral"
)

// Standard lookback periods.
const (
	rsiPeriod       = 14
	emaFastPeriod   = 12
	emaSlowPeriod   = 26
	macdSignalSpan  = 9
	bollingerPeriod = 20
	bollingerWidth  = 2.0
)

// minCloses is the shortest series MACD can be computed on.
const minCloses = emaSlowPeriod + macdSignalSpan

// Analysis holds one symbol's technical indicator snapshot.
type Analysis struct {
	Symbol      string    `json:"symbol"`
	LastClose   float64   `json:"last_close"`
	RSI         float64   `json:"rsi"`
	RSISignal   string    `json:"rsi_signal"`
	EMAFast     float64   `json:"ema_12"`
	EMASlow     float64   `json:"ema_26"`
	MACD        float64   `json:"macd"`
	MACDSignal  float64   `json:"macd_signal"`
	MACDHist    float64   `json:"macd_histogram"`
	MACDTrend   string    `json:"macd_trend"`
	BandUpper   float64   `json:"bollinger_upper"`
	BandMiddle  float64   `json:"bollinger_middle"`
	BandLower   float64   `json:"bollinger_lower"`
	BandSignal  string    `json:"bollinger_signal"`
	Summary     string    `json:"summary"`
	SampleSize  int       `json:"sample_size"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Compute derives RSI, EMA crossover, MACD and Bollinger bands from
// daily closes, oldest first.
func Compute(symbol string, closes []float64) (Analysis, error) {
	if len(closes) < minCloses {
		return Analysis{}, fmt.Errorf("need at least %d closes for %s, got %d", minCloses, symbol, len(closes))
	}

	last := closes[len(closes)-1]

	rsi := latest(talib.Rsi(closes, rsiPeriod))
	emaFast := latest(talib.Ema(closes, emaFastPeriod))
	emaSlow := latest(talib.Ema(closes, emaSlowPeriod))

	macdLine, signalLine, hist := talib.Macd(closes, emaFastPeriod, emaSlowPeriod, macdSignalSpan)
	upper, middle, lower := talib.BBands(closes, bollingerPeriod, bollingerWidth, bollingerWidth, 0)

	analysis := Analysis{
		Symbol:      symbol,
		LastClose:   last,
		RSI:         rsi,
		RSISignal:   rsiSignal(rsi),
		EMAFast:     emaFast,
		EMASlow:     emaSlow,
		MACD:        latest(macdLine),
		MACDSignal:  latest(signalLine),
		MACDHist:    latest(hist),
		BandUpper:   latest(upper),
		BandMiddle:  latest(middle),
		BandLower:   latest(lower),
		SampleSize:  len(closes),
		GeneratedAt: time.Now().UTC(),
	}

	if analysis.MACDHist > 0 {
		analysis.MACDTrend = SignalBullish
	} else if analysis.MACDHist < 0 {
		analysis.MACDTrend = SignalBearish
	} else {
		analysis.MACDTrend = SignalNeutral
	}

	analysis.BandSignal = bandSignal(last, analysis.BandUpper, analysis.BandLower)
	analysis.Summary = summarize(analysis)

	return analysis, nil
}

func rsiSignal(rsi float64) string {
	switch {
	case rsi >= 70:
		return "overbought"
	case rsi <= 30:
		return "oversold"
	default:
		return SignalNeutral
	}
}

func bandSignal(close, upper, lower float64) string {
	switch {
	case close >= upper:
		return "above_upper"
	case close <= lower:
		return "below_lower"
	default:
		return "inside"
	}
}

// summarize votes across the individual indicators. Oversold and a
// close under the lower band count as bullish mean-reversion signals,
// mirroring how overbought counts as bearish.
func summarize(a Analysis) string {
	var bullish, bearish int

	switch a.RSISignal {
	case "oversold":
		bullish++
	case "overbought":
		bearish++
	}

	if a.EMAFast > a.EMASlow {
		bullish++
	} else if a.EMAFast < a.EMASlow {
		bearish++
	}

	switch a.MACDTrend {
	case SignalBullish:
		bullish++
	case SignalBearish:
		bearish++
	}

	switch a.BandSignal {
	case "below_lower":
		bullish++
	case "above_upper":
		bearish++
	}

	if bullish > bearish {
		return SignalBullish
	}
	if bearish > bullish {
		return SignalBearish
	}
	return SignalNeutral
}

func latest(series []float64) float64 {
	if len(series) == 0 {
		return 0
	}
	return series[len(series)-1]
}
