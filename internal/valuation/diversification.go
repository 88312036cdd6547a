package valuation

// DiversificationScore rates how evenly the invested value is spread
// across held symbols, from 0 (fully concentrated, or nothing held) to
// 100 (asymptotically, many equal positions).
//
// The score is the complement of the Herfindahl-Hirschman Index over
// position weights: score = (1 - sum(w_i^2)) * 100, with weights taken
// over invested value only (cash excluded). One position scores 0, N
// equal positions score 100*(1-1/N), and shifting weight into fewer
// symbols strictly lowers the score.
func DiversificationScore(positionValues map[string]float64) float64 {
	total := 0.0
	for _, value := range positionValues {
		total += value
	}
	if total <= 0 {
		return 0
	}

	hhi := 0.0
	for _, value := range positionValues {
		weight := value / total
		hhi += weight * weight
	}

	score := (1 - hhi) * 100
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
