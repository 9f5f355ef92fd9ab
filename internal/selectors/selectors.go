// Package selectors ranks candidate symbols by momentum and prunes the
// list so highly correlated pairs do not stack into one bet.
package selectors

import (
	"math"
	"sort"

	"commander/internal/market"
)

const momentumLookback = 24

// Ranked is one symbol with its momentum score.
type Ranked struct {
	Symbol   string
	Momentum float64
}

// RankByMomentum orders symbols by lookback return, strongest first.
// Symbols with too little history rank at the bottom with zero momentum.
func RankByMomentum(data map[string][]market.Candle) []Ranked {
	out := make([]Ranked, 0, len(data))
	for symbol, candles := range data {
		out = append(out, Ranked{Symbol: symbol, Momentum: momentum(candles)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Momentum != out[j].Momentum {
			return out[i].Momentum > out[j].Momentum
		}
		return out[i].Symbol < out[j].Symbol
	})
	return out
}

func momentum(candles []market.Candle) float64 {
	if len(candles) <= momentumLookback {
		return 0
	}
	past := candles[len(candles)-1-momentumLookback].Close
	if past <= 0 {
		return 0
	}
	return market.LastClose(candles)/past - 1
}

// PickDiversified walks the ranking and keeps at most topK symbols whose
// close-return correlation with every already accepted symbol stays at or
// below the threshold.
func PickDiversified(ranked []Ranked, data map[string][]market.Candle, topK int, corrThreshold float64) map[string]bool {
	if topK <= 0 {
		topK = len(ranked)
	}
	accepted := make(map[string]bool, topK)
	var acceptedReturns [][]float64
	for _, r := range ranked {
		if len(accepted) >= topK {
			break
		}
		returns := closeReturns(data[r.Symbol])
		if len(returns) == 0 {
			continue
		}
		ok := true
		for _, other := range acceptedReturns {
			if math.Abs(correlation(returns, other)) > corrThreshold {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		accepted[r.Symbol] = true
		acceptedReturns = append(acceptedReturns, returns)
	}
	return accepted
}

func closeReturns(candles []market.Candle) []float64 {
	if len(candles) < 2 {
		return nil
	}
	out := make([]float64, 0, len(candles)-1)
	for i := 1; i < len(candles); i++ {
		prev := candles[i-1].Close
		if prev <= 0 {
			continue
		}
		out = append(out, candles[i].Close/prev-1)
	}
	return out
}

// correlation is the Pearson coefficient over the overlapping tail of the
// two series.
func correlation(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n < 2 {
		return 0
	}
	a = a[len(a)-n:]
	b = b[len(b)-n:]
	var meanA, meanB float64
	for i := 0; i < n; i++ {
		meanA += a[i]
		meanB += b[i]
	}
	meanA /= float64(n)
	meanB /= float64(n)
	var cov, varA, varB float64
	for i := 0; i < n; i++ {
		da := a[i] - meanA
		db := b[i] - meanB
		cov += da * db
		varA += da * da
		varB += db * db
	}
	if varA == 0 || varB == 0 {
		return 0
	}
	return cov / math.Sqrt(varA*varB)
}
