package expert

import (
	"math"

	"commander/internal/market"
)

// VolSqueezeBreakout waits for the Bollinger band width to compress below
// 5% of the mean, then trades the direction of the band break.
type VolSqueezeBreakout struct{}

func (e *VolSqueezeBreakout) Name() string   { return "vol_squeeze" }
func (e *VolSqueezeBreakout) Regime() Regime { return RegimeBreakout }

func (e *VolSqueezeBreakout) Signal(candles []market.Candle) Signal {
	if len(candles) < minBars {
		return Neutral("not enough data")
	}
	closes := market.Closes(candles)
	ma20 := sma(closes, 20)
	if ma20 <= 0 {
		return Neutral("degenerate window")
	}
	std20 := stddev(closes[len(closes)-20:], ma20)
	upper := ma20 + 2*std20
	lower := ma20 - 2*std20
	bandWidth := (upper - lower) / ma20
	price := market.LastClose(candles)

	if bandWidth >= 0.05 {
		return Neutral("no squeeze")
	}
	switch {
	case price > upper:
		return Signal{Direction: 1, Strength: 1.0, Reason: "bollinger squeeze breakout up"}.Clamped()
	case price < lower:
		return Signal{Direction: -1, Strength: 1.0, Reason: "bollinger squeeze breakdown"}.Clamped()
	default:
		return Neutral("waiting breakout")
	}
}

func stddev(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}
