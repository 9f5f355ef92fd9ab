package expert

import "commander/internal/market"

// Breakout fires when price clears the 20-bar high/low channel.
type Breakout struct{}

func (e *Breakout) Name() string   { return "breakout" }
func (e *Breakout) Regime() Regime { return RegimeBreakout }

func (e *Breakout) Signal(candles []market.Candle) Signal {
	if len(candles) < minBars {
		return Neutral("not enough data")
	}
	// Channel over the bars preceding the current one, so a fresh extreme
	// counts as a break rather than its own ceiling.
	window := candles[len(candles)-minBars : len(candles)-1]
	high20, low20 := channel(window)
	price := market.LastClose(candles)
	switch {
	case price > high20:
		return Signal{Direction: 1, Strength: 1.0, Reason: "breakout above 20-bar high"}.Clamped()
	case price < low20:
		return Signal{Direction: -1, Strength: 1.0, Reason: "breakdown below 20-bar low"}.Clamped()
	default:
		return Neutral("inside range")
	}
}

func channel(candles []market.Candle) (high, low float64) {
	for i, c := range candles {
		if i == 0 || c.High > high {
			high = c.High
		}
		if i == 0 || c.Low < low {
			low = c.Low
		}
	}
	return high, low
}
