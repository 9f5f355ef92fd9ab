package expert

import "commander/internal/market"

// TrendFollower goes with the side of price relative to the 20-bar mean.
type TrendFollower struct{}

func (e *TrendFollower) Name() string   { return "trend" }
func (e *TrendFollower) Regime() Regime { return RegimeTrend }

func (e *TrendFollower) Signal(candles []market.Candle) Signal {
	if len(candles) < minBars {
		return Neutral("not enough data")
	}
	ma20 := sma(market.Closes(candles), 20)
	if ma20 <= 0 {
		return Neutral("degenerate window")
	}
	price := market.LastClose(candles)
	switch {
	case price > ma20:
		return Signal{Direction: 1, Strength: 0.8, Reason: "price above MA20 (uptrend)"}.Clamped()
	case price < ma20:
		return Signal{Direction: -1, Strength: 0.8, Reason: "price below MA20 (downtrend)"}.Clamped()
	default:
		return Neutral("price near MA20")
	}
}
