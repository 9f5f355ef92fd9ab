package expert

import "commander/internal/market"

// TrendPullback buys shallow retracements toward the 20-bar mean while the
// price still holds above it.
type TrendPullback struct{}

func (e *TrendPullback) Name() string   { return "pullback" }
func (e *TrendPullback) Regime() Regime { return RegimeTrend }

func (e *TrendPullback) Signal(candles []market.Candle) Signal {
	if len(candles) < minBars {
		return Neutral("not enough data")
	}
	ma20 := sma(market.Closes(candles), 20)
	if ma20 <= 0 {
		return Neutral("degenerate window")
	}
	price := market.LastClose(candles)
	switch {
	case price > ma20*1.02:
		return Neutral("too far above MA20")
	case price > ma20:
		return Signal{Direction: 1, Strength: 0.7, Reason: "pullback near MA20 in uptrend"}.Clamped()
	default:
		return Neutral("not in uptrend")
	}
}
