package expert

import "commander/internal/market"

// MeanRevert fades price when it has stretched more than 5% away from the
// 20-bar mean.
type MeanRevert struct{}

func (e *MeanRevert) Name() string   { return "mean_revert" }
func (e *MeanRevert) Regime() Regime { return RegimeRange }

func (e *MeanRevert) Signal(candles []market.Candle) Signal {
	if len(candles) < minBars {
		return Neutral("not enough data")
	}
	ma20 := sma(market.Closes(candles), 20)
	if ma20 <= 0 {
		return Neutral("degenerate window")
	}
	price := market.LastClose(candles)
	diff := (price - ma20) / ma20
	switch {
	case diff > 0.05:
		return Signal{Direction: -1, Strength: 0.6, Reason: "price stretched above MA20"}.Clamped()
	case diff < -0.05:
		return Signal{Direction: 1, Strength: 0.6, Reason: "price stretched below MA20"}.Clamped()
	default:
		return Neutral("near mean")
	}
}
