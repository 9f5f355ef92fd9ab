// Package sizing converts an approved signal into stop/target levels and a
// risk-based, Kelly-capped quantity.
package sizing

import "math"

const (
	// DefaultKATR is the ATR multiple for the initial stop distance.
	DefaultKATR = 2.0
	// DefaultRR1 and DefaultRR2 are the reward:risk multiples for the two
	// take-profit levels.
	DefaultRR1 = 1.5
	DefaultRR2 = 2.5
)

// Levels bundles the stop and the two take-profit prices for an entry.
type Levels struct {
	StopLoss    float64
	TakeProfit1 float64
	TakeProfit2 float64
}

// ComputeSLTP derives the stop and targets from entry price and ATR.
// side is 1 for long, -1 for short. Targets sit at rr1/rr2 multiples of the
// stop distance.
func ComputeSLTP(price, atr, kATR, rr1, rr2 float64, side int) Levels {
	if kATR <= 0 {
		kATR = DefaultKATR
	}
	if rr1 <= 0 {
		rr1 = DefaultRR1
	}
	if rr2 <= 0 {
		rr2 = DefaultRR2
	}
	s := float64(side)
	sl := price - s*kATR*atr
	rrDist := math.Abs(price - sl)
	return Levels{
		StopLoss:    sl,
		TakeProfit1: price + s*rr1*rrDist,
		TakeProfit2: price + s*rr2*rrDist,
	}
}

// PositionSizeByRisk returns the raw quantity that puts riskPerTrade of
// equity at risk between price and stop. A near-zero stop distance yields
// zero rather than a division blow-up; callers round to the venue step.
func PositionSizeByRisk(equity, riskPerTrade, price, sl float64) float64 {
	usdRisk := equity * riskPerTrade
	slDist := math.Abs(price - sl)
	if slDist <= 1e-12 {
		return 0
	}
	return usdRisk / slDist
}

// StrengthToProb maps signal strength onto a crude calibrated win
// probability, floored at 0.45 and capped at 0.66.
func StrengthToProb(strength float64) float64 {
	return math.Max(0.45, math.Min(0.66, 0.46+0.2*strength))
}

// KellyFraction is the optimal bet fraction for win probability p and
// reward:risk R, clipped to [0, 0.5].
func KellyFraction(p, r float64) float64 {
	if r <= 0 {
		return 0
	}
	f := (p*r - (1 - p)) / r
	return math.Max(0, math.Min(0.5, f))
}

// KellyMultiplier is the fractional-Kelly quantity scaler: never below
// half-size, never above the full Kelly-adjusted size.
func KellyMultiplier(p, r float64) float64 {
	return 0.5 + KellyFraction(p, r)
}

// ExpectedUtility is the entry gate p*R - (1-p); candidates with
// non-positive utility are skipped.
func ExpectedUtility(p, r float64) float64 {
	return p*r - (1 - p)
}
