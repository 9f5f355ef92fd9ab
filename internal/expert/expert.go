// Package expert hosts the independent signal generators. Every expert is
// stateless across calls: it sees only the candle window it is handed and
// may never abort the evaluation cycle. Faulty or short input degrades to
// the neutral signal with the cause carried in the reason field.
package expert

import (
	"commander/internal/market"
	"commander/internal/regime"
)

// Regime names the market character an expert is tuned for. The aggregator
// scales each expert's contribution by the matching regime weight.
type Regime int

const (
	RegimeTrend Regime = iota
	RegimeRange
	RegimeBreakout
)

// Signal is one expert's opinion on one symbol. Direction is -1, 0 or 1;
// 0 means no opinion. Strength is clamped to [0,1].
type Signal struct {
	Direction int     `json:"direction"`
	Strength  float64 `json:"strength"`
	Reason    string  `json:"reason"`
}

// Neutral is the signal every degraded path collapses to.
func Neutral(reason string) Signal {
	return Signal{Direction: 0, Strength: 0, Reason: reason}
}

// Clamped returns the signal with strength forced into [0,1] and direction
// forced into {-1,0,1}.
func (s Signal) Clamped() Signal {
	if s.Strength < 0 {
		s.Strength = 0
	}
	if s.Strength > 1 {
		s.Strength = 1
	}
	switch {
	case s.Direction > 0:
		s.Direction = 1
	case s.Direction < 0:
		s.Direction = -1
	}
	return s
}

type Expert interface {
	Name() string
	// Regime declares which regime weight scales this expert's output.
	Regime() Regime
	Signal(candles []market.Candle) Signal
}

// minBars is the common lookback guard; all stock experts work on a
// 20-bar window.
const minBars = 20

// DefaultPanel returns the stock expert set in a stable order.
func DefaultPanel() []Expert {
	return []Expert{
		&TrendFollower{},
		&MeanRevert{},
		&Breakout{},
		&TrendPullback{},
		&VolSqueezeBreakout{},
	}
}

// RegimeWeight maps an expert's declared regime onto the detector output.
func RegimeWeight(e Expert, w regime.Weights) float64 {
	switch e.Regime() {
	case RegimeTrend:
		return w.Trend
	case RegimeRange:
		return w.Range
	case RegimeBreakout:
		return w.Breakout
	default:
		return 0
	}
}

func sma(values []float64, period int) float64 {
	if period <= 0 || len(values) < period {
		return 0
	}
	var sum float64
	for _, v := range values[len(values)-period:] {
		sum += v
	}
	return sum / float64(period)
}
