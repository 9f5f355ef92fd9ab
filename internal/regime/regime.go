// Package regime classifies the current market character as continuous
// trend / range / breakout weights that scale expert contributions.
package regime

import (
	"commander/internal/analysis/indicator"
)

type Config struct {
	ADXTrendOn        float64 `toml:"adx_trend_on"`
	ADXRangeOff       float64 `toml:"adx_range_off"`
	ATRExpansionRatio float64 `toml:"atr_expansion_ratio"`
}

func DefaultConfig() Config {
	return Config{
		ADXTrendOn:        25.0,
		ADXRangeOff:       18.0,
		ATRExpansionRatio: 1.2,
	}
}

// Weights are per-bar regime weights in [0,1]. They are not required to
// sum to 1; Normalized rescales them before use as selection weights.
type Weights struct {
	Trend    float64 `json:"trend"`
	Range    float64 `json:"range"`
	Breakout float64 `json:"breakout"`
}

// Normalized rescales the weights to sum to 1, falling back to uniform
// weights when all three are zero.
func (w Weights) Normalized() Weights {
	sum := w.Trend + w.Range + w.Breakout
	if sum <= 0 {
		return Weights{Trend: 1.0 / 3, Range: 1.0 / 3, Breakout: 1.0 / 3}
	}
	return Weights{Trend: w.Trend / sum, Range: w.Range / sum, Breakout: w.Breakout / sum}
}

type Detector struct {
	cfg Config
}

func NewDetector(cfg Config) *Detector {
	if cfg.ADXTrendOn <= 0 {
		cfg.ADXTrendOn = DefaultConfig().ADXTrendOn
	}
	if cfg.ADXRangeOff <= 0 {
		cfg.ADXRangeOff = DefaultConfig().ADXRangeOff
	}
	if cfg.ATRExpansionRatio <= 0 {
		cfg.ATRExpansionRatio = DefaultConfig().ATRExpansionRatio
	}
	return &Detector{cfg: cfg}
}

// Weights evaluates the regime for the latest bar. A zero-valued snapshot
// (short window) produces zero weights rather than an error.
func (d *Detector) Weights(snap indicator.Snapshot) Weights {
	var w Weights
	if snap.ADX14 > d.cfg.ADXTrendOn && snap.EMA50 > snap.EMA200 && snap.EMA200 > 0 {
		w.Trend = clip01(snap.ADX14 / d.cfg.ADXTrendOn)
	}
	if snap.ADX14 > 0 && snap.ADX14 < d.cfg.ADXRangeOff {
		w.Range = clip01((d.cfg.ADXRangeOff - snap.ADX14) / d.cfg.ADXRangeOff)
	}
	if snap.ATRRatio > d.cfg.ATRExpansionRatio {
		w.Breakout = clip01(snap.ATRRatio / d.cfg.ATRExpansionRatio)
	}
	return w
}

func clip01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
