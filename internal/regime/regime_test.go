package regime

import (
	"testing"

	"commander/internal/analysis/indicator"

	"github.com/stretchr/testify/assert"
)

func TestTrendWeight(t *testing.T) {
	d := NewDetector(DefaultConfig())

	w := d.Weights(indicator.Snapshot{ADX14: 30, EMA50: 110, EMA200: 100})
	assert.Positive(t, w.Trend)
	assert.Zero(t, w.Range)

	// Strong ADX with a bearish EMA stack is not a (long) trend regime.
	w = d.Weights(indicator.Snapshot{ADX14: 30, EMA50: 90, EMA200: 100})
	assert.Zero(t, w.Trend)

	// ADX below the threshold never counts as trend.
	w = d.Weights(indicator.Snapshot{ADX14: 20, EMA50: 110, EMA200: 100})
	assert.Zero(t, w.Trend)
}

func TestRangeWeight(t *testing.T) {
	d := NewDetector(DefaultConfig())

	w := d.Weights(indicator.Snapshot{ADX14: 9})
	assert.InDelta(t, 0.5, w.Range, 1e-9) // (18-9)/18

	w = d.Weights(indicator.Snapshot{ADX14: 18})
	assert.Zero(t, w.Range)
}

func TestBreakoutWeight(t *testing.T) {
	d := NewDetector(DefaultConfig())

	w := d.Weights(indicator.Snapshot{ATRRatio: 1.5})
	assert.Positive(t, w.Breakout)

	w = d.Weights(indicator.Snapshot{ATRRatio: 1.1})
	assert.Zero(t, w.Breakout)
}

func TestZeroSnapshotHasZeroWeights(t *testing.T) {
	d := NewDetector(DefaultConfig())
	w := d.Weights(indicator.Snapshot{})
	assert.Zero(t, w.Trend)
	assert.Zero(t, w.Range)
	assert.Zero(t, w.Breakout)
}

func TestNormalized(t *testing.T) {
	w := Weights{Trend: 1, Range: 1, Breakout: 2}.Normalized()
	assert.InDelta(t, 0.25, w.Trend, 1e-9)
	assert.InDelta(t, 0.25, w.Range, 1e-9)
	assert.InDelta(t, 0.5, w.Breakout, 1e-9)

	// All-zero weights fall back to uniform instead of dividing by zero.
	u := Weights{}.Normalized()
	assert.InDelta(t, 1.0/3, u.Trend, 1e-9)
	assert.InDelta(t, 1.0/3, u.Range, 1e-9)
	assert.InDelta(t, 1.0/3, u.Breakout, 1e-9)
}

func TestDetectorConfigDefaults(t *testing.T) {
	d := NewDetector(Config{})
	assert.InDelta(t, 25.0, d.cfg.ADXTrendOn, 1e-9)
	assert.InDelta(t, 18.0, d.cfg.ADXRangeOff, 1e-9)
	assert.InDelta(t, 1.2, d.cfg.ATRExpansionRatio, 1e-9)
}
