package meta

import (
	"math/rand"
	"testing"

	"commander/internal/expert"

	"github.com/stretchr/testify/assert"
)

var panelNames = []string{"trend", "mean_revert", "breakout"}

func TestUnknownExpertFailsOpen(t *testing.T) {
	l := NewLearner(0.9, panelNames)
	assert.InDelta(t, 1.0, l.Weight("no-such-expert"), 1e-9)
}

func TestInitialWeightsAreOne(t *testing.T) {
	l := NewLearner(0.9, panelNames)
	for _, name := range panelNames {
		assert.InDelta(t, 1.0, l.Weight(name), 1e-9)
	}
}

func TestUpdateMovesWeightWithOutcome(t *testing.T) {
	l := NewLearner(0.9, panelNames)
	votes := map[string]expert.Signal{
		"trend":       {Direction: 1, Strength: 0.8},
		"mean_revert": {Direction: -1, Strength: 0.6},
	}

	l.Update(votes, 1.0) // profitable long

	assert.Greater(t, l.Weight("trend"), 1.0, "aligned expert gains weight")
	assert.Less(t, l.Weight("mean_revert"), 1.0, "opposed expert loses weight")
	assert.InDelta(t, 1.0, l.Weight("breakout"), 1e-9, "non-voter untouched")
}

func TestWeightsStayClamped(t *testing.T) {
	l := NewLearner(0.9, panelNames)
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 5000; i++ {
		votes := map[string]expert.Signal{
			"trend":       {Direction: 1 - 2*(i%2), Strength: rng.Float64()},
			"mean_revert": {Direction: 1, Strength: rng.Float64()},
		}
		l.Update(votes, (rng.Float64()-0.5)*1e6)
		for _, name := range panelNames {
			w := l.Weight(name)
			assert.GreaterOrEqual(t, w, 0.0)
			assert.LessOrEqual(t, w, 2.0)
		}
	}
}

func TestUpdateIgnoresUnknownVoters(t *testing.T) {
	l := NewLearner(0.9, panelNames)
	l.Update(map[string]expert.Signal{"ghost": {Direction: 1, Strength: 1}}, 100)
	assert.InDelta(t, 1.0, l.Weight("ghost"), 1e-9)
	assert.Empty(t, l.PerfHistory("ghost"))
}

func TestNormalizeWeights(t *testing.T) {
	l := NewLearner(0.9, panelNames)
	l.Update(map[string]expert.Signal{"trend": {Direction: 1, Strength: 1}}, 5)
	l.NormalizeWeights()

	var total float64
	for _, w := range l.Weights() {
		total += w
	}
	assert.InDelta(t, 1.0, total, 1e-9)
}

func TestPerfHistoryBounded(t *testing.T) {
	l := NewLearner(0.9, panelNames)
	votes := map[string]expert.Signal{"trend": {Direction: 1, Strength: 0.5}}
	for i := 0; i < historyCap+100; i++ {
		l.Update(votes, 1)
	}
	hist := l.PerfHistory("trend")
	assert.Len(t, hist, historyCap)
	// Oldest first: the series is monotonically approaching its fixed point,
	// so the last sample dominates the first.
	assert.Greater(t, hist[len(hist)-1], hist[0])
}

func TestDecayOutOfRangeFallsBack(t *testing.T) {
	l := NewLearner(1.5, panelNames)
	assert.InDelta(t, defaultDecay, l.decay, 1e-9)
}
