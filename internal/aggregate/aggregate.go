// Package aggregate combines expert opinions across timeframes into one net
// directional decision per symbol.
package aggregate

import (
	"github.com/google/uuid"

	"commander/internal/analysis/indicator"
	"commander/internal/expert"
	"commander/internal/market"
	"commander/internal/meta"
	"commander/internal/regime"
	"commander/internal/scheduler"
)

// decisionBand is the hysteresis band around zero; nets inside it stay
// flat so noise-level signals do not churn orders.
const decisionBand = 0.05

// DefaultTimeframeWeights blends short/medium/long horizons.
func DefaultTimeframeWeights() map[string]float64 {
	return map[string]float64{"15m": 0.3, "30m": 0.3, "1h": 0.4}
}

// Decision is the aggregator output for one symbol in one cycle.
type Decision struct {
	TraceID   string
	Symbol    string
	Direction int
	Strength  float64
	Net       float64
	// Votes holds the primary-timeframe expert signals for P&L
	// attribution when the resulting position closes.
	Votes map[string]expert.Signal
}

type Aggregator struct {
	panel     []expert.Expert
	detector  *regime.Detector
	learner   *meta.Learner
	tfWeights map[string]float64
	primaryTF string
}

func New(panel []expert.Expert, detector *regime.Detector, learner *meta.Learner, tfWeights map[string]float64) *Aggregator {
	if len(tfWeights) == 0 {
		tfWeights = DefaultTimeframeWeights()
	}
	return &Aggregator{
		panel:     panel,
		detector:  detector,
		learner:   learner,
		tfWeights: tfWeights,
		primaryTF: primaryTimeframe(tfWeights),
	}
}

// Timeframes lists the configured timeframes from shortest to longest.
func (a *Aggregator) Timeframes() []string {
	out := make([]string, 0, len(a.tfWeights))
	for tf := range a.tfWeights {
		out = append(out, tf)
	}
	return scheduler.SortIntervals(out)
}

// PrimaryTimeframe is the highest-weighted horizon; filters and position
// management read from it.
func (a *Aggregator) PrimaryTimeframe() string { return a.primaryTF }

// Evaluate blends every expert's regime- and performance-weighted vote over
// the available timeframe windows. Missing windows contribute nothing; a
// symbol with no usable window at all comes out flat.
func (a *Aggregator) Evaluate(symbol string, windows map[string][]market.Candle) Decision {
	dec := Decision{
		TraceID: uuid.NewString(),
		Symbol:  symbol,
		Votes:   make(map[string]expert.Signal, len(a.panel)),
	}
	var combined float64
	for tf, tfWeight := range a.tfWeights {
		window := windows[tf]
		if len(window) == 0 {
			continue
		}
		snap := indicator.Compute(window)
		regimeWeights := a.detector.Weights(snap).Normalized()
		var net float64
		for _, e := range a.panel {
			sig := e.Signal(window).Clamped()
			if tf == a.primaryTF {
				dec.Votes[e.Name()] = sig
			}
			if sig.Direction == 0 {
				continue
			}
			net += float64(sig.Direction) * sig.Strength *
				expert.RegimeWeight(e, regimeWeights) * a.learner.Weight(e.Name())
		}
		combined += net * tfWeight
	}
	dec.Net = combined
	switch {
	case combined > decisionBand:
		dec.Direction = 1
	case combined < -decisionBand:
		dec.Direction = -1
	}
	if dec.Direction != 0 {
		dec.Strength = min1(abs(combined))
	}
	return dec
}

func primaryTimeframe(weights map[string]float64) string {
	best := ""
	bestW := -1.0
	for tf, w := range weights {
		if w > bestW || (w == bestW && tf > best) {
			best, bestW = tf, w
		}
	}
	return best
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func min1(v float64) float64 {
	if v > 1 {
		return 1
	}
	return v
}
