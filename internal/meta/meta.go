// Package meta maintains the adaptive per-expert performance weights. The
// learner is the only writer of the weight table; the aggregator reads it.
package meta

import (
	"sync"

	"commander/internal/expert"
)

const (
	defaultDecay = 0.9
	historyCap   = 256

	minWeight = 0.0
	maxWeight = 2.0
)

// Learner smooths realized P&L attribution into a per-expert weight in
// [0,2]. Weights start at 1.0 for every configured expert.
type Learner struct {
	mu      sync.RWMutex
	decay   float64
	weights map[string]float64
	perf    map[string]float64
	history map[string]*ring
}

func NewLearner(decay float64, expertNames []string) *Learner {
	if decay <= 0 || decay >= 1 {
		decay = defaultDecay
	}
	l := &Learner{
		decay:   decay,
		weights: make(map[string]float64, len(expertNames)),
		perf:    make(map[string]float64, len(expertNames)),
		history: make(map[string]*ring, len(expertNames)),
	}
	for _, name := range expertNames {
		l.weights[name] = 1.0
		l.perf[name] = 0.0
		l.history[name] = newRing(historyCap)
	}
	return l
}

// Weight returns 1.0 for an unknown expert so a misconfigured panel fails
// open instead of silencing a signal.
func (l *Learner) Weight(name string) float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if w, ok := l.weights[name]; ok {
		return w
	}
	return 1.0
}

// Weights returns a copy of the current weight table.
func (l *Learner) Weights() map[string]float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[string]float64, len(l.weights))
	for k, v := range l.weights {
		out[k] = v
	}
	return out
}

// Update attributes one realized outcome back to the experts that voted on
// the closed position. Experts not present in the table are ignored.
func (l *Learner) Update(signals map[string]expert.Signal, realizedPnL float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for name, sig := range signals {
		if _, ok := l.weights[name]; !ok {
			continue
		}
		contrib := float64(sig.Direction) * sig.Strength * realizedPnL
		perf := l.decay*l.perf[name] + (1-l.decay)*contrib
		l.perf[name] = perf
		l.history[name].push(perf)
		l.weights[name] = clampWeight(1.0 + perf)
	}
}

// NormalizeWeights rescales the table to sum to 1. It is never applied
// automatically; callers decide whether raw or normalized weights feed the
// aggregator.
func (l *Learner) NormalizeWeights() {
	l.mu.Lock()
	defer l.mu.Unlock()
	var total float64
	for _, w := range l.weights {
		total += w
	}
	if total == 0 {
		total = 1.0
	}
	for k := range l.weights {
		l.weights[k] /= total
	}
}

// PerfHistory returns the recorded smoothed-performance series for one
// expert, oldest first.
func (l *Learner) PerfHistory(name string) []float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	r, ok := l.history[name]
	if !ok {
		return nil
	}
	return r.values()
}

func clampWeight(w float64) float64 {
	if w < minWeight {
		return minWeight
	}
	if w > maxWeight {
		return maxWeight
	}
	return w
}

// ring is a fixed-capacity buffer; the oldest entry is evicted once full.
type ring struct {
	buf   []float64
	start int
	n     int
}

func newRing(capacity int) *ring {
	return &ring{buf: make([]float64, capacity)}
}

func (r *ring) push(v float64) {
	if r.n < len(r.buf) {
		r.buf[(r.start+r.n)%len(r.buf)] = v
		r.n++
		return
	}
	r.buf[r.start] = v
	r.start = (r.start + 1) % len(r.buf)
}

func (r *ring) values() []float64 {
	out := make([]float64, r.n)
	for i := 0; i < r.n; i++ {
		out[i] = r.buf[(r.start+i)%len(r.buf)]
	}
	return out
}
