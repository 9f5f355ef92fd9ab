package position

import (
	"sort"
	"sync"
)

// Registry is the in-memory open-position ledger. It enforces the
// one-open-position-per-symbol invariant; exposure accounting lives in the
// risk governor.
type Registry struct {
	mu   sync.RWMutex
	open map[string]*Position
}

func NewRegistry() *Registry {
	return &Registry{open: make(map[string]*Position)}
}

// Get returns the open position for the symbol, if any.
func (r *Registry) Get(symbol string) (*Position, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.open[symbol]
	return p, ok
}

// Has reports whether the symbol already holds an open position.
func (r *Registry) Has(symbol string) bool {
	_, ok := r.Get(symbol)
	return ok
}

// Open registers a new position. It returns false without replacing
// anything when the symbol is already occupied.
func (r *Registry) Open(p *Position) bool {
	if p == nil || p.Symbol == "" {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.open[p.Symbol]; exists {
		return false
	}
	r.open[p.Symbol] = p
	return true
}

// Remove drops the symbol from the ledger.
func (r *Registry) Remove(symbol string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.open, symbol)
}

// Count is the number of open positions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.open)
}

// List returns the open positions ordered by symbol for stable output.
func (r *Registry) List() []*Position {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Position, 0, len(r.open))
	for _, p := range r.open {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// BucketCounts tallies open positions per correlation bucket given the
// symbol-to-bucket assignment.
func (r *Registry) BucketCounts(bucketsMap map[string]string) map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := make(map[string]int)
	for symbol := range r.open {
		if bucket, ok := bucketsMap[symbol]; ok && bucket != "" {
			counts[bucket]++
		}
	}
	return counts
}
