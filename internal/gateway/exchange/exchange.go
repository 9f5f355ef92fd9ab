// Package exchange defines the broker abstraction the engine trades
// through. Execution details beyond fill price and success are opaque to
// the decision core.
package exchange

import (
	"context"
	"time"

	"commander/internal/market"
)

// OrderRequest describes one market order intent.
type OrderRequest struct {
	Symbol     string  // e.g. "BTC/USDT"
	Side       string  // "buy" or "sell"
	Quantity   float64 // absolute, already rounded to the venue step
	ReduceOnly bool
	Tag        string // entry/exit reason for the audit trail
}

// Fill is the reported outcome of a submitted order.
type Fill struct {
	OrderID  string
	Symbol   string
	Side     string
	Quantity float64
	Price    float64
	Time     time.Time
}

// Broker is the full collaborator contract: market data, price quotes,
// order submission and venue lot rounding.
type Broker interface {
	market.Source

	Price(ctx context.Context, symbol string) (float64, error)

	// PlaceOrder submits a market order. A nil error with a nil fill
	// never happens; failures leave position state untouched.
	PlaceOrder(ctx context.Context, req OrderRequest) (*Fill, error)

	// RoundAmount floors the quantity to the venue's tradable step and
	// discards dust below the minimum tradable size (returns 0).
	RoundAmount(symbol string, qty float64) float64
}
