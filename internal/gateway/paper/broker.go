// Package paper wraps a real broker for market data while simulating
// order execution, so a dry run exercises the full decision path without
// touching the venue.
package paper

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"commander/internal/gateway/exchange"
	"commander/internal/logger"
	"commander/internal/market"
)

type Broker struct {
	data exchange.Broker
}

var _ exchange.Broker = (*Broker)(nil)

func New(data exchange.Broker) *Broker {
	return &Broker{data: data}
}

func (b *Broker) FetchHistory(ctx context.Context, symbol, interval string, limit int) ([]market.Candle, error) {
	return b.data.FetchHistory(ctx, symbol, interval, limit)
}

func (b *Broker) Price(ctx context.Context, symbol string) (float64, error) {
	return b.data.Price(ctx, symbol)
}

func (b *Broker) RoundAmount(symbol string, qty float64) float64 {
	return b.data.RoundAmount(symbol, qty)
}

// PlaceOrder fills immediately at the current market price.
func (b *Broker) PlaceOrder(ctx context.Context, req exchange.OrderRequest) (*exchange.Fill, error) {
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("order quantity must be positive")
	}
	price, err := b.data.Price(ctx, req.Symbol)
	if err != nil {
		return nil, fmt.Errorf("paper fill for %s failed: %w", req.Symbol, err)
	}
	fill := &exchange.Fill{
		OrderID:  "paper-" + uuid.NewString(),
		Symbol:   req.Symbol,
		Side:     req.Side,
		Quantity: req.Quantity,
		Price:    price,
		Time:     time.Now().UTC(),
	}
	logger.Infof("paper: filled %s %s qty=%.6f price=%.4f", req.Symbol, req.Side, req.Quantity, price)
	return fill, nil
}
