package paper

import (
	"context"
	"errors"
	"strings"
	"testing"

	"commander/internal/gateway/exchange"
	"commander/internal/market"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubData struct {
	price    float64
	priceErr error
}

func (s *stubData) FetchHistory(context.Context, string, string, int) ([]market.Candle, error) {
	return []market.Candle{{Close: s.price}}, nil
}

func (s *stubData) Price(context.Context, string) (float64, error) {
	return s.price, s.priceErr
}

func (s *stubData) PlaceOrder(context.Context, exchange.OrderRequest) (*exchange.Fill, error) {
	return nil, errors.New("live orders must never reach the data broker")
}

func (s *stubData) RoundAmount(_ string, qty float64) float64 { return qty }

func TestPaperFillAtMarketPrice(t *testing.T) {
	b := New(&stubData{price: 64000})

	fill, err := b.PlaceOrder(context.Background(), exchange.OrderRequest{
		Symbol:   "BTC/USDT",
		Side:     "buy",
		Quantity: 0.25,
	})
	require.NoError(t, err)
	assert.InDelta(t, 64000, fill.Price, 1e-9)
	assert.InDelta(t, 0.25, fill.Quantity, 1e-9)
	assert.True(t, strings.HasPrefix(fill.OrderID, "paper-"))
	assert.False(t, fill.Time.IsZero())
}

func TestPaperRejectsBadOrders(t *testing.T) {
	b := New(&stubData{price: 64000})
	_, err := b.PlaceOrder(context.Background(), exchange.OrderRequest{Symbol: "BTC/USDT", Side: "buy"})
	assert.Error(t, err, "zero quantity")

	failing := New(&stubData{priceErr: errors.New("feed down")})
	_, err = failing.PlaceOrder(context.Background(), exchange.OrderRequest{Symbol: "BTC/USDT", Side: "buy", Quantity: 1})
	assert.Error(t, err)
}

func TestPaperDelegatesData(t *testing.T) {
	b := New(&stubData{price: 101})
	candles, err := b.FetchHistory(context.Background(), "BTC/USDT", "1h", 10)
	require.NoError(t, err)
	assert.InDelta(t, 101, market.LastClose(candles), 1e-9)
	assert.InDelta(t, 0.123, b.RoundAmount("BTC/USDT", 0.123), 1e-9)
}
