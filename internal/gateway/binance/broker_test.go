package binance

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBroker(t *testing.T) *Broker {
	t.Helper()
	b, err := New(Config{})
	require.NoError(t, err)
	b.lotRules["BTCUSDT"] = lotRule{
		Step:   decimal.RequireFromString("0.001"),
		MinQty: decimal.RequireFromString("0.001"),
	}
	return b
}

func TestRoundAmount(t *testing.T) {
	b := newTestBroker(t)

	assert.InDelta(t, 0.123, b.RoundAmount("BTC/USDT", 0.12345), 1e-12, "floors to the step")
	assert.InDelta(t, 0.001, b.RoundAmount("BTC/USDT", 0.001), 1e-12)
	assert.Zero(t, b.RoundAmount("BTC/USDT", 0.0009), "dust below minQty is discarded")
	assert.Zero(t, b.RoundAmount("BTC/USDT", 0))
	assert.Zero(t, b.RoundAmount("BTC/USDT", -1))

	// Unknown symbols pass through unrounded.
	assert.InDelta(t, 0.12345, b.RoundAmount("ETH/USDT", 0.12345), 1e-12)
}

func TestParseLotRule(t *testing.T) {
	filters := []map[string]interface{}{
		{"filterType": "PRICE_FILTER", "tickSize": "0.10"},
		{"filterType": "LOT_SIZE", "stepSize": "0.001", "minQty": "0.005"},
	}
	rule, ok := parseLotRule(filters)
	require.True(t, ok)
	assert.True(t, rule.Step.Equal(decimal.RequireFromString("0.001")))
	assert.True(t, rule.MinQty.Equal(decimal.RequireFromString("0.005")))

	_, ok = parseLotRule([]map[string]interface{}{{"filterType": "PRICE_FILTER"}})
	assert.False(t, ok)

	_, ok = parseLotRule(nil)
	assert.False(t, ok)
}

func TestConfigDefaults(t *testing.T) {
	c := Config{}.withDefaults()
	assert.Positive(t, c.HTTPTimeout)
}
