package position

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLong() *Position {
	return &Position{
		Symbol:      "BTC/USDT",
		Side:        1,
		Quantity:    0.5,
		EntryPrice:  100,
		StopLoss:    96,
		InitialStop: 96,
		TakeProfit1: 106,
		TakeProfit2: 110,
	}
}

func newShort() *Position {
	return &Position{
		Symbol:      "ETH/USDT",
		Side:        -1,
		Quantity:    2,
		EntryPrice:  100,
		StopLoss:    104,
		InitialStop: 104,
		TakeProfit1: 94,
		TakeProfit2: 90,
	}
}

func TestBreakevenArm(t *testing.T) {
	p := newLong()
	// +1R moves the stop to entry.
	reason, exit := p.Advance(104, 1)
	assert.False(t, exit, reason)
	assert.Equal(t, StateBreakevenArmed, p.State)
	assert.InDelta(t, 100, p.StopLoss, 1e-9)

	// OneR stays anchored to the initial stop after the move.
	assert.InDelta(t, 4, p.OneR(), 1e-9)
}

func TestTrailingActivatesAndTightens(t *testing.T) {
	p := newLong()
	// +1.5R arms trailing; stop follows at 1.2*ATR.
	_, exit := p.Advance(106, 2)
	require.False(t, exit)
	assert.Equal(t, StateTrailing, p.State)
	assert.InDelta(t, 106-1.2*2, p.StopLoss, 1e-9)

	// Further advance lifts the stop again.
	_, exit = p.Advance(108, 2)
	require.False(t, exit)
	assert.InDelta(t, 108-1.2*2, p.StopLoss, 1e-9)
}

func TestTrailingStopIsMonotone(t *testing.T) {
	p := newLong()
	p.Advance(108, 2)
	stop := p.StopLoss

	// A pullback that stays above the stop must not loosen it.
	reason, exit := p.Advance(107, 5)
	require.False(t, exit, reason)
	assert.InDelta(t, stop, p.StopLoss, 1e-9)
}

func TestStopHit(t *testing.T) {
	p := newLong()
	reason, exit := p.Advance(95.5, 1)
	assert.True(t, exit)
	assert.Equal(t, ExitStopHit, reason)
}

func TestTargetHit(t *testing.T) {
	p := newLong()
	reason, exit := p.Advance(110.5, 1)
	assert.True(t, exit)
	assert.Equal(t, ExitTargetHit, reason)
}

func TestShortLifecycle(t *testing.T) {
	p := newShort()

	// -1R for a short means price falling to 96.
	_, exit := p.Advance(96, 1)
	require.False(t, exit)
	assert.Equal(t, StateBreakevenArmed, p.State)
	assert.InDelta(t, 100, p.StopLoss, 1e-9)

	// 1.5R arms trailing; the stop trails above price and only falls.
	_, exit = p.Advance(94, 2)
	require.False(t, exit)
	assert.Equal(t, StateTrailing, p.State)
	assert.InDelta(t, 94+1.2*2, p.StopLoss, 1e-9)

	reason, exit := p.Advance(90, 2)
	assert.True(t, exit)
	assert.Equal(t, ExitTargetHit, reason)
}

func TestCloseRealizesPnL(t *testing.T) {
	p := newLong()
	pnl := p.Close(108)
	assert.InDelta(t, 4, pnl, 1e-9) // (108-100)*0.5
	assert.Equal(t, StateClosed, p.State)

	// A closed position never advances again.
	_, exit := p.Advance(50, 1)
	assert.False(t, exit)

	short := newShort()
	assert.InDelta(t, 12, short.Close(94), 1e-9) // (94-100)*-1*2
}

func TestUnrealizedPnL(t *testing.T) {
	p := newLong()
	assert.InDelta(t, 2.5, p.UnrealizedPnL(105), 1e-9)
	assert.InDelta(t, -2, p.UnrealizedPnL(96), 1e-9)
}

func TestRegistryOnePerSymbol(t *testing.T) {
	r := NewRegistry()
	first := newLong()
	require.True(t, r.Open(first))
	assert.False(t, r.Open(newLong()), "second open for the same symbol is refused")
	assert.Equal(t, 1, r.Count())

	got, ok := r.Get("BTC/USDT")
	require.True(t, ok)
	assert.Same(t, first, got)

	require.True(t, r.Open(newShort()))
	assert.Equal(t, 2, r.Count())

	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, "BTC/USDT", list[0].Symbol, "list is sorted by symbol")

	r.Remove("BTC/USDT")
	assert.False(t, r.Has("BTC/USDT"))
	assert.Equal(t, 1, r.Count())
}

func TestRegistryBucketCounts(t *testing.T) {
	r := NewRegistry()
	require.True(t, r.Open(newLong()))
	require.True(t, r.Open(newShort()))

	counts := r.BucketCounts(map[string]string{
		"BTC/USDT": "majors",
		"ETH/USDT": "majors",
		"SOL/USDT": "alt-l1",
	})
	assert.Equal(t, 2, counts["majors"])
	assert.Zero(t, counts["alt-l1"])
}
