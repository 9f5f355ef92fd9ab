package risk

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		MaxPositions:      4,
		MaxGrossExposure:  0.35,
		MaxRiskPerDay:     0.02,
		MaxPerBucket:      2,
		DailyLossLimit:    300,
		PortfolioRiskUnit: 100,
		DynBudgetLookback: 10,
		DynBudgetMin:      50,
		DynBudgetMax:      500,
		BucketsMap: map[string]string{
			"BTC/USDT": "majors",
			"ETH/USDT": "majors",
		},
	}
}

func TestCanOpenReasonPriority(t *testing.T) {
	g := NewGovernor(testConfig())
	g.ResetDay(DayKey(time.Now()))

	t.Run("day paused wins", func(t *testing.T) {
		g.RegisterPnL(-250) // 2.5% of 10k, above the 2% per-day cap
		ok, reason := g.CanOpen(10000, "BTC/USDT", 1000, nil, 99)
		assert.False(t, ok)
		assert.Equal(t, "day-paused", reason)
		g.ResetDay("other-day")
	})

	t.Run("too many positions", func(t *testing.T) {
		ok, reason := g.CanOpen(10000, "BTC/USDT", 1000, nil, 4)
		assert.False(t, ok)
		assert.Equal(t, "too-many-positions", reason)
	})

	t.Run("gross exposure", func(t *testing.T) {
		ok, reason := g.CanOpen(10000, "BTC/USDT", 4000, nil, 0)
		assert.False(t, ok)
		assert.Equal(t, "gross-exposure", reason)
	})

	t.Run("correlation bucket", func(t *testing.T) {
		buckets := map[string]int{"majors": 2}
		ok, reason := g.CanOpen(10000, "ETH/USDT", 1000, buckets, 0)
		assert.False(t, ok)
		assert.Equal(t, "corr-bucket", reason)
	})

	t.Run("cooldown", func(t *testing.T) {
		g.SetCooldown("BTC/USDT", time.Hour)
		ok, reason := g.CanOpen(10000, "BTC/USDT", 1000, nil, 0)
		assert.False(t, ok)
		assert.Equal(t, "cooldown", reason)
	})

	t.Run("clean open", func(t *testing.T) {
		ok, reason := g.CanOpen(10000, "SOL/USDT", 1000, nil, 0)
		assert.True(t, ok)
		assert.Empty(t, reason)
	})
}

func TestCanOpenNeverAboveMaxPositions(t *testing.T) {
	g := NewGovernor(testConfig())
	for openCount := 4; openCount < 50; openCount++ {
		ok, _ := g.CanOpen(1e9, "SOL/USDT", 1, nil, openCount)
		assert.False(t, ok, "openCount=%d", openCount)
	}
}

func TestExposureRoundTrip(t *testing.T) {
	g := NewGovernor(testConfig())

	g.OnOpen("BTC/USDT", 1500, 0.02, 75000)
	g.OnOpen("ETH/USDT", -900, 0.3, 3000)
	assert.InDelta(t, 2400, g.GrossExposure(), 1e-9, "short notional counts as absolute")
	assert.Equal(t, 2, g.OpenCount())

	g.OnClose("BTC/USDT")
	assert.InDelta(t, 900, g.GrossExposure(), 1e-9)

	// Closing an untracked symbol is a no-op.
	g.OnClose("BTC/USDT")
	g.OnClose("SOL/USDT")
	assert.InDelta(t, 900, g.GrossExposure(), 1e-9)

	g.OnClose("ETH/USDT")
	assert.Zero(t, g.OpenCount())
	assert.GreaterOrEqual(t, g.GrossExposure(), 0.0)
}

func TestDayReset(t *testing.T) {
	g := NewGovernor(testConfig())
	g.ResetDay("2025-06-01")
	g.RegisterPnL(-500)
	assert.False(t, g.CanTradeToday(10000))

	// Same key again keeps the accumulated loss.
	g.ResetDay("2025-06-01")
	assert.InDelta(t, -500, g.DailyPnL(), 1e-9)

	g.ResetDay("2025-06-02")
	assert.Zero(t, g.DailyPnL())
	assert.True(t, g.CanTradeToday(10000))
}

func TestDayKeyIsUTC(t *testing.T) {
	loc := time.FixedZone("UTC+7", 7*3600)
	late := time.Date(2025, 6, 2, 3, 0, 0, 0, loc) // 2025-06-01T20:00Z
	assert.Equal(t, "2025-06-01", DayKey(late))
}

func TestCooldownExtendsOnly(t *testing.T) {
	g := NewGovernor(testConfig())
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	g.SetClock(func() time.Time { return now })

	g.SetCooldown("BTC/USDT", time.Hour)
	g.SetCooldown("BTC/USDT", time.Minute) // must not shorten
	assert.True(t, g.InCooldown("BTC/USDT"))

	now = now.Add(30 * time.Minute)
	assert.True(t, g.InCooldown("BTC/USDT"))

	now = now.Add(31 * time.Minute)
	assert.False(t, g.InCooldown("BTC/USDT"))
	assert.False(t, g.InCooldown("ETH/USDT"))
}

func TestDynamicBudget(t *testing.T) {
	t.Run("short history returns base", func(t *testing.T) {
		g := NewGovernor(testConfig())
		g.OnEquity(10000)
		g.OnEquity(10010)
		assert.InDelta(t, 100, g.DynamicBudget(), 1e-9)
	})

	t.Run("flat equity hits the ceiling", func(t *testing.T) {
		g := NewGovernor(testConfig())
		for i := 0; i < 20; i++ {
			g.OnEquity(10000)
		}
		// rv = 0 floors at 0.005, so adj = 100 * (0.02/0.005) = 400.
		assert.InDelta(t, 400, g.DynamicBudget(), 1e-9)
	})

	t.Run("violent swings clamp at the floor", func(t *testing.T) {
		g := NewGovernor(testConfig())
		for i := 0; i < 20; i++ {
			if i%2 == 0 {
				g.OnEquity(10000)
			} else {
				g.OnEquity(6000)
			}
		}
		assert.InDelta(t, 50, g.DynamicBudget(), 1e-9)
	})
}

func TestEquityHistoryBounded(t *testing.T) {
	g := NewGovernor(testConfig())
	for i := 0; i < equityHistoryCap+500; i++ {
		g.OnEquity(10000 + float64(i))
	}
	require.LessOrEqual(t, len(g.equityHistory), equityHistoryCap)
	// The oldest samples fell off; the newest survived.
	assert.InDelta(t, 10000+float64(equityHistoryCap+499), g.equityHistory[len(g.equityHistory)-1], 1e-9)
}

func TestUpdateLimits(t *testing.T) {
	g := NewGovernor(testConfig())
	g.UpdateLimits(8, 0.55)
	ok, _ := g.CanOpen(10000, "SOL/USDT", 5000, nil, 7)
	assert.True(t, ok)

	// Zero values leave the previous limits in place.
	g.UpdateLimits(0, 0)
	ok, reason := g.CanOpen(10000, "SOL/USDT", 1, nil, 8)
	assert.False(t, ok)
	assert.Equal(t, "too-many-positions", reason)
}

func TestCanOpenHasNoSideEffects(t *testing.T) {
	g := NewGovernor(testConfig())
	for i := 0; i < 10; i++ {
		g.CanOpen(10000, fmt.Sprintf("SYM%d/USDT", i), 1000, nil, 0)
	}
	assert.Zero(t, g.OpenCount())
	assert.Zero(t, g.GrossExposure())
}
