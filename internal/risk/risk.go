// Package risk gates every new position behind the portfolio-level limits:
// daily loss breaker, position/exposure caps, correlation buckets, and
// per-symbol cooldowns. All mutation happens on the engine goroutine; the
// mutex only protects read-only snapshots served elsewhere.
package risk

import (
	"math"
	"sync"
	"time"

	"commander/internal/logger"
)

const equityHistoryCap = 1000

// Config carries the static limits the governor enforces.
type Config struct {
	MaxPositions     int     `toml:"max_positions"`
	MaxGrossExposure float64 `toml:"max_gross_exposure"`
	MaxRiskPerDay    float64 `toml:"max_risk_per_day"`
	MaxPerBucket     int     `toml:"max_per_bucket"`
	DailyLossLimit   float64 `toml:"daily_loss_limit"`

	PortfolioRiskUnit float64 `toml:"portfolio_risk_unit"`
	DynBudgetLookback int     `toml:"dyn_budget_lookback"`
	DynBudgetMin      float64 `toml:"dyn_budget_min"`
	DynBudgetMax      float64 `toml:"dyn_budget_max"`

	// BucketsMap assigns symbols to correlation buckets. Symbols without
	// a bucket skip the bucket check.
	BucketsMap map[string]string `toml:"buckets_map"`
}

func (c *Config) applyDefaults() {
	if c.MaxPositions <= 0 {
		c.MaxPositions = 4
	}
	if c.MaxGrossExposure <= 0 {
		c.MaxGrossExposure = 0.6
	}
	if c.MaxRiskPerDay <= 0 {
		c.MaxRiskPerDay = 0.02
	}
	if c.MaxPerBucket <= 0 {
		c.MaxPerBucket = 2
	}
	if c.PortfolioRiskUnit <= 0 {
		c.PortfolioRiskUnit = 100.0
	}
	if c.DynBudgetLookback <= 0 {
		c.DynBudgetLookback = 20
	}
	if c.DynBudgetMin <= 0 {
		c.DynBudgetMin = c.PortfolioRiskUnit * 0.5
	}
	if c.DynBudgetMax <= 0 {
		c.DynBudgetMax = c.PortfolioRiskUnit * 5
	}
}

type openSlot struct {
	Size     float64
	Entry    float64
	Notional float64
}

// Governor is the stateful admission gate, scoped to a trading day.
type Governor struct {
	mu  sync.RWMutex
	cfg Config

	dailyPnL      float64
	currentDay    string
	grossExposure float64
	positions     map[string]openSlot
	cooldownUntil map[string]time.Time
	equityHistory []float64

	now func() time.Time
}

func NewGovernor(cfg Config) *Governor {
	cfg.applyDefaults()
	return &Governor{
		cfg:           cfg,
		positions:     make(map[string]openSlot),
		cooldownUntil: make(map[string]time.Time),
		now:           time.Now,
	}
}

// SetClock overrides the time source for tests.
func (g *Governor) SetClock(now func() time.Time) {
	if now != nil {
		g.now = now
	}
}

// UpdateLimits lets the autoscaler tier refresh the per-day caps.
func (g *Governor) UpdateLimits(maxPositions int, maxGrossExposure float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if maxPositions > 0 {
		g.cfg.MaxPositions = maxPositions
	}
	if maxGrossExposure > 0 {
		g.cfg.MaxGrossExposure = maxGrossExposure
	}
}

// DayKey formats the UTC day bucket used for daily resets. The source had
// two divergent variants (UTC vs UTC+7); this implementation fixes UTC.
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// ResetDay zeroes the daily P&L when the day key changes.
func (g *Governor) ResetDay(dayKey string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.currentDay != dayKey {
		g.currentDay = dayKey
		g.dailyPnL = 0
	}
}

// RegisterPnL accumulates realized P&L for the day. Breaching the daily
// loss limit is reported, not fatal; admission checks consult
// CanTradeToday before every open.
func (g *Governor) RegisterPnL(pnlUSD float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.dailyPnL += pnlUSD
	if g.cfg.DailyLossLimit > 0 && g.dailyPnL <= -math.Abs(g.cfg.DailyLossLimit) {
		logger.Warnf("risk: daily loss limit hit (pnl=%.2f limit=%.2f), new entries blocked for today",
			g.dailyPnL, g.cfg.DailyLossLimit)
	}
}

// OnEquity feeds a mark-to-market equity sample into the bounded history
// the dynamic budget reads.
func (g *Governor) OnEquity(equity float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.equityHistory = append(g.equityHistory, equity)
	if len(g.equityHistory) > equityHistoryCap {
		g.equityHistory = g.equityHistory[len(g.equityHistory)-equityHistoryCap:]
	}
}

// SetCooldown extends (never shortens) the symbol's cooldown expiry.
func (g *Governor) SetCooldown(symbol string, d time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	until := g.now().Add(d)
	if until.After(g.cooldownUntil[symbol]) {
		g.cooldownUntil[symbol] = until
	}
}

// InCooldown reports whether the symbol is still cooling down.
func (g *Governor) InCooldown(symbol string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.now().Before(g.cooldownUntil[symbol])
}

// CanTradeToday is false once the realized drawdown fraction for the day
// reaches the configured per-day risk cap.
func (g *Governor) CanTradeToday(equity float64) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.canTradeTodayLocked(equity)
}

func (g *Governor) canTradeTodayLocked(equity float64) bool {
	if g.cfg.MaxRiskPerDay <= 0 {
		return true
	}
	var ddFrac float64
	if g.dailyPnL < 0 {
		ddFrac = -g.dailyPnL / math.Max(1.0, equity)
	}
	return ddFrac < g.cfg.MaxRiskPerDay
}

// CanOpen runs the admission checks in priority order and short-circuits on
// the first failure. Rejections are normal control flow carrying a reason
// code; nothing is mutated on a rejection.
func (g *Governor) CanOpen(equity float64, symbol string, notional float64, bucketCounts map[string]int, openCount int) (bool, string) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if !g.canTradeTodayLocked(equity) {
		return false, "day-paused"
	}
	if openCount >= g.cfg.MaxPositions {
		return false, "too-many-positions"
	}
	if (g.grossExposure+math.Abs(notional))/math.Max(1.0, equity) > g.cfg.MaxGrossExposure {
		return false, "gross-exposure"
	}
	if bucket, ok := g.cfg.BucketsMap[symbol]; ok && bucket != "" {
		if bucketCounts[bucket] >= g.cfg.MaxPerBucket {
			return false, "corr-bucket"
		}
	}
	if g.now().Before(g.cooldownUntil[symbol]) {
		return false, "cooldown"
	}
	return true, ""
}

// OnOpen records a freshly opened position in the exposure ledger.
func (g *Governor) OnOpen(symbol string, notional, size, entry float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.grossExposure += math.Abs(notional)
	g.positions[symbol] = openSlot{Size: size, Entry: entry, Notional: notional}
}

// OnClose releases the symbol's exposure. Gross exposure is clamped at zero
// so bookkeeping drift can never turn it negative.
func (g *Governor) OnClose(symbol string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	slot, ok := g.positions[symbol]
	if !ok {
		return
	}
	g.grossExposure = math.Max(0, g.grossExposure-math.Abs(slot.Notional))
	delete(g.positions, symbol)
}

// GrossExposure is the sum of |notional| over open positions.
func (g *Governor) GrossExposure() float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.grossExposure
}

// OpenCount counts tracked open positions.
func (g *Governor) OpenCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.positions)
}

// DailyPnL returns the realized P&L accumulated for the current day.
func (g *Governor) DailyPnL() float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.dailyPnL
}

// DynamicBudget is the volatility-scaled per-slot USD risk budget: the
// base unit shrinks when realized equity volatility rises and expands when
// it calms, clamped to the configured band. With fewer samples than the
// lookback the base unit is returned unscaled.
func (g *Governor) DynamicBudget() float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	base := g.cfg.PortfolioRiskUnit
	lookback := g.cfg.DynBudgetLookback
	if len(g.equityHistory) < lookback {
		return base
	}
	window := g.equityHistory[len(g.equityHistory)-lookback:]
	returns := make([]float64, 0, len(window)-1)
	for i := 1; i < len(window); i++ {
		if window[i-1] <= 0 || window[i] <= 0 {
			continue
		}
		returns = append(returns, math.Log(window[i]/window[i-1]))
	}
	var rv float64
	if len(returns) > 1 {
		rv = stddev(returns) * math.Sqrt(float64(len(returns)))
	}
	adj := base * (0.02 / math.Max(0.005, rv))
	return math.Max(g.cfg.DynBudgetMin, math.Min(g.cfg.DynBudgetMax, adj))
}

func stddev(values []float64) float64 {
	var mean float64
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	var sum float64
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}
