package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"commander/internal/aggregate"
	"commander/internal/analysis/indicator"
	"commander/internal/gateway/exchange"
	"commander/internal/logger"
	"commander/internal/market"
	"commander/internal/position"
	"commander/internal/recorder"
	"commander/internal/risk"
	"commander/internal/selectors"
	"commander/internal/sizing"
)

// fetchConcurrency bounds the parallel kline downloads per cycle.
const fetchConcurrency = 4

type candidate struct {
	utility  float64
	decision aggregate.Decision
	price    float64
	atr      float64
}

func (e *Engine) runCycle(ctx context.Context) {
	e.governor.ResetDay(risk.DayKey(time.Now()))

	data := e.fetchAll(ctx)
	primaryTF := e.agg.PrimaryTimeframe()
	usable := make([]string, 0, len(data))
	for _, s := range e.cfg.Data.Symbols {
		if len(data[s][primaryTF]) > 0 {
			usable = append(usable, s)
		}
	}
	if len(usable) == 0 {
		logger.Warnf("engine: no usable symbols this cycle")
		return
	}

	equity := e.Equity()
	e.governor.OnEquity(equity)

	settings := e.scaler.Settings(equity, false)
	e.governor.UpdateLimits(settings.MaxPositions, settings.MaxGrossExposure)
	logger.Debugf("engine: equity=%.2f tier risk=%.4f positions=%d exposure=%.2f",
		equity, settings.RiskPerTrade, settings.MaxPositions, settings.MaxGrossExposure)

	primary := make(map[string][]market.Candle, len(usable))
	for _, s := range usable {
		primary[s] = data[s][primaryTF]
	}
	ranked := selectors.RankByMomentum(primary)
	tradables := selectors.PickDiversified(ranked, primary, e.cfg.Trading.TopK, e.cfg.Trading.CorrThreshold)

	decisions := make(map[string]aggregate.Decision, len(usable))
	for _, s := range usable {
		decisions[s] = e.agg.Evaluate(s, data[s])
	}
	candidates := e.buildCandidates(usable, decisions, primary)

	e.openCandidates(ctx, candidates, tradables, equity, settings.RiskPerTrade, settings.MaxPositions)
	e.managePositions(ctx, primary, decisions)
	e.logCycleSummary(primary)
}

// fetchAll downloads every symbol x timeframe window. One symbol's failure
// never blocks another: it is logged, trips the symbol's breaker, and the
// symbol drops out of this cycle's candidate set.
func (e *Engine) fetchAll(ctx context.Context) map[string]map[string][]market.Candle {
	timeframes := e.agg.Timeframes()
	limit := e.cfg.Data.Lookback
	if limit < 220 {
		limit = 220
	}

	var mu sync.Mutex
	data := make(map[string]map[string][]market.Candle, len(e.cfg.Data.Symbols))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for _, symbol := range e.cfg.Data.Symbols {
		cb := e.breaker(symbol)
		if !cb.Allow() {
			logger.Debugf("engine: fetch skipped for %s (breaker open)", symbol)
			continue
		}
		for _, tf := range timeframes {
			symbol, tf := symbol, tf
			g.Go(func() error {
				candles, err := e.broker.FetchHistory(gctx, symbol, tf, limit)
				if err != nil {
					logger.Warnf("engine: fetch %s %s failed: %v", symbol, tf, err)
					cb.RecordFailure()
					return nil
				}
				cb.RecordSuccess()
				mu.Lock()
				if data[symbol] == nil {
					data[symbol] = make(map[string][]market.Candle, len(timeframes))
				}
				data[symbol][tf] = candles
				mu.Unlock()
				return nil
			})
		}
	}
	// Workers swallow fetch errors; only context cancellation surfaces.
	if err := g.Wait(); err != nil {
		logger.Warnf("engine: fetch cancelled: %v", err)
	}
	return data
}

func (e *Engine) buildCandidates(usable []string, decisions map[string]aggregate.Decision, primary map[string][]market.Candle) []candidate {
	out := make([]candidate, 0, len(usable))
	for _, symbol := range usable {
		dec := decisions[symbol]
		if dec.Direction == 0 {
			continue
		}
		window := primary[symbol]
		if !passFilters(window, dec.Direction) {
			continue
		}
		p := sizing.StrengthToProb(dec.Strength)
		eu := sizing.ExpectedUtility(p, e.cfg.Trading.RR1)
		if eu <= 0 {
			continue
		}
		out = append(out, candidate{
			utility:  eu,
			decision: dec,
			price:    market.LastClose(window),
			atr:      indicator.LatestATR(window, 14),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].utility > out[j].utility })
	return out
}

// passFilters is the three-layer entry gate on the primary timeframe:
// trend alignment, normalized volatility band, and RSI momentum.
func passFilters(window []market.Candle, direction int) bool {
	if len(window) < 50 {
		return false
	}
	snap := indicator.Compute(window)
	trendOK := (direction > 0 && snap.EMA50 > snap.EMA200) ||
		(direction < 0 && snap.EMA50 < snap.EMA200)
	if snap.EMA200 <= 0 {
		trendOK = false
	}

	var volPct float64
	if snap.Close > 0 {
		volPct = snap.ATR14 / snap.Close
	}
	volOK := volPct >= 0.01 && volPct <= 0.06

	rsi := snap.RSI14
	if rsi == 0 {
		rsi = 50
	}
	momOK := (direction > 0 && rsi >= 55) || (direction < 0 && rsi <= 45)

	return trendOK && volOK && momOK
}

func (e *Engine) openCandidates(ctx context.Context, candidates []candidate, tradables map[string]bool, equity, tierRisk float64, maxPositions int) {
	for _, c := range candidates {
		if e.registry.Count() >= maxPositions {
			break
		}
		symbol := c.decision.Symbol
		if !tradables[symbol] || e.registry.Has(symbol) {
			continue
		}
		if c.price <= 0 || c.atr <= 0 {
			continue
		}
		levels := sizing.ComputeSLTP(c.price, c.atr, e.cfg.Trading.KATR, e.cfg.Trading.RR1, e.cfg.Trading.RR2, c.decision.Direction)

		// Per-trade risk: tier fraction capped by what remains of the
		// daily budget, and in dollars by the volatility-scaled slot
		// budget.
		remaining := maxPositions - e.registry.Count()
		if remaining < 1 {
			remaining = 1
		}
		riskFrac := tierRisk
		if dayCap := e.cfg.Risk.MaxRiskPerDay / float64(remaining); dayCap > 0 && dayCap < riskFrac {
			riskFrac = dayCap
		}
		usdRisk := equity * riskFrac
		if budget := e.governor.DynamicBudget(); budget > 0 && budget < usdRisk {
			usdRisk = budget
		}
		qty := sizing.PositionSizeByRisk(equity, usdRisk/equity, c.price, levels.StopLoss)
		p := sizing.StrengthToProb(c.decision.Strength)
		qty *= sizing.KellyMultiplier(p, e.cfg.Trading.RR1)

		qty = e.broker.RoundAmount(symbol, qty)
		if qty <= 0 {
			continue
		}
		notional := qty * c.price

		allowed, reason := e.governor.CanOpen(equity, symbol, notional, e.registry.BucketCounts(e.cfg.Risk.BucketsMap), e.registry.Count())
		if !allowed {
			logger.Debugf("engine: %s entry rejected: %s", symbol, reason)
			continue
		}

		side := "buy"
		if c.decision.Direction < 0 {
			side = "sell"
		}
		fill, err := e.broker.PlaceOrder(ctx, exchange.OrderRequest{
			Symbol:   symbol,
			Side:     side,
			Quantity: qty,
			Tag:      firstReason(c.decision),
		})
		if err != nil {
			// No phantom fills: state stays untouched, the signal can
			// retry next cycle.
			logger.Errorf("engine: open order %s %s failed: %v", symbol, side, err)
			continue
		}
		entryPrice := fill.Price
		if entryPrice <= 0 {
			entryPrice = c.price
		}

		pos := &position.Position{
			TraceID:     c.decision.TraceID,
			Symbol:      symbol,
			Side:        c.decision.Direction,
			Quantity:    qty,
			EntryPrice:  entryPrice,
			StopLoss:    levels.StopLoss,
			InitialStop: levels.StopLoss,
			TakeProfit1: levels.TakeProfit1,
			TakeProfit2: levels.TakeProfit2,
			Notional:    notional,
			EntryTime:   fill.Time,
			Votes:       c.decision.Votes,
		}
		if !e.registry.Open(pos) {
			continue
		}
		e.governor.OnOpen(symbol, notional, qty, entryPrice)
		e.recordEvent(ctx, pos, recorder.ActionOpen, entryPrice, 0, firstReason(c.decision))
		e.notifyf("open %s %s qty=%.6f entry=%.4f sl=%.4f tp2=%.4f",
			symbol, side, qty, entryPrice, levels.StopLoss, levels.TakeProfit2)
		logger.Infof("engine: opened %s %s qty=%.6f entry=%.4f sl=%.4f net=%.3f",
			symbol, side, qty, entryPrice, levels.StopLoss, c.decision.Net)
	}
}

// managePositions advances every open position and applies reversal exits.
// Reversal looks at the raw aggregate decision, not the filtered candidate
// set: the entry filters gate admission only, an opposing net past the
// hysteresis band closes the position even when that side could not be
// opened fresh.
func (e *Engine) managePositions(ctx context.Context, primary map[string][]market.Candle, decisions map[string]aggregate.Decision) {
	for _, pos := range e.registry.List() {
		window := primary[pos.Symbol]
		if len(window) == 0 {
			continue
		}
		price := market.LastClose(window)
		atr := indicator.LatestATR(window, 14)

		exitReason, exit := pos.Advance(price, atr)
		if !exit {
			if dec, ok := decisions[pos.Symbol]; ok && dec.Direction == -pos.Side {
				exitReason, exit = position.ExitReversal, true
			}
		}
		if !exit {
			continue
		}
		e.closePosition(ctx, pos, price, exitReason)
	}
}

func (e *Engine) closePosition(ctx context.Context, pos *position.Position, price float64, reason position.ExitReason) {
	side := "sell"
	if pos.Side < 0 {
		side = "buy"
	}
	fill, err := e.broker.PlaceOrder(ctx, exchange.OrderRequest{
		Symbol:     pos.Symbol,
		Side:       side,
		Quantity:   pos.Quantity,
		ReduceOnly: true,
		Tag:        string(reason),
	})
	if err != nil {
		// Position stays open; the exit re-triggers next cycle.
		logger.Errorf("engine: close order %s failed: %v", pos.Symbol, err)
		return
	}
	exitPrice := fill.Price
	if exitPrice <= 0 {
		exitPrice = price
	}
	pnl := pos.Close(exitPrice)
	e.addRealized(pnl)
	e.governor.RegisterPnL(pnl)
	e.governor.OnClose(pos.Symbol)
	e.learner.Update(pos.Votes, pnl)
	e.registry.Remove(pos.Symbol)
	e.governor.SetCooldown(pos.Symbol, e.cfg.Trading.ReopenCooldown())
	e.recordEvent(ctx, pos, recorder.ActionClose, exitPrice, pnl, string(reason))
	e.notifyf("close %s %s qty=%.6f exit=%.4f pnl=%.2f (%s)",
		pos.Symbol, side, pos.Quantity, exitPrice, pnl, reason)
	logger.Infof("engine: closed %s exit=%.4f pnl=%.2f reason=%s daily=%.2f",
		pos.Symbol, exitPrice, pnl, reason, e.governor.DailyPnL())
}

func (e *Engine) recordEvent(ctx context.Context, pos *position.Position, action string, price, pnl float64, reason string) {
	votes, _ := json.Marshal(pos.Votes)
	ev := recorder.TradeEvent{
		TraceID:   pos.TraceID,
		Timestamp: time.Now().UTC(),
		Symbol:    pos.Symbol,
		Action:    action,
		Side:      sideName(pos.Side),
		Quantity:  pos.Quantity,
		Price:     price,
		Notional:  pos.Notional,
		Reason:    reason,
		PnL:       pnl,
		DailyPnL:  e.governor.DailyPnL(),
		Votes:     votes,
	}
	if err := e.rec.Record(ctx, ev); err != nil {
		logger.Warnf("engine: recording %s event for %s failed: %v", action, pos.Symbol, err)
	}
}

func (e *Engine) notifyf(format string, args ...any) {
	if err := e.notify.SendText(fmt.Sprintf(format, args...)); err != nil {
		logger.Warnf("engine: notify failed: %v", err)
	}
}

func (e *Engine) logCycleSummary(primary map[string][]market.Candle) {
	parts := make([]string, 0, len(e.cfg.Data.Symbols))
	for _, symbol := range e.cfg.Data.Symbols {
		price := market.LastClose(primary[symbol])
		if pos, ok := e.registry.Get(symbol); ok {
			parts = append(parts, fmt.Sprintf("%s: price=%.2f pos=%.6f entry=%.2f sl=%.2f state=%s",
				symbol, price, float64(pos.Side)*pos.Quantity, pos.EntryPrice, pos.StopLoss, pos.State))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: price=%.2f flat", symbol, price))
	}
	logger.Infof("%s", strings.Join(parts, " | "))
}

func sideName(side int) string {
	if side < 0 {
		return "sell"
	}
	return "buy"
}

func firstReason(dec aggregate.Decision) string {
	names := make([]string, 0, len(dec.Votes))
	for name, sig := range dec.Votes {
		if sig.Direction == dec.Direction && sig.Direction != 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return fmt.Sprintf("net=%.3f experts=%s", dec.Net, strings.Join(names, ","))
}
