// Package engine runs the evaluation loop: fetch candles, detect regime,
// aggregate expert signals, admit entries through the risk governor and
// walk open positions through their lifecycle. All portfolio state is
// mutated on the single loop goroutine.
package engine

import (
	"context"
	"sync"
	"time"

	"commander/internal/aggregate"
	"commander/internal/autoscaler"
	"commander/internal/config"
	"commander/internal/expert"
	"commander/internal/gateway/exchange"
	"commander/internal/logger"
	"commander/internal/meta"
	"commander/internal/notifier"
	"commander/internal/pkg/circuit"
	"commander/internal/position"
	"commander/internal/recorder"
	"commander/internal/regime"
	"commander/internal/risk"
)

type Engine struct {
	cfg      *config.Config
	broker   exchange.Broker
	panel    []expert.Expert
	learner  *meta.Learner
	agg      *aggregate.Aggregator
	scaler   *autoscaler.AutoScaler
	governor *risk.Governor
	registry *position.Registry
	rec      recorder.Recorder
	notify   notifier.Notifier

	breakerMu sync.Mutex
	breakers  map[string]*circuit.CircuitBreaker

	pnlMu       sync.RWMutex
	realizedPnL float64
}

func New(cfg *config.Config, broker exchange.Broker, rec recorder.Recorder, notify notifier.Notifier) (*Engine, error) {
	panel := expert.DefaultPanel()
	names := make([]string, len(panel))
	for i, e := range panel {
		names[i] = e.Name()
	}
	learner := meta.NewLearner(cfg.Meta.Decay, names)
	detector := regime.NewDetector(cfg.Regime)
	agg := aggregate.New(panel, detector, learner, cfg.Trading.TimeframeWeights)
	scaler, err := autoscaler.New(cfg.Scaler.AutoscalerTiers(), cfg.Scaler.Cooldown())
	if err != nil {
		return nil, err
	}
	if rec == nil {
		rec = recorder.NewMulti()
	}
	if notify == nil {
		notify = notifier.Noop{}
	}
	eng := &Engine{
		cfg:      cfg,
		broker:   broker,
		panel:    panel,
		learner:  learner,
		agg:      agg,
		scaler:   scaler,
		governor: risk.NewGovernor(cfg.Risk),
		registry: position.NewRegistry(),
		rec:      rec,
		notify:   notify,
		breakers: make(map[string]*circuit.CircuitBreaker),
	}
	// Seed the applied tier from starting capital before the first cycle.
	initial := scaler.Settings(cfg.Trading.CapitalTotal, true)
	eng.governor.UpdateLimits(initial.MaxPositions, initial.MaxGrossExposure)
	return eng, nil
}

// Equity is the current mark: starting capital plus realized P&L.
func (e *Engine) Equity() float64 {
	e.pnlMu.RLock()
	defer e.pnlMu.RUnlock()
	return e.cfg.Trading.CapitalTotal + e.realizedPnL
}

func (e *Engine) addRealized(pnl float64) {
	e.pnlMu.Lock()
	e.realizedPnL += pnl
	e.pnlMu.Unlock()
}

// Run drives evaluation cycles until the context is cancelled. A failed
// cycle sleeps and retries; it never escalates.
func (e *Engine) Run(ctx context.Context) error {
	logger.Infof("engine: starting loop, symbols=%v dry_run=%v", e.cfg.Data.Symbols, e.cfg.Trading.DryRun)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		e.runCycle(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(e.cfg.Trading.CycleSleep()):
		}
	}
}

func (e *Engine) breaker(symbol string) *circuit.CircuitBreaker {
	e.breakerMu.Lock()
	defer e.breakerMu.Unlock()
	cb, ok := e.breakers[symbol]
	if !ok {
		cb = circuit.NewCircuitBreaker("fetch:"+symbol, 3, 2*time.Minute)
		e.breakers[symbol] = cb
	}
	return cb
}

// Snapshot is the read-only state served by the status endpoint.
type Snapshot struct {
	Equity        float64             `json:"equity"`
	RealizedPnL   float64             `json:"realized_pnl"`
	DailyPnL      float64             `json:"daily_pnl"`
	GrossExposure float64             `json:"gross_exposure"`
	OpenPositions []PositionView      `json:"open_positions"`
	ExpertWeights map[string]float64  `json:"expert_weights"`
	Tier          autoscaler.Settings `json:"tier"`
}

type PositionView struct {
	Symbol      string    `json:"symbol"`
	Side        int       `json:"side"`
	State       string    `json:"state"`
	Quantity    float64   `json:"quantity"`
	EntryPrice  float64   `json:"entry_price"`
	StopLoss    float64   `json:"stop_loss"`
	TakeProfit2 float64   `json:"take_profit_2"`
	Notional    float64   `json:"notional"`
	EntryTime   time.Time `json:"entry_time"`
}

func (e *Engine) StateSnapshot() Snapshot {
	open := e.registry.List()
	views := make([]PositionView, 0, len(open))
	for _, p := range open {
		views = append(views, PositionView{
			Symbol:      p.Symbol,
			Side:        p.Side,
			State:       p.State.String(),
			Quantity:    p.Quantity,
			EntryPrice:  p.EntryPrice,
			StopLoss:    p.StopLoss,
			TakeProfit2: p.TakeProfit2,
			Notional:    p.Notional,
			EntryTime:   p.EntryTime,
		})
	}
	e.pnlMu.RLock()
	realized := e.realizedPnL
	e.pnlMu.RUnlock()
	return Snapshot{
		Equity:        e.cfg.Trading.CapitalTotal + realized,
		RealizedPnL:   realized,
		DailyPnL:      e.governor.DailyPnL(),
		GrossExposure: e.governor.GrossExposure(),
		OpenPositions: views,
		ExpertWeights: e.learner.Weights(),
		Tier:          e.scaler.Current(),
	}
}
