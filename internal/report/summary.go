// Package report turns the recorded trade stream into a performance
// summary and an equity-curve chart. It is read-only over the audit log.
package report

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"commander/internal/recorder"
)

// Summary aggregates realized performance over recorded closes.
type Summary struct {
	Trades       int                `json:"trades"`
	Wins         int                `json:"wins"`
	Losses       int                `json:"losses"`
	WinRate      float64            `json:"winrate"`
	TotalPnL     float64            `json:"total_pnl"`
	AvgPnL       float64            `json:"avg_pnl"`
	PerSymbol    map[string]float64 `json:"per_symbol"`
	ProfitFactor float64            `json:"profit_factor"`
	MaxDrawdown  float64            `json:"max_drawdown"`
	EquityCurve  []float64          `json:"equity_curve"`
}

// Summarize folds the event stream into a Summary. Only close events carry
// realized P&L; open events are ignored.
func Summarize(events []recorder.TradeEvent) Summary {
	s := Summary{PerSymbol: make(map[string]float64)}
	equity := []float64{0}
	for _, ev := range events {
		if ev.Action != recorder.ActionClose {
			continue
		}
		s.PerSymbol[ev.Symbol] += ev.PnL
		s.TotalPnL += ev.PnL
		switch {
		case ev.PnL > 0:
			s.Wins++
		case ev.PnL < 0:
			s.Losses++
		}
		equity = append(equity, equity[len(equity)-1]+ev.PnL)
	}
	s.Trades = s.Wins + s.Losses
	if s.Trades > 0 {
		s.WinRate = float64(s.Wins) / float64(s.Trades) * 100
		s.AvgPnL = s.TotalPnL / float64(s.Trades)
	}
	var grossProfit, grossLoss float64
	for _, ev := range events {
		if ev.Action != recorder.ActionClose {
			continue
		}
		if ev.PnL > 0 {
			grossProfit += ev.PnL
		} else {
			grossLoss -= ev.PnL
		}
	}
	if grossLoss > 0 {
		s.ProfitFactor = grossProfit / grossLoss
	} else if grossProfit > 0 {
		s.ProfitFactor = math.Inf(1)
	}
	s.MaxDrawdown = maxDrawdown(equity)
	s.EquityCurve = equity
	return s
}

func maxDrawdown(equity []float64) float64 {
	var peak, worst float64
	for i, v := range equity {
		if i == 0 || v > peak {
			peak = v
		}
		if dd := peak - v; dd > worst {
			worst = dd
		}
	}
	return worst
}

// Render formats the summary as a loggable block.
func (s Summary) Render() string {
	var b strings.Builder
	b.WriteString("===== Trading Performance Summary =====\n")
	fmt.Fprintf(&b, "trades: %d  wins: %d  losses: %d  winrate: %.2f%%\n", s.Trades, s.Wins, s.Losses, s.WinRate)
	fmt.Fprintf(&b, "total_pnl: %.4f  avg_pnl: %.4f\n", s.TotalPnL, s.AvgPnL)
	fmt.Fprintf(&b, "profit_factor: %.2f  max_drawdown: %.2f\n", s.ProfitFactor, s.MaxDrawdown)
	symbols := make([]string, 0, len(s.PerSymbol))
	for sym := range s.PerSymbol {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)
	for _, sym := range symbols {
		fmt.Fprintf(&b, "%s: %.4f\n", sym, s.PerSymbol[sym])
	}
	return b.String()
}
