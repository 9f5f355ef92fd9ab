// Package position tracks open positions and drives each one through the
// entry, breakeven, trailing and exit stages.
package position

import (
	"math"
	"time"

	"commander/internal/expert"
)

// State is the lifecycle stage of an open position. Closed is terminal; a
// reopened symbol gets a fresh Position.
type State int

const (
	StateOpen State = iota
	StateBreakevenArmed
	StateTrailing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "OPEN"
	case StateBreakevenArmed:
		return "BREAKEVEN_ARMED"
	case StateTrailing:
		return "TRAILING"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// trailing stop sits at 1.2 ATR behind price once armed; arming requires
// 1.5 R of favorable excursion.
const (
	trailATRMultiple  = 1.2
	trailArmRMultiple = 1.5
)

// Position is one open slot. Side is 1 for long, -1 for short; Quantity is
// absolute. InitialStop anchors the oneR excursion unit for the lifetime
// of the position even after the working stop moves.
type Position struct {
	TraceID     string
	Symbol      string
	Side        int
	Quantity    float64
	EntryPrice  float64
	StopLoss    float64
	InitialStop float64
	TakeProfit1 float64
	TakeProfit2 float64
	Notional    float64
	EntryTime   time.Time
	State       State

	// Votes are the expert signals that opened the position, kept for
	// P&L attribution when it closes.
	Votes map[string]expert.Signal
}

// OneR is the initial stop distance, the unit of excursion measurement.
func (p *Position) OneR() float64 {
	return math.Abs(p.EntryPrice - p.InitialStop)
}

// ExitReason says why Advance decided to close.
type ExitReason string

const (
	ExitStopHit   ExitReason = "stop-hit"
	ExitTargetHit ExitReason = "target-hit"
	ExitReversal  ExitReason = "reversal"
)

// Advance runs one lifecycle step against the latest price and ATR. The
// stop only ever tightens. It returns a non-empty reason when the position
// should be closed at the given price.
func (p *Position) Advance(price, atr float64) (ExitReason, bool) {
	if p.State == StateClosed {
		return "", false
	}
	side := float64(p.Side)
	r := (price - p.EntryPrice) * side
	oneR := p.OneR()

	if p.State == StateOpen && oneR > 0 && r >= oneR {
		p.StopLoss = p.EntryPrice
		p.State = StateBreakevenArmed
	}
	if oneR > 0 && r >= oneR*trailArmRMultiple {
		p.State = StateTrailing
	}
	if p.State == StateTrailing && atr > 0 {
		newStop := price - side*trailATRMultiple*atr
		if p.Side > 0 {
			p.StopLoss = math.Max(p.StopLoss, newStop)
		} else {
			p.StopLoss = math.Min(p.StopLoss, newStop)
		}
	}

	if (p.Side > 0 && price <= p.StopLoss) || (p.Side < 0 && price >= p.StopLoss) {
		return ExitStopHit, true
	}
	if (p.Side > 0 && price >= p.TakeProfit2) || (p.Side < 0 && price <= p.TakeProfit2) {
		return ExitTargetHit, true
	}
	return "", false
}

// Close marks the position terminal and returns the realized P&L in quote
// currency.
func (p *Position) Close(exitPrice float64) float64 {
	p.State = StateClosed
	return (exitPrice - p.EntryPrice) * float64(p.Side) * math.Abs(p.Quantity)
}

// UnrealizedPnL marks the position to the given price.
func (p *Position) UnrealizedPnL(price float64) float64 {
	return (price - p.EntryPrice) * float64(p.Side) * math.Abs(p.Quantity)
}
