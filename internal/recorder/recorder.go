// Package recorder persists the decision/trade event stream for audit and
// reporting. The engine only writes events; nothing here feeds back into
// decisions.
package recorder

import (
	"context"
	"time"
)

// Action distinguishes the two lifecycle edges an event can record.
const (
	ActionOpen  = "open"
	ActionClose = "close"
)

// TradeEvent is one audit record: an order intent that was filled.
type TradeEvent struct {
	TraceID   string    `json:"trace_id"`
	Timestamp time.Time `json:"timestamp"`
	Symbol    string    `json:"symbol"`
	Action    string    `json:"action"`
	Side      string    `json:"side"`
	Quantity  float64   `json:"quantity"`
	Price     float64   `json:"price"`
	Notional  float64   `json:"notional"`
	Reason    string    `json:"reason"`
	PnL       float64   `json:"pnl"`
	DailyPnL  float64   `json:"daily_pnl"`
	// Votes is the expert attribution snapshot serialized as JSON.
	Votes []byte `json:"votes,omitempty"`
}

type Recorder interface {
	Record(ctx context.Context, ev TradeEvent) error
	Close() error
}

// Multi fans one event out to several sinks; the first error wins but all
// sinks still see the event.
type Multi struct {
	sinks []Recorder
}

func NewMulti(sinks ...Recorder) *Multi {
	out := make([]Recorder, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return &Multi{sinks: out}
}

func (m *Multi) Record(ctx context.Context, ev TradeEvent) error {
	var first error
	for _, s := range m.sinks {
		if err := s.Record(ctx, ev); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (m *Multi) Close() error {
	var first error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
