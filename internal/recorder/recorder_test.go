package recorder

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEvent(action string, pnl float64) TradeEvent {
	return TradeEvent{
		TraceID:   "t-1",
		Timestamp: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Symbol:    "BTC/USDT",
		Action:    action,
		Side:      "buy",
		Quantity:  0.5,
		Price:     64000,
		Notional:  32000,
		Reason:    "net=0.430 experts=trend",
		PnL:       pnl,
	}
}

func TestCSVRecorderWritesHeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.csv")

	r, err := NewCSVRecorder(path)
	require.NoError(t, err)
	require.NoError(t, r.Record(context.Background(), sampleEvent(ActionOpen, 0)))
	require.NoError(t, r.Close())

	// Reopening an existing file appends without a second header.
	r, err = NewCSVRecorder(path)
	require.NoError(t, err)
	require.NoError(t, r.Record(context.Background(), sampleEvent(ActionClose, -12.5)))
	require.NoError(t, r.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "timestamp,"))
	assert.Contains(t, lines[1], "BTC/USDT")
	assert.Contains(t, lines[2], "-12.5")
}

func TestCSVRecorderCreatesDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deep", "trades.csv")
	r, err := NewCSVRecorder(path)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

type stubSink struct {
	events int
	err    error
}

func (s *stubSink) Record(context.Context, TradeEvent) error {
	s.events++
	return s.err
}

func (s *stubSink) Close() error { return s.err }

func TestMultiFansOutAndKeepsFirstError(t *testing.T) {
	boom := errors.New("boom")
	a := &stubSink{err: boom}
	b := &stubSink{}

	m := NewMulti(a, nil, b)
	err := m.Record(context.Background(), sampleEvent(ActionOpen, 0))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, a.events)
	assert.Equal(t, 1, b.events, "later sinks still see the event")

	assert.ErrorIs(t, m.Close(), boom)
}

func TestStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.db")
	s, err := NewStore(path)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	open := sampleEvent(ActionOpen, 0)
	open.Votes = []byte(`{"trend":{"direction":1,"strength":0.8,"reason":"up"}}`)
	require.NoError(t, s.Record(ctx, open))
	closeEv := sampleEvent(ActionClose, 42)
	closeEv.Timestamp = closeEv.Timestamp.Add(time.Minute)
	require.NoError(t, s.Record(ctx, closeEv))

	events, err := s.ListEvents(ctx, 0)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, ActionOpen, events[0].Action)
	assert.Equal(t, ActionClose, events[1].Action)
	assert.InDelta(t, 42, events[1].PnL, 1e-9)
	assert.JSONEq(t, string(open.Votes), string(events[0].Votes))

	limited, err := s.ListEvents(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
