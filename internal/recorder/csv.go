package recorder

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

var csvHeader = []string{
	"timestamp", "trace_id", "symbol", "action", "side",
	"quantity", "price", "notional", "reason", "pnl", "pnl_daily",
}

// CSVRecorder appends trade events to a flat file, one row per event.
type CSVRecorder struct {
	mu   sync.Mutex
	file *os.File
	w    *csv.Writer
}

func NewCSVRecorder(path string) (*CSVRecorder, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating trade log dir failed: %w", err)
		}
	}
	info, statErr := os.Stat(path)
	fresh := statErr != nil || info.Size() == 0
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening trade log failed: %w", err)
	}
	r := &CSVRecorder{file: file, w: csv.NewWriter(file)}
	if fresh {
		if err := r.w.Write(csvHeader); err != nil {
			file.Close()
			return nil, err
		}
		r.w.Flush()
	}
	return r, nil
}

func (r *CSVRecorder) Record(_ context.Context, ev TradeEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row := []string{
		ev.Timestamp.UTC().Format(time.RFC3339),
		ev.TraceID,
		ev.Symbol,
		ev.Action,
		ev.Side,
		formatFloat(ev.Quantity),
		formatFloat(ev.Price),
		formatFloat(ev.Notional),
		ev.Reason,
		formatFloat(ev.PnL),
		formatFloat(ev.DailyPnL),
	}
	if err := r.w.Write(row); err != nil {
		return err
	}
	r.w.Flush()
	return r.w.Error()
}

func (r *CSVRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.w.Flush()
	return r.file.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
