package market

import "context"

// Source supplies historical candles for one symbol and interval.
// A failed fetch marks the symbol unusable for the current cycle only;
// callers must not treat it as fatal.
type Source interface {
	FetchHistory(ctx context.Context, symbol, interval string, limit int) ([]Candle, error)
}
