// Package indicator computes the technical features the decision pipeline
// consumes. Everything here is a pure function of the candle window.
package indicator

import (
	"math"

	talib "github.com/markcheno/go-talib"

	"commander/internal/market"
)

// Snapshot carries the per-bar features the regime detector and entry
// filters read. A window shorter than the required lookback yields zero
// values instead of an error.
type Snapshot struct {
	EMA50    float64
	EMA200   float64
	ATR14    float64
	ATR20    float64
	ATR20MA  float64
	ADX14    float64
	RSI14    float64
	Close    float64
	ATRRatio float64
}

// minLookback is what the slowest feature (EMA200) needs to be meaningful.
const minLookback = 200

// Compute derives the latest feature snapshot from a candle window.
func Compute(candles []market.Candle) Snapshot {
	snap := Snapshot{Close: market.LastClose(candles)}
	if len(candles) == 0 {
		return snap
	}
	closes := make([]float64, len(candles))
	highs := make([]float64, len(candles))
	lows := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
		highs[i] = c.High
		lows[i] = c.Low
	}

	if len(candles) >= minLookback {
		snap.EMA50 = lastValid(talib.Ema(closes, 50))
		snap.EMA200 = lastValid(talib.Ema(closes, 200))
	} else if len(candles) >= 50 {
		snap.EMA50 = lastValid(talib.Ema(closes, 50))
	}
	if len(candles) >= 15 {
		snap.ATR14 = lastValid(talib.Atr(highs, lows, closes, 14))
		snap.RSI14 = lastValid(talib.Rsi(closes, 14))
	}
	if len(candles) >= 28 {
		snap.ADX14 = lastValid(talib.Adx(highs, lows, closes, 14))
	}
	if len(candles) >= 40 {
		atr20 := talib.Atr(highs, lows, closes, 20)
		snap.ATR20 = lastValid(atr20)
		snap.ATR20MA = lastValid(talib.Sma(sanitizeSeries(atr20), 20))
		if snap.ATR20MA > 0 {
			snap.ATRRatio = snap.ATR20 / snap.ATR20MA
		}
	}
	return snap
}

// ATRSeries computes the ATR series alone; the position manager needs it
// every cycle even when the rest of the snapshot is not rebuilt.
func ATRSeries(candles []market.Candle, period int) []float64 {
	if period <= 0 {
		period = 14
	}
	if len(candles) <= period {
		return nil
	}
	highs := make([]float64, len(candles))
	lows := make([]float64, len(candles))
	closes := make([]float64, len(candles))
	for i, c := range candles {
		highs[i] = c.High
		lows[i] = c.Low
		closes[i] = c.Close
	}
	return sanitizeSeries(talib.Atr(highs, lows, closes, period))
}

// LatestATR returns the most recent ATR value, 0 when the window is short.
func LatestATR(candles []market.Candle, period int) float64 {
	return lastValid(ATRSeries(candles, period))
}

func sanitizeSeries(src []float64) []float64 {
	out := make([]float64, 0, len(src))
	for _, v := range src {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out = append(out, v)
	}
	return out
}

func lastValid(series []float64) float64 {
	for i := len(series) - 1; i >= 0; i-- {
		if !math.IsNaN(series[i]) && !math.IsInf(series[i], 0) {
			return series[i]
		}
	}
	return 0
}
