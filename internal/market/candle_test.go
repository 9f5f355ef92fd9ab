package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloses(t *testing.T) {
	candles := []Candle{{Close: 1}, {Close: 2}, {Close: 3}}
	assert.Equal(t, []float64{1, 2, 3}, Closes(candles))
	assert.Empty(t, Closes(nil))
}

func TestLastClose(t *testing.T) {
	assert.Zero(t, LastClose(nil))
	assert.InDelta(t, 3, LastClose([]Candle{{Close: 1}, {Close: 3}}), 1e-9)
}
