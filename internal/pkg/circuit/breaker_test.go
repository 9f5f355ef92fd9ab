package circuit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBreakerOpensAtThreshold(t *testing.T) {
	cb := NewCircuitBreaker("test", 3, time.Hour)

	assert.True(t, cb.Allow())
	cb.RecordFailure()
	cb.RecordFailure()
	assert.True(t, cb.Allow(), "below threshold stays closed")

	cb.RecordFailure()
	assert.False(t, cb.Allow(), "threshold failures open the breaker")
}

func TestBreakerHalfOpenRecovery(t *testing.T) {
	cb := NewCircuitBreaker("test", 1, 10*time.Millisecond)
	cb.RecordFailure()
	assert.False(t, cb.Allow())

	time.Sleep(20 * time.Millisecond)
	assert.True(t, cb.Allow(), "timeout elapses into half-open")

	cb.RecordSuccess()
	assert.True(t, cb.Allow())
	assert.Equal(t, StateClosed, cb.state)
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker("test", 1, 10*time.Millisecond)
	cb.RecordFailure()
	time.Sleep(20 * time.Millisecond)
	assert.True(t, cb.Allow())

	cb.RecordFailure()
	assert.False(t, cb.Allow())
}

func TestSuccessResetsFailureCount(t *testing.T) {
	cb := NewCircuitBreaker("test", 2, time.Hour)
	cb.RecordFailure()
	cb.RecordSuccess()
	cb.RecordFailure()
	assert.True(t, cb.Allow(), "success in closed state wipes the failure streak")
}
