package xretry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFixedRetry(t *testing.T) {
	ctx := context.Background()
	p := NewFixedRetry(3)
	assert.Equal(t, 3, p.MaxAttempts())
	assert.True(t, p.ShouldRetry(ctx, 1, errBusy))
	assert.True(t, p.ShouldRetry(ctx, 2, errBusy))
	assert.False(t, p.ShouldRetry(ctx, 3, errBusy))
	assert.False(t, p.ShouldRetry(ctx, 1, NewPermanentError(errBusy)))
	assert.Equal(t, 1, NewFixedRetry(0).MaxAttempts())

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	assert.False(t, p.ShouldRetry(canceled, 1, errBusy))
}

func TestAlwaysAndNeverRetry(t *testing.T) {
	ctx := context.Background()
	assert.Zero(t, NewAlwaysRetry().MaxAttempts())
	assert.True(t, NewAlwaysRetry().ShouldRetry(ctx, 1_000_000, errBusy))
	assert.Equal(t, 1, NewNeverRetry().MaxAttempts())
	assert.False(t, NewNeverRetry().ShouldRetry(ctx, 1, errBusy))
}

func TestRetryOn(t *testing.T) {
	ctx := context.Background()
	p := RetryOn(NewFixedRetry(5), errBusy)
	assert.True(t, p.ShouldRetry(ctx, 1, fmt.Errorf("wrapped: %w", errBusy)))
	assert.False(t, p.ShouldRetry(ctx, 1, errFatal))
	assert.False(t, p.ShouldRetry(ctx, 5, errBusy))
	assert.Equal(t, 5, p.MaxAttempts())

	inner := NewNeverRetry()
	assert.Same(t, inner, RetryOn(inner))
	assert.Equal(t, defaultAttempts, RetryOn(nil, errBusy).MaxAttempts())
}

func TestErrors(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.True(t, IsRetryable(errBusy))
	assert.False(t, IsRetryable(fmt.Errorf("ctx: %w", NewPermanentError(errBusy))))
	assert.True(t, IsPermanent(NewPermanentError(nil)))
	assert.False(t, IsPermanent(nil))

	pe := NewPermanentError(errBusy)
	assert.Equal(t, "busy", pe.Error())
	assert.True(t, errors.Is(pe, errBusy))
	assert.Equal(t, "permanent error", NewPermanentError(nil).Error())
}

func TestFixedBackoff(t *testing.T) {
	assert.Equal(t, time.Second, NewFixedBackoff(time.Second).NextDelay(7))
	assert.Zero(t, NewFixedBackoff(-time.Second).NextDelay(1))
}

func TestExponentialBackoff(t *testing.T) {
	b := NewExponentialBackoff(
		WithInitialDelay(10*time.Millisecond),
		WithMaxDelay(100*time.Millisecond),
		WithMultiplier(2),
		WithJitter(0),
	)
	assert.Equal(t, 10*time.Millisecond, b.NextDelay(0))
	assert.Equal(t, 10*time.Millisecond, b.NextDelay(1))
	assert.Equal(t, 20*time.Millisecond, b.NextDelay(2))
	assert.Equal(t, 80*time.Millisecond, b.NextDelay(4))
	assert.Equal(t, 100*time.Millisecond, b.NextDelay(5))
	assert.Equal(t, 100*time.Millisecond, b.NextDelay(math.MaxInt))
}

func TestExponentialBackoff_JitterBounds(t *testing.T) {
	b := NewExponentialBackoff(WithInitialDelay(100*time.Millisecond), WithJitter(0.5), WithJitter(2))
	assert.Equal(t, 1.0, b.jitter)

	b = NewExponentialBackoff(WithInitialDelay(100*time.Millisecond), WithJitter(0.2))
	for range 100 {
		d := b.NextDelay(1)
		assert.GreaterOrEqual(t, d, 80*time.Millisecond)
		assert.LessOrEqual(t, d, 120*time.Millisecond)
	}
}

func TestExponentialBackoff_MaxNotBelowInitial(t *testing.T) {
	b := NewExponentialBackoff(WithInitialDelay(time.Minute), WithMaxDelay(time.Second), WithJitter(0))
	assert.Equal(t, time.Minute, b.NextDelay(3))
}
