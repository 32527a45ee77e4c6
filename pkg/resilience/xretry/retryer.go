package xretry

import (
	"context"
	"math"
	"time"

	retry "github.com/avast/retry-go/v5"
)

const defaultAttempts = 3

// Retryer 按 RetryPolicy 与 BackoffPolicy 执行重试。零值与 nil 均可用，使用默认策略。
type Retryer struct {
	retryPolicy   RetryPolicy
	backoffPolicy BackoffPolicy
	onRetry       func(attempt int, err error)
}

// RetryerOption 配置 Retryer。
type RetryerOption func(*Retryer)

// WithRetryPolicy nil 被忽略。
func WithRetryPolicy(p RetryPolicy) RetryerOption {
	return func(r *Retryer) {
		if p != nil {
			r.retryPolicy = p
		}
	}
}

// WithBackoffPolicy nil 被忽略。
func WithBackoffPolicy(p BackoffPolicy) RetryerOption {
	return func(r *Retryer) {
		if p != nil {
			r.backoffPolicy = p
		}
	}
}

// WithOnRetry 每次决定重试后、等待之前调用，attempt 为已失败次数（从 1 开始）。
func WithOnRetry(f func(attempt int, err error)) RetryerOption {
	return func(r *Retryer) {
		if f != nil {
			r.onRetry = f
		}
	}
}

// NewRetryer 默认 NewFixedRetry(3) 与 NewExponentialBackoff()。
func NewRetryer(opts ...RetryerOption) *Retryer {
	r := &Retryer{}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Do 执行 fn 直到成功或策略放弃，返回最后一次的错误。
func (r *Retryer) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := r.check(ctx, fn == nil); err != nil {
		return err
	}
	return retry.New(r.options(ctx)...).Do(func() error {
		return fn(ctx)
	})
}

// DoWithResult 是 Do 的带返回值版本。
func DoWithResult[T any](ctx context.Context, r *Retryer, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if err := r.check(ctx, fn == nil); err != nil {
		return zero, err
	}
	return retry.NewWithData[T](r.options(ctx)...).Do(func() (T, error) {
		return fn(ctx)
	})
}

func (r *Retryer) check(ctx context.Context, nilFn bool) error {
	switch {
	case ctx == nil:
		return ErrNilContext
	case nilFn:
		return ErrNilFunc
	}
	return nil
}

func (r *Retryer) policies() (RetryPolicy, BackoffPolicy) {
	var (
		rp RetryPolicy   = NewFixedRetry(defaultAttempts)
		bp BackoffPolicy = NewExponentialBackoff()
	)
	if r != nil && r.retryPolicy != nil {
		rp = r.retryPolicy
	}
	if r != nil && r.backoffPolicy != nil {
		bp = r.backoffPolicy
	}
	return rp, bp
}

// options 每次调用重新构建，failures 计数属于单次 Do。
func (r *Retryer) options(ctx context.Context) []retry.Option {
	rp, bp := r.policies()

	opts := make([]retry.Option, 0, 6)
	opts = append(opts, retry.Context(ctx), retry.LastErrorOnly(true))

	if n := rp.MaxAttempts(); n > 0 {
		opts = append(opts, retry.Attempts(uint(n)))
	} else {
		opts = append(opts, retry.UntilSucceeded())
	}

	failures := 0
	opts = append(opts,
		retry.RetryIf(func(err error) bool {
			failures++
			return retry.IsRecoverable(err) && rp.ShouldRetry(ctx, failures, err)
		}),
		// retry-go v5 的 n 从 1 开始。
		retry.DelayType(func(n uint, _ error, _ retry.DelayContext) time.Duration {
			return bp.NextDelay(clampInt(n))
		}),
	)

	if r != nil && r.onRetry != nil {
		onRetry := r.onRetry
		// OnRetry 的 n 从 0 开始。
		opts = append(opts, retry.OnRetry(func(n uint, err error) {
			onRetry(clampInt(n)+1, err)
		}))
	}
	return opts
}

func clampInt(n uint) int {
	if n > math.MaxInt {
		return math.MaxInt
	}
	return int(n)
}
