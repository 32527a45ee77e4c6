package xretry

import (
	"context"
	"errors"
)

// RetryPolicy 决定是否继续重试。
type RetryPolicy interface {
	// MaxAttempts 最大尝试次数（含首次），0 表示不限。
	MaxAttempts() int

	// ShouldRetry 在第 attempt 次（从 1 开始）失败后调用。
	ShouldRetry(ctx context.Context, attempt int, err error) bool
}

// FixedRetryPolicy 最多尝试固定次数。
type FixedRetryPolicy struct {
	maxAttempts int
}

// NewFixedRetry 创建固定次数策略，maxAttempts 小于 1 时按 1 处理。
func NewFixedRetry(maxAttempts int) *FixedRetryPolicy {
	return &FixedRetryPolicy{maxAttempts: max(maxAttempts, 1)}
}

func (p *FixedRetryPolicy) MaxAttempts() int { return p.maxAttempts }

func (p *FixedRetryPolicy) ShouldRetry(ctx context.Context, attempt int, err error) bool {
	return ctx.Err() == nil && attempt < p.maxAttempts && IsRetryable(err)
}

// AlwaysRetryPolicy 直到成功、ctx 取消或遇到永久性错误。
type AlwaysRetryPolicy struct{}

func NewAlwaysRetry() *AlwaysRetryPolicy { return &AlwaysRetryPolicy{} }

func (*AlwaysRetryPolicy) MaxAttempts() int { return 0 }

func (*AlwaysRetryPolicy) ShouldRetry(ctx context.Context, _ int, err error) bool {
	return ctx.Err() == nil && IsRetryable(err)
}

// NeverRetryPolicy 只执行一次。
type NeverRetryPolicy struct{}

func NewNeverRetry() *NeverRetryPolicy { return &NeverRetryPolicy{} }

func (*NeverRetryPolicy) MaxAttempts() int { return 1 }

func (*NeverRetryPolicy) ShouldRetry(context.Context, int, error) bool { return false }

// matchPolicy 仅对匹配 targets 的错误重试。
type matchPolicy struct {
	RetryPolicy
	targets []error
}

// RetryOn 在 p 的基础上增加限制：只有 errors.Is 匹配某个 target 的错误才重试。
// 未给出 targets 时返回 p；p 为 nil 时使用 NewFixedRetry(3)。
func RetryOn(p RetryPolicy, targets ...error) RetryPolicy {
	if p == nil {
		p = NewFixedRetry(defaultAttempts)
	}
	if len(targets) == 0 {
		return p
	}
	return &matchPolicy{RetryPolicy: p, targets: targets}
}

func (p *matchPolicy) ShouldRetry(ctx context.Context, attempt int, err error) bool {
	for _, target := range p.targets {
		if errors.Is(err, target) {
			return p.RetryPolicy.ShouldRetry(ctx, attempt, err)
		}
	}
	return false
}

var (
	_ RetryPolicy = (*FixedRetryPolicy)(nil)
	_ RetryPolicy = (*AlwaysRetryPolicy)(nil)
	_ RetryPolicy = (*NeverRetryPolicy)(nil)
	_ RetryPolicy = (*matchPolicy)(nil)
)
