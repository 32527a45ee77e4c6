// Package xretry 提供基于 avast/retry-go/v5 的策略化重试执行器。
//
// Retryer 由两部分组成：
//   - RetryPolicy 决定最多尝试几次、某次失败后是否继续
//   - BackoffPolicy 决定两次尝试之间等待多久
//
// 示例：等待另一个进程释放单实例锁。
//
//	r := xretry.NewRetryer(
//	    xretry.WithRetryPolicy(xretry.RetryOn(xretry.NewFixedRetry(10), xnmutex.ErrAlreadyOwnedByAnotherProcess)),
//	    xretry.WithBackoffPolicy(xretry.NewExponentialBackoff(xretry.WithMaxDelay(2*time.Second))),
//	)
//	m, err := xretry.DoWithResult(ctx, r, func(context.Context) (*xnmutex.Mutex, error) {
//	    return xnmutex.Create("app", xnmutex.ModeUnique)
//	})
//
// NewPermanentError 包装的错误不会被重试；ctx 取消后立即停止并返回 ctx 错误。
package xretry
