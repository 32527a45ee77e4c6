// Package xrun 基于 errgroup 协调一组长期运行的函数，并把系统信号转换为退出原因。
//
// 任一函数返回错误、调用 Cancel 或收到信号时，其余函数的 ctx 都会被取消。
// Wait 返回第一个有意义的退出原因：函数错误、Cancel(cause) 的 cause、或 *SignalError；
// 普通的 context.Canceled 被过滤为 nil。
//
//	err := xrun.Run(ctx, func(ctx context.Context) error {
//	    return hold(ctx)
//	})
//	if errors.Is(err, xrun.ErrSignal) {
//	    // 正常退出
//	}
package xrun
