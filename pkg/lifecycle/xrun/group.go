package xrun

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/omeyang/xipc/pkg/observability/xlog"
)

// Group 管理一组共享取消信号的函数。Go、GoNamed、Cancel 可并发调用，Wait 只应调用一次。
type Group struct {
	eg       *errgroup.Group
	ctx      context.Context
	causeCtx context.Context
	cancel   context.CancelCauseFunc
	opts     *groupOptions
}

// NewGroup 返回 Group 及其派生 context。nil ctx 视为 context.Background()。
func NewGroup(ctx context.Context, opts ...Option) (*Group, context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	if o.logger == nil {
		o.logger = xlog.Default()
	}

	causeCtx, cancel := context.WithCancelCause(ctx)
	eg, egCtx := errgroup.WithContext(causeCtx)
	return &Group{eg: eg, ctx: egCtx, causeCtx: causeCtx, cancel: cancel, opts: o}, egCtx
}

// Go 在新 goroutine 中运行 fn，返回非 nil 错误会取消整个组。
func (g *Group) Go(fn func(ctx context.Context) error) {
	g.eg.Go(func() error {
		if fn == nil {
			return ErrNilFunc
		}
		return fn(g.ctx)
	})
}

// GoNamed 同 Go，额外记录启动与退出日志。
func (g *Group) GoNamed(name string, fn func(ctx context.Context) error) {
	g.Go(func(ctx context.Context) error {
		if fn == nil {
			return ErrNilFunc
		}
		attrs := []slog.Attr{slog.String("group", g.opts.name), slog.String("service", name)}
		g.opts.logger.Debug(ctx, "service starting", attrs...)
		err := fn(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			g.opts.logger.Warn(ctx, "service exited with error", append(attrs, xlog.Err(err))...)
		} else {
			g.opts.logger.Debug(ctx, "service stopped", attrs...)
		}
		return err
	})
}

// Wait 等待所有函数返回。
//
// 组被取消时返回显式的 cause（Cancel 的参数或 *SignalError），没有 cause 时返回 nil；
// 来自函数内部、与组取消无关的 context.Canceled 原样返回。
func (g *Group) Wait() error {
	defer g.cancel(nil)

	err := g.eg.Wait()
	canceled := g.causeCtx.Err() != nil

	switch {
	case errors.Is(err, context.Canceled) && canceled:
		return g.cause()
	case err == nil && canceled:
		return g.cause()
	default:
		return err
	}
}

func (g *Group) cause() error {
	if c := context.Cause(g.causeCtx); c != nil && !errors.Is(c, context.Canceled) {
		return c
	}
	return nil
}

// Cancel 取消组内所有函数，cause 会成为 Wait 的返回值。
// cause 不应包装 context.Canceled，否则会被当作普通取消过滤掉。
func (g *Group) Cancel(cause error) {
	g.cancel(cause)
}

// Context 返回组的 context。
func (g *Group) Context() context.Context {
	return g.ctx
}

// Idle 阻塞到 ctx 取消，用于"持有资源直到退出"的场景。
func Idle(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}
