package xrun

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// DefaultSignals 返回 SIGHUP、SIGINT、SIGTERM、SIGQUIT。每次返回新切片。
func DefaultSignals() []os.Signal {
	return []os.Signal{syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT}
}

// Run 运行 services 并监听信号，收到信号时返回 *SignalError。
func Run(ctx context.Context, services ...func(ctx context.Context) error) error {
	return RunWithOptions(ctx, nil, services...)
}

// RunWithOptions 同 Run，支持选项。
func RunWithOptions(ctx context.Context, opts []Option, services ...func(ctx context.Context) error) error {
	g, _ := NewGroup(ctx, opts...)
	if !g.opts.noSignalHandler {
		g.Go(g.watchSignals)
	}
	for _, svc := range services {
		g.Go(svc)
	}
	return g.Wait()
}

// RunTask 运行一个会自行结束的任务并监听信号：任务返回即结束，收到信号时取消任务的 ctx。
// 返回任务的错误；任务返回 nil 但期间收到信号时返回 *SignalError。
func RunTask(ctx context.Context, opts []Option, task func(ctx context.Context) error) error {
	g, _ := NewGroup(ctx, opts...)
	if !g.opts.noSignalHandler {
		g.Go(g.watchSignals)
	}
	g.Go(func(ctx context.Context) error {
		if task == nil {
			return ErrNilFunc
		}
		err := task(ctx)
		if err == nil {
			g.cancel(nil)
		}
		return err
	})
	return g.Wait()
}

func (g *Group) watchSignals(ctx context.Context) error {
	signals := g.opts.signals
	if len(signals) == 0 {
		signals = DefaultSignals()
	}
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, signals...)
	defer signal.Stop(ch)

	var sig os.Signal
	select {
	case sig = <-injectedSignals(ctx):
	case sig = <-ch:
	case <-ctx.Done():
		return ctx.Err()
	}

	g.opts.logger.Info(ctx, "received signal",
		slog.String("group", g.opts.name),
		slog.String("signal", sig.String()),
	)
	g.cancel(&SignalError{Signal: sig})
	return nil
}

type signalChanKey struct{}

// injectedSignals 返回测试经 context 注入的信号通道，生产环境为 nil。
func injectedSignals(ctx context.Context) <-chan os.Signal {
	c, _ := ctx.Value(signalChanKey{}).(<-chan os.Signal)
	return c
}
