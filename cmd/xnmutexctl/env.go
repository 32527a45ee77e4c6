package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/xipc/pkg/config/xconf"
	"github.com/omeyang/xipc/pkg/ipc/xnmutex"
	"github.com/omeyang/xipc/pkg/lifecycle/xrun"
	"github.com/omeyang/xipc/pkg/observability/xlog"
	"github.com/omeyang/xipc/pkg/observability/xmetrics"
)

const instrumentationName = "github.com/omeyang/xipc/cmd/xnmutexctl"

// env 单次命令执行所需的依赖。
type env struct {
	stdout  io.Writer
	stderr  io.Writer
	cfg     fileConfig
	loader  *xconf.Loader[fileConfig]
	logger  xlog.LoggerWithLevel
	factory *xnmutex.Factory

	// levelPinned --log-level 显式指定时，配置文件热更新不再修改级别。
	levelPinned bool
	closeLog    func() error
}

func newEnv(cmd *cli.Command, stdout, stderr io.Writer) (*env, error) {
	loader, cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	b := xlog.New().
		SetOutput(stderr).
		SetLevelString(cfg.Log.Level).
		SetFormat(cfg.Log.Format).
		SetAttrs(xlog.Process(), xlog.PID())
	if cfg.Log.File != "" {
		b.SetRotation(cfg.Log.File,
			xlog.WithMaxSize(cfg.Log.MaxSizeMB),
			xlog.WithMaxBackups(cfg.Log.MaxBackups),
			xlog.WithMaxAge(cfg.Log.MaxAgeDays),
			xlog.WithCompress(cfg.Log.Compress),
		)
	}
	logger, closeLog, err := b.Build()
	if err != nil {
		return nil, usagef("configure logging: %v", err)
	}

	// 使用全局 OTel provider；未安装 SDK 时为空操作。
	obs, err := xmetrics.NewOTelObserver(xmetrics.WithInstrumentationName(instrumentationName))
	if err != nil {
		return nil, errors.Join(err, closeLog())
	}

	factory, err := xnmutex.NewFactory(
		xnmutex.WithLogger(logger),
		xnmutex.WithObserver(obs),
		xnmutex.WithFallbackLimit(cfg.FallbackLimit),
	)
	if err != nil {
		return nil, errors.Join(usagef("%v", err), closeLog())
	}

	return &env{
		stdout:      stdout,
		stderr:      stderr,
		cfg:         cfg,
		loader:      loader,
		logger:      logger,
		factory:     factory,
		levelPinned: cmd.IsSet("log-level"),
		closeLog:    closeLog,
	}, nil
}

func (e *env) close() {
	_ = e.closeLog()
}

func (e *env) printf(format string, args ...any) {
	fmt.Fprintf(e.stdout, format, args...)
}

// holdUntilDone 阻塞到收到信号、d 到期（d > 0）或 services 出错。
// 信号与到期都视为正常结束。
func (e *env) holdUntilDone(ctx context.Context, d time.Duration, services ...func(context.Context) error) error {
	if d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	all := append([]func(context.Context) error{xrun.Idle}, services...)
	if w := e.configWatcher(); w != nil {
		all = append(all, w)
	}

	err := xrun.RunWithOptions(ctx, []xrun.Option{
		xrun.WithName("xnmutexctl"),
		xrun.WithLogger(e.logger),
	}, all...)
	switch {
	case err == nil, errors.Is(err, xrun.ErrSignal), errors.Is(err, context.DeadlineExceeded):
		return nil
	default:
		return err
	}
}

// configWatcher 在使用配置文件时返回一个热更新日志级别的服务。
func (e *env) configWatcher() func(context.Context) error {
	if e.loader == nil {
		return nil
	}
	w, err := e.loader.Watch(func(cfg *fileConfig, err error) {
		e.onConfigChange(context.Background(), cfg, err)
	})
	if err != nil {
		e.logger.Warn(context.Background(), "config watch disabled", xlog.Err(err))
		return nil
	}
	return w.Run
}

func (e *env) onConfigChange(ctx context.Context, cfg *fileConfig, err error) {
	if err != nil {
		e.logger.Warn(ctx, "config reload failed", xlog.Err(err))
		return
	}
	if e.levelPinned {
		return
	}
	level, err := xlog.ParseLevel(cfg.Log.Level)
	if err != nil {
		return
	}
	if level != e.logger.GetLevel() {
		e.logger.SetLevel(level)
		e.logger.Info(ctx, "log level reloaded", xlog.Component("xnmutexctl"), slog.String("level", level.String()))
	}
}
