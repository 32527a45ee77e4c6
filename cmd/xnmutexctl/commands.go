package main

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/xipc/pkg/ipc/xnmutex"
	"github.com/omeyang/xipc/pkg/lifecycle/xrun"
	"github.com/omeyang/xipc/pkg/observability/xlog"
	"github.com/omeyang/xipc/pkg/resilience/xretry"
	"github.com/omeyang/xipc/pkg/util/xproc"
)

// childWaitDelay 子命令收到中断后到被强制结束的等待时间。
const childWaitDelay = 5 * time.Second

type action func(ctx context.Context, e *env, cmd *cli.Command) error

func createCommands(stdout, stderr io.Writer) []*cli.Command {
	forFlag := func() cli.Flag {
		return &cli.DurationFlag{
			Name:  "for",
			Usage: "持有时长，0 表示直到收到信号",
		}
	}
	// bind 为每个命令准备 env，命令结束后关闭日志文件。
	bind := func(fn action) cli.ActionFunc {
		return func(ctx context.Context, cmd *cli.Command) error {
			e, err := newEnv(cmd, stdout, stderr)
			if err != nil {
				return err
			}
			defer e.close()
			return fn(ctx, e, cmd)
		}
	}

	return []*cli.Command{
		{
			Name:      "hold",
			Usage:     "独占持有名称，直到收到信号或 --for 到期",
			ArgsUsage: "<name>",
			Flags: []cli.Flag{
				forFlag(),
				&cli.BoolFlag{Name: "wait", Aliases: []string{"w"}, Usage: "名称被其他进程持有时等待"},
				&cli.IntFlag{Name: "retry-max", Usage: "--wait 的最大尝试次数，0 表示一直等待（覆盖配置文件）"},
			},
			Action: bind(cmdHold),
		},
		{
			Name:      "instance",
			Usage:     "以第一个空闲的派生名称持有（base、base-1、base-2 ...）",
			ArgsUsage: "<base>",
			Flags:     []cli.Flag{forFlag()},
			Action:    bind(cmdInstance),
		},
		{
			Name:      "lock",
			Usage:     "阻塞获取共享锁并持有",
			ArgsUsage: "<name>",
			Flags:     []cli.Flag{forFlag()},
			Action:    bind(cmdLock),
		},
		{
			Name:      "try",
			Usage:     "尝试获取共享锁并立即释放（0: 已获取，1: 被占用）",
			ArgsUsage: "<name>",
			Action:    bind(cmdTry),
		},
		{
			Name:      "run",
			Usage:     "持有共享锁执行子命令",
			ArgsUsage: "<name> -- <command> [args...]",
			Action:    bind(cmdRun),
		},
		{
			Name:      "remove",
			Usage:     "删除残留的命名对象",
			ArgsUsage: "<name>",
			Action:    bind(cmdRemove),
		},
	}
}

func onlyName(args []string, what string) (string, error) {
	if len(args) != 1 || args[0] == "" {
		return "", usagef("expected exactly one %s argument, got %d", what, len(args))
	}
	return args[0], nil
}

// cmdHold 创建唯一实例并持有。--wait 时对"被其他进程持有"按配置退避重试。
func cmdHold(ctx context.Context, e *env, cmd *cli.Command) error {
	name, err := onlyName(cmd.Args().Slice(), "name")
	if err != nil {
		return err
	}
	if cmd.IsSet("retry-max") {
		e.cfg.Wait.RetryMax = int(cmd.Int("retry-max"))
		if e.cfg.Wait.RetryMax < 0 {
			return usagef("--retry-max must not be negative")
		}
	}

	create := func(context.Context) (*xnmutex.Mutex, error) {
		return e.factory.Create(name, xnmutex.ModeUnique)
	}
	var m *xnmutex.Mutex
	if cmd.Bool("wait") {
		m, err = xretry.DoWithResult(ctx, e.waitRetryer(name), create)
	} else {
		m, err = create(ctx)
	}
	if err != nil {
		return e.reportCreateErr(name, err)
	}
	defer m.Close()

	e.printf("holding %s (%s)\n", name, xproc.Identity())
	return e.holdUntilDone(ctx, cmd.Duration("for"))
}

func (e *env) waitRetryer(name string) *xretry.Retryer {
	var policy xretry.RetryPolicy = xretry.NewAlwaysRetry()
	if n := e.cfg.Wait.RetryMax; n > 0 {
		policy = xretry.NewFixedRetry(n)
	}
	return xretry.NewRetryer(
		xretry.WithRetryPolicy(xretry.RetryOn(policy, xnmutex.ErrAlreadyOwnedByAnotherProcess)),
		xretry.WithBackoffPolicy(xretry.NewExponentialBackoff(
			xretry.WithInitialDelay(e.cfg.Wait.InitialDelay),
			xretry.WithMaxDelay(e.cfg.Wait.MaxDelay),
		)),
		xretry.WithOnRetry(func(attempt int, err error) {
			e.logger.Info(context.Background(), "waiting for owner to exit",
				xlog.Operation("hold"), xlog.Err(err), slog.Int("attempt", attempt), slog.String("mutex.name", name))
		}),
	)
}

// reportCreateErr 把"已被持有"转换为退出码 1，名称错误转换为退出码 2。
func (e *env) reportCreateErr(name string, err error) error {
	switch {
	case errors.Is(err, xnmutex.ErrInvalidName):
		return usagef("%v", err)
	case errors.Is(err, xnmutex.ErrAlreadyOwnedByAnotherProcess):
		e.printf("busy: %s is held by another process\n", name)
		return &exitError{code: 1}
	case errors.Is(err, xnmutex.ErrAlreadyOwnedByThisProcess):
		e.printf("busy: %s is already held by this process\n", name)
		return &exitError{code: 1}
	default:
		return err
	}
}

func cmdInstance(ctx context.Context, e *env, cmd *cli.Command) error {
	base, err := onlyName(cmd.Args().Slice(), "base")
	if err != nil {
		return err
	}
	m, name, err := e.factory.CreateWithFallbackNaming(base)
	if err != nil {
		if errors.Is(err, xnmutex.ErrFallbackExhausted) {
			e.printf("busy: no free name derived from %s\n", base)
			return &exitError{code: 1}
		}
		return e.reportCreateErr(base, err)
	}
	defer m.Close()

	e.printf("%s\n", name)
	return e.holdUntilDone(ctx, cmd.Duration("for"))
}

// cmdLock 阻塞等待期间不监听信号：Ctrl+C 直接结束进程，不会占用锁。
func cmdLock(ctx context.Context, e *env, cmd *cli.Command) error {
	name, err := onlyName(cmd.Args().Slice(), "name")
	if err != nil {
		return err
	}
	m, err := e.factory.Create(name, xnmutex.ModeOpenIfExists)
	if err != nil {
		return e.reportCreateErr(name, err)
	}
	defer m.Close()

	if err := m.Lock(); err != nil {
		return err
	}
	e.printf("locked %s (%s)\n", name, xproc.Identity())
	if err := e.holdUntilDone(ctx, cmd.Duration("for")); err != nil {
		return err
	}
	return m.Unlock()
}

func cmdTry(_ context.Context, e *env, cmd *cli.Command) error {
	name, err := onlyName(cmd.Args().Slice(), "name")
	if err != nil {
		return err
	}
	m, err := e.factory.Create(name, xnmutex.ModeOpenIfExists)
	if err != nil {
		return e.reportCreateErr(name, err)
	}
	defer m.Close()

	ok, err := m.TryLock()
	if err != nil {
		return err
	}
	if !ok {
		e.printf("busy\n")
		return &exitError{code: 1}
	}
	e.printf("acquired\n")
	return m.Unlock()
}

// cmdRun 持锁执行子命令。收到信号时向子进程发送中断，childWaitDelay 后强制结束。
func cmdRun(ctx context.Context, e *env, cmd *cli.Command) error {
	name, argv, err := splitRunArgs(cmd.Args().Slice())
	if err != nil {
		return err
	}
	m, err := e.factory.Create(name, xnmutex.ModeOpenIfExists)
	if err != nil {
		return e.reportCreateErr(name, err)
	}
	defer m.Close()

	if err := m.Lock(); err != nil {
		return err
	}
	defer func() { _ = m.Unlock() }()
	e.logger.Debug(ctx, "running command under lock", slog.String("mutex.name", name), slog.String("command", argv[0]))

	err = xrun.RunTask(ctx, []xrun.Option{xrun.WithName("xnmutexctl"), xrun.WithLogger(e.logger)},
		func(ctx context.Context) error {
			c := exec.CommandContext(ctx, argv[0], argv[1:]...)
			c.Stdin, c.Stdout, c.Stderr = os.Stdin, e.stdout, e.stderr
			c.Cancel = func() error { return c.Process.Signal(os.Interrupt) }
			c.WaitDelay = childWaitDelay
			return c.Run()
		})

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &exitErr):
		code := exitErr.ExitCode()
		if code < 0 {
			code = 1
		}
		return &exitError{code: code}
	case errors.Is(err, xrun.ErrSignal):
		return &exitError{code: 1}
	default:
		return err
	}
}

// splitRunArgs 解析 "<name> [--] <command> [args...]"。
func splitRunArgs(args []string) (string, []string, error) {
	if len(args) == 0 || args[0] == "" {
		return "", nil, usagef("missing name argument")
	}
	name, rest := args[0], args[1:]
	if len(rest) > 0 && rest[0] == "--" {
		rest = rest[1:]
	}
	if len(rest) == 0 {
		return "", nil, usagef("missing command to run")
	}
	return name, rest, nil
}

func cmdRemove(_ context.Context, e *env, cmd *cli.Command) error {
	name, err := onlyName(cmd.Args().Slice(), "name")
	if err != nil {
		return err
	}
	err = e.factory.Remove(name)
	switch {
	case err == nil:
		e.printf("removed %s\n", name)
		return nil
	case errors.Is(err, fs.ErrNotExist):
		e.printf("not found: %s\n", name)
		return &exitError{code: 1}
	case errors.Is(err, xnmutex.ErrInvalidName):
		return usagef("%v", err)
	default:
		return err
	}
}
