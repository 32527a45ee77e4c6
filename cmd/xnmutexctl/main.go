// xnmutexctl 是跨进程命名互斥锁的命令行工具，可用于单实例守护、脚本互斥与孤儿锁清理。
//
// 用法:
//
//	xnmutexctl [全局选项] <命令> [命令参数]
//
// 全局选项:
//
//	-c, --config      配置文件路径（yaml/json，环境变量 XNMUTEX_CONFIG）
//	    --log-level   日志级别 (debug/info/warn/error)，覆盖配置文件
//	    --log-format  日志格式 (text/json)，覆盖配置文件
//	    --log-file    日志文件（按大小轮转），默认输出到 stderr
//
// 命令:
//
//	hold <name>          独占持有 name 直到收到信号或 --for 到期
//	instance <base>      以 base、base-1、base-2 ... 中第一个空闲名称持有
//	lock <name>          阻塞获取共享锁，持有直到信号或 --for 到期
//	try <name>           尝试获取共享锁并立即释放
//	run <name> -- cmd    持有共享锁执行子命令，退出码为子命令的退出码
//	remove <name>        删除残留的命名对象（Windows 上为空操作）
//
// 退出码:
//
//	0: 成功（try: 已获取）
//	1: 失败或锁被占用（try: 未获取）
//	2: 参数或配置错误
//
// 示例:
//
//	xnmutexctl hold --wait --retry-max 0 nightly-job   # 等待上一个实例退出后持有
//	xnmutexctl run deploy -- ./deploy.sh --prod         # 与其他 deploy 互斥执行
//	xnmutexctl -c /etc/xnmutex.yaml instance worker     # 打印派生名称 worker-N 并持有
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
)

var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

func main() {
	os.Exit(run(context.Background(), os.Args, os.Stdout, os.Stderr))
}

func createApp(stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "xnmutexctl",
		Usage:     "跨进程命名互斥锁命令行工具",
		Version:   fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "配置文件路径 (yaml/json)",
				Sources: cli.EnvVars("XNMUTEX_CONFIG"),
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "日志级别 (debug/info/warn/error)",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "日志格式 (text/json)",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "日志文件路径，按大小轮转",
			},
		},
		Commands: createCommands(stdout, stderr),
		// 退出码统一由 run 映射，不让 urfave/cli 调用 os.Exit。
		ExitErrHandler: func(_ context.Context, _ *cli.Command, err error) {
			if _, ok := err.(cli.ExitCoder); ok {
				fmt.Fprintln(stderr, err)
			}
		},
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	err := createApp(stdout, stderr).Run(ctx, args)
	if err == nil {
		return 0
	}

	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	var usageErr *usageError
	if errors.As(err, &usageErr) {
		fmt.Fprintf(stderr, "参数错误: %v\n", usageErr)
		return 2
	}
	if isCLIUsageError(err) {
		fmt.Fprintf(stderr, "参数错误: %v\n", err)
		return 2
	}
	fmt.Fprintf(stderr, "错误: %v\n", err)
	return 1
}

// exitError 命令已完成输出，只需要设置退出码。
type exitError struct {
	code int
}

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// usageError 参数或配置错误，退出码 2。
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

// cliUsageMarkers urfave/cli 与 flag 包对参数错误使用的消息前缀。
var cliUsageMarkers = []string{
	"flag provided but not defined",
	"invalid value",
	"No help topic for",
	"flag needs an argument",
	"Required flag",
}

func isCLIUsageError(err error) bool {
	msg := err.Error()
	for _, m := range cliUsageMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}
