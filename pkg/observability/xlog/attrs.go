package xlog

import (
	"log/slog"
	"time"

	"github.com/omeyang/xipc/pkg/util/xproc"
)

// 标准字段名。
const (
	KeyError     = "error"
	KeyDuration  = "duration"
	KeyComponent = "component"
	KeyOperation = "operation"
	KeyPID       = "pid"
	KeyProcess   = "process"
)

// Err 创建错误属性，err 为 nil 时返回空属性（slog 会忽略）。
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Duration 创建耗时属性。
func Duration(d time.Duration) slog.Attr {
	return slog.Duration(KeyDuration, d)
}

// Component 创建组件属性。
func Component(name string) slog.Attr {
	return slog.String(KeyComponent, name)
}

// Operation 创建操作属性。
func Operation(name string) slog.Attr {
	return slog.String(KeyOperation, name)
}

// PID 创建当前进程 ID 属性。
func PID() slog.Attr {
	return slog.Int(KeyPID, xproc.ProcessID())
}

// Process 创建当前进程名属性。
func Process() slog.Attr {
	return slog.String(KeyProcess, xproc.ProcessName())
}
