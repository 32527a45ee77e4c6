package xlog

import (
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
)

var (
	globalLogger atomic.Pointer[LoggerWithLevel]
	globalInit   sync.Mutex
)

// Default 返回进程级默认 Logger，首次调用时以默认配置惰性创建。
func Default() LoggerWithLevel {
	if l := globalLogger.Load(); l != nil {
		return *l
	}
	globalInit.Lock()
	defer globalInit.Unlock()
	if l := globalLogger.Load(); l != nil {
		return *l
	}
	// 默认配置不会失败。
	logger, _, _ := New().Build()
	globalLogger.Store(&logger)
	return logger
}

// SetDefault 替换默认 Logger，nil 被忽略。
func SetDefault(logger LoggerWithLevel) {
	if logger == nil {
		return
	}
	globalLogger.Store(&logger)
}

// Discard 返回丢弃所有输出的 Logger，用于测试或显式静默。
func Discard() LoggerWithLevel {
	levelVar := new(slog.LevelVar)
	return &xlogger{
		handler:  slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: levelVar}),
		levelVar: levelVar,
	}
}
