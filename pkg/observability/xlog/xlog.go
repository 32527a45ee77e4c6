// Package xlog 基于 log/slog 提供结构化日志。
//
// 所有方法接收 context.Context，属性只接受 slog.Attr。
// [Builder] 负责输出目标、级别、格式与文件轮转（lumberjack），
// Build 返回支持动态级别的 [LoggerWithLevel] 与释放资源的 cleanup 函数。
//
//	logger, cleanup, err := xlog.New().
//		SetLevelString("debug").
//		SetFormat("json").
//		SetRotation("/var/log/app.log", xlog.WithMaxSize(50)).
//		Build()
//	if err != nil {
//		return err
//	}
//	defer cleanup()
package xlog

import (
	"context"
	"log/slog"
)

// Logger 日志接口。
type Logger interface {
	Debug(ctx context.Context, msg string, attrs ...slog.Attr)
	Info(ctx context.Context, msg string, attrs ...slog.Attr)
	Warn(ctx context.Context, msg string, attrs ...slog.Attr)
	Error(ctx context.Context, msg string, attrs ...slog.Attr)

	// With 返回带固定属性的派生 Logger，派生 Logger 与父级共享级别。
	With(attrs ...slog.Attr) Logger
}

// Leveler 动态级别控制。
type Leveler interface {
	SetLevel(level Level)
	GetLevel() Level
	Enabled(ctx context.Context, level Level) bool
}

// LoggerWithLevel 组合 Logger 与 Leveler，Build 返回此接口。
type LoggerWithLevel interface {
	Logger
	Leveler
}
