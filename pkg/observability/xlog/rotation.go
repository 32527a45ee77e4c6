package xlog

import (
	"fmt"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/omeyang/xipc/pkg/util/xfile"
)

const (
	defaultMaxSizeMB  = 100
	defaultMaxBackups = 5
	defaultMaxAgeDays = 30
)

// RotationOption 配置日志文件轮转。
type RotationOption func(*rotationConfig)

type rotationConfig struct {
	maxSizeMB  int
	maxBackups int
	maxAgeDays int
	compress   bool
	localTime  bool
}

// WithMaxSize 单个文件最大大小（MB），默认 100。
func WithMaxSize(mb int) RotationOption {
	return func(c *rotationConfig) { c.maxSizeMB = mb }
}

// WithMaxBackups 保留的历史文件个数，0 表示不按个数清理。默认 5。
func WithMaxBackups(n int) RotationOption {
	return func(c *rotationConfig) { c.maxBackups = n }
}

// WithMaxAge 历史文件保留天数，0 表示不按时间清理。默认 30。
func WithMaxAge(days int) RotationOption {
	return func(c *rotationConfig) { c.maxAgeDays = days }
}

// WithCompress 是否 gzip 压缩历史文件。
func WithCompress(enable bool) RotationOption {
	return func(c *rotationConfig) { c.compress = enable }
}

// WithLocalTime 历史文件名使用本地时间而非 UTC。
func WithLocalTime(enable bool) RotationOption {
	return func(c *rotationConfig) { c.localTime = enable }
}

func newRotator(filename string, opts ...RotationOption) (*lumberjack.Logger, error) {
	path, err := xfile.CleanFilePath(filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRotation, err)
	}
	cfg := rotationConfig{
		maxSizeMB:  defaultMaxSizeMB,
		maxBackups: defaultMaxBackups,
		maxAgeDays: defaultMaxAgeDays,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	switch {
	case cfg.maxSizeMB <= 0:
		return nil, fmt.Errorf("%w: max size must be positive, got %d", ErrInvalidRotation, cfg.maxSizeMB)
	case cfg.maxBackups < 0:
		return nil, fmt.Errorf("%w: max backups must not be negative, got %d", ErrInvalidRotation, cfg.maxBackups)
	case cfg.maxAgeDays < 0:
		return nil, fmt.Errorf("%w: max age must not be negative, got %d", ErrInvalidRotation, cfg.maxAgeDays)
	}
	if err := xfile.EnsureParentDir(path, xfile.DefaultDirPerm); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRotation, err)
	}
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    cfg.maxSizeMB,
		MaxBackups: cfg.maxBackups,
		MaxAge:     cfg.maxAgeDays,
		Compress:   cfg.compress,
		LocalTime:  cfg.localTime,
	}, nil
}
