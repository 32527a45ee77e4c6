package xnmutex

import (
	"fmt"

	"github.com/omeyang/xipc/pkg/observability/xlog"
	"github.com/omeyang/xipc/pkg/observability/xmetrics"
)

const (
	defaultFallbackLimit = 1024
	maxFallbackLimit     = 1 << 20
)

// Option 配置 [Factory]。
type Option func(*options)

type options struct {
	registry      *Registry
	backend       Backend
	logger        xlog.Logger
	observer      xmetrics.Observer
	fallbackLimit int
}

func defaultOptions() options {
	return options{
		fallbackLimit: defaultFallbackLimit,
	}
}

// WithRegistry 使用指定注册表，默认 [DefaultRegistry]。
// 共享同一注册表的工厂之间会互相识别进程内重复。
func WithRegistry(r *Registry) Option {
	return func(o *options) {
		if r != nil {
			o.registry = r
		}
	}
}

// WithBackend 替换平台实现，默认 [PlatformBackend]。
func WithBackend(b Backend) Option {
	return func(o *options) {
		if b != nil {
			o.backend = b
		}
	}
}

// WithLogger 设置日志记录器，默认 xlog.Default()。
// 关闭时的操作系统错误只通过日志报告。
func WithLogger(l xlog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithObserver 设置观测器，默认不观测。
func WithObserver(obs xmetrics.Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observer = obs
		}
	}
}

// WithFallbackLimit 设置 CreateWithFallbackNaming 的最大尝试次数（含基础名称），默认 1024。
func WithFallbackLimit(n int) Option {
	return func(o *options) {
		o.fallbackLimit = n
	}
}

func (o *options) validate() error {
	if o.fallbackLimit <= 0 || o.fallbackLimit > maxFallbackLimit {
		return fmt.Errorf("%w: fallback limit must be in [1, %d], got %d",
			ErrInvalidOption, maxFallbackLimit, o.fallbackLimit)
	}
	if o.registry == nil {
		o.registry = DefaultRegistry()
	}
	if o.backend == nil {
		o.backend = PlatformBackend()
	}
	if o.logger == nil {
		o.logger = xlog.Default()
	}
	if o.observer == nil {
		o.observer = xmetrics.NoopObserver{}
	}
	return nil
}
