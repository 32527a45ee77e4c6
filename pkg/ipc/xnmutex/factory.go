package xnmutex

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/omeyang/xipc/pkg/observability/xlog"
	"github.com/omeyang/xipc/pkg/observability/xmetrics"
)

// Factory 创建命名互斥量。并发安全。
type Factory struct {
	registry      *Registry
	backend       Backend
	logger        xlog.Logger
	observer      xmetrics.Observer
	fallbackLimit int
}

// NewFactory 创建工厂。
func NewFactory(opts ...Option) (*Factory, error) {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if err := o.validate(); err != nil {
		return nil, err
	}
	return &Factory{
		registry:      o.registry,
		backend:       o.backend,
		logger:        o.logger,
		observer:      o.observer,
		fallbackLimit: o.fallbackLimit,
	}, nil
}

// Registry 返回工厂使用的注册表。
func (f *Factory) Registry() *Registry {
	return f.registry
}

// Create 按 mode 创建名为 name 的互斥量，返回的互斥量处于未加锁状态。
//
// ModeUnique 下，本进程已持有同名互斥量时返回 [ErrAlreadyOwnedByThisProcess]（不调用操作系统），
// 内核对象已由其他进程创建时返回 [ErrAlreadyOwnedByAnotherProcess]。
// ModeOpenIfExists 下总是创建或打开共享对象。
func (f *Factory) Create(name string, mode Mode) (m *Mutex, err error) {
	ctx, span := f.start(context.Background(), opCreate, name, mode)
	defer func() { span.End(xmetrics.Result{Err: err}) }()
	return f.create(ctx, name, mode)
}

// TryCreate 以 ModeUnique 创建互斥量；名称已被本进程或其他进程持有时返回 (nil, nil)。
func (f *Factory) TryCreate(name string) (*Mutex, error) {
	m, err := f.Create(name, ModeUnique)
	if errors.Is(err, ErrAlreadyOwnedByThisProcess) || errors.Is(err, ErrAlreadyOwnedByAnotherProcess) {
		return nil, nil
	}
	return m, err
}

// CreateWithFallbackNaming 以 ModeUnique 依次尝试 base、base-1、base-2……，
// 只在候选名称与本进程已持有的互斥量冲突时继续，返回互斥量与实际使用的名称。
// 其他错误（包括 [ErrAlreadyOwnedByAnotherProcess]）立即返回。
func (f *Factory) CreateWithFallbackNaming(base string) (m *Mutex, name string, err error) {
	ctx, span := f.start(context.Background(), opCreateFallback, base, ModeUnique)
	defer func() {
		span.End(xmetrics.Result{Err: err, Attrs: []xmetrics.Attr{xmetrics.String(attrDerivedName, name)}})
	}()

	if err := validateName(base); err != nil {
		return nil, "", err
	}
	for i := range f.fallbackLimit {
		candidate := fallbackName(base, i)
		m, err := f.create(ctx, candidate, ModeUnique)
		if err == nil {
			return m, candidate, nil
		}
		if !errors.Is(err, ErrAlreadyOwnedByThisProcess) {
			return nil, "", err
		}
	}
	return nil, "", fmt.Errorf("%w: %q after %d attempts: %w",
		ErrFallbackExhausted, base, f.fallbackLimit, ErrAlreadyOwnedByThisProcess)
}

// Remove 删除名为 name 的内核对象，用于清理崩溃进程遗留的 POSIX 信号量。
// 已打开的句柄不受影响；Windows 上为空操作。
func (f *Factory) Remove(name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	if err := f.backend.Remove(name); err != nil {
		return fmt.Errorf("xnmutex: remove %q: %w", name, err)
	}
	f.logger.Info(context.Background(), "named mutex removed", attrName(name))
	return nil
}

func (f *Factory) create(ctx context.Context, name string, mode Mode) (*Mutex, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	if !mode.valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidMode, mode)
	}

	unique := mode == ModeUnique
	if unique && !f.registry.claim(name) {
		return nil, fmt.Errorf("%w: a mutex with the name %q is already owned by this program",
			ErrAlreadyOwnedByThisProcess, name)
	}
	sem, err := f.backend.Open(name, unique)
	if err != nil {
		if unique {
			f.registry.release(name)
		}
		return nil, err
	}

	f.logger.Debug(ctx, "named mutex created", attrName(name), attrMode(mode), xlog.PID())
	return newMutex(f, name, unique, sem), nil
}

func fallbackName(base string, attempt int) string {
	if attempt == 0 {
		return base
	}
	return base + "-" + strconv.Itoa(attempt)
}

func (f *Factory) start(ctx context.Context, op, name string, mode Mode) (context.Context, xmetrics.Span) {
	return xmetrics.Start(ctx, f.observer, xmetrics.SpanOptions{
		Component: componentName,
		Operation: op,
		Kind:      xmetrics.KindClient,
		Attrs: []xmetrics.Attr{
			xmetrics.String(attrKeyName, name),
			xmetrics.String(attrKeyMode, mode.String()),
		},
	})
}

const (
	componentName = "xnmutex"

	opCreate         = "create"
	opCreateFallback = "create_fallback"
	opLock           = "lock"
	opTryLock        = "try_lock"
	opUnlock         = "unlock"
	opClose          = "close"

	attrKeyName     = "mutex.name"
	attrKeyMode     = "mutex.mode"
	attrDerivedName = "mutex.derived_name"
	attrAcquired    = "acquired"
)

func attrName(name string) slog.Attr {
	return slog.String(attrKeyName, name)
}

func attrMode(mode Mode) slog.Attr {
	return slog.String(attrKeyMode, mode.String())
}
