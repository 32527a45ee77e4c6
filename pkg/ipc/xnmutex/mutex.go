package xnmutex

import (
	"context"
	"errors"
	"io/fs"
	"sync"
	"sync/atomic"

	"github.com/omeyang/xipc/pkg/observability/xlog"
	"github.com/omeyang/xipc/pkg/observability/xmetrics"
)

// Mutex 是一个跨进程命名互斥量的句柄，独占其底层内核对象。
//
// Mutex 不可重入：已加锁的 goroutine 再次 Lock 会阻塞。
// 加锁状态属于句柄而非 goroutine，任意 goroutine 可以 Unlock。
// 必须调用 [Mutex.Close] 释放资源；Close 之后所有操作返回 [ErrNotInitialized]。
// Mutex 不可拷贝，转移所有权使用 [Mutex.Move]。
type Mutex struct {
	// mu 保护 sem 的生命周期：Lock/TryLock/Unlock 持读锁，Close/Move 持写锁。
	mu      sync.RWMutex
	sem     Semaphore
	locked  atomic.Bool
	name    string
	unique  bool
	factory *Factory
}

func newMutex(f *Factory, name string, unique bool, sem Semaphore) *Mutex {
	return &Mutex{sem: sem, name: name, unique: unique, factory: f}
}

// Name 返回创建时的名称。
func (m *Mutex) Name() string {
	return m.name
}

// Unique 报告互斥量是否以 ModeUnique 创建。
func (m *Mutex) Unique() bool {
	return m.unique
}

// Locked 报告本句柄当前是否持有锁。
func (m *Mutex) Locked() bool {
	return m.locked.Load()
}

// Lock 阻塞直到获得锁，不支持超时与取消。
func (m *Mutex) Lock() (err error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.sem == nil {
		return ErrNotInitialized
	}

	_, span := m.factory.start(context.Background(), opLock, m.name, m.mode())
	defer func() { span.End(xmetrics.Result{Err: err}) }()

	if err := m.sem.Wait(); err != nil {
		return err
	}
	m.locked.Store(true)
	return nil
}

// TryLock 尝试立即获得锁，锁被占用时返回 (false, nil)。
// Windows 上以 1ms 超时等待近似"立即"。
func (m *Mutex) TryLock() (acquired bool, err error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.sem == nil {
		return false, ErrNotInitialized
	}

	_, span := m.factory.start(context.Background(), opTryLock, m.name, m.mode())
	defer func() {
		span.End(xmetrics.Result{Err: err, Attrs: []xmetrics.Attr{xmetrics.Bool(attrAcquired, acquired)}})
	}()

	acquired, err = m.sem.TryWait()
	if err != nil {
		return false, err
	}
	if acquired {
		m.locked.Store(true)
	}
	return acquired, nil
}

// Unlock 释放锁。未加锁时返回 [ErrNotLocked]，不会调用操作系统。
func (m *Mutex) Unlock() (err error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.sem == nil {
		return ErrNotInitialized
	}

	_, span := m.factory.start(context.Background(), opUnlock, m.name, m.mode())
	defer func() { span.End(xmetrics.Result{Err: err}) }()

	if !m.locked.CompareAndSwap(true, false) {
		return ErrNotLocked
	}
	if err := m.sem.Post(); err != nil {
		m.locked.Store(true)
		return err
	}
	return nil
}

// Move 把底层对象的所有权转移到新句柄，m 随即失效，其 Close 为空操作。
// 对已关闭的互斥量调用时返回同样已关闭的句柄。
func (m *Mutex) Move() *Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()

	dst := newMutex(m.factory, m.name, m.unique, m.sem)
	dst.locked.Store(m.locked.Load())
	m.sem = nil
	m.locked.Store(false)
	return dst
}

// Close 释放互斥量：若持有锁先释放，然后关闭句柄；Unique 互斥量还会删除名称
// （仅 POSIX）并从注册表移除。
//
// Close 幂等且总是返回 nil，操作系统错误写入日志。
// 与同一句柄上阻塞中的 Lock 并发时，Close 会先释放本句柄持有的锁，
// 再等待该 Lock 返回后关闭句柄。
func (m *Mutex) Close() error {
	// 先在读锁下释放已持有的锁，唤醒可能阻塞在同一句柄上的 Lock。
	m.releaseHeld()

	m.mu.Lock()
	defer m.mu.Unlock()
	sem := m.sem
	if sem == nil {
		return nil
	}
	m.sem = nil

	ctx, span := m.factory.start(context.Background(), opClose, m.name, m.mode())
	var errs []error
	logger := m.factory.logger

	// 等待期间完成的 Lock 留下的锁。
	if m.locked.CompareAndSwap(true, false) {
		if err := sem.Post(); err != nil {
			errs = append(errs, err)
			logger.Error(ctx, "named mutex release on close failed", attrName(m.name), xlog.Err(err))
		}
	}
	if err := sem.Close(); err != nil {
		errs = append(errs, err)
		logger.Error(ctx, "named mutex handle close failed", attrName(m.name), xlog.Err(err))
	}
	if m.unique {
		if err := m.factory.backend.Remove(m.name); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
			logger.Error(ctx, "named mutex unlink failed", attrName(m.name), xlog.Err(err))
		}
		m.factory.registry.release(m.name)
	}
	span.End(xmetrics.Result{Err: errors.Join(errs...)})
	logger.Debug(ctx, "named mutex closed", attrName(m.name), attrMode(m.mode()))
	return nil
}

func (m *Mutex) releaseHeld() {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.sem == nil || !m.locked.CompareAndSwap(true, false) {
		return
	}
	if err := m.sem.Post(); err != nil {
		m.locked.Store(true)
		m.factory.logger.Error(context.Background(), "named mutex release on close failed",
			attrName(m.name), xlog.Err(err))
	}
}

func (m *Mutex) mode() Mode {
	if m.unique {
		return ModeUnique
	}
	return ModeOpenIfExists
}
