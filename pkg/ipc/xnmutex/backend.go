package xnmutex

//go:generate mockgen -source=backend.go -destination=mock_backend_test.go -package=xnmutex

import (
	"errors"
	"fmt"

	"github.com/omeyang/xipc/internal/namedsem"
)

// Semaphore 是一个已打开的平台命名信号量（初始 1，上限 1）。
//
// 实现无需处理 Close 与其他方法的并发，[Mutex] 保证 Close 在其他调用结束后执行。
type Semaphore interface {
	// Wait 无限期阻塞直到获得信号量。
	// 失败时返回的错误应匹配 ErrWaitFailed 或 ErrWaitAbandoned。
	Wait() error

	// TryWait 立即尝试获得信号量，不可用时返回 false。
	TryWait() (bool, error)

	// Post 释放一次信号量。
	Post() error

	// Close 关闭本进程的句柄。
	Close() error
}

// Backend 打开或删除平台命名对象。
type Backend interface {
	// Open 打开名为 name 的信号量。exclusive 为 true 时要求本次调用创建对象，
	// 对象已存在时返回匹配 ErrAlreadyOwnedByAnotherProcess 的错误。
	Open(name string, exclusive bool) (Semaphore, error)

	// Remove 删除名称，使后续 Open 得到新对象。没有该步骤的平台直接返回 nil。
	// 名称不存在时返回匹配 fs.ErrNotExist 的错误。
	Remove(name string) error
}

// PlatformBackend 返回当前平台的命名信号量实现。
func PlatformBackend() Backend {
	return platformBackend{}
}

type platformBackend struct{}

func (platformBackend) Open(name string, exclusive bool) (Semaphore, error) {
	sem, err := namedsem.Open(name, exclusive)
	if err != nil {
		if errors.Is(err, namedsem.ErrExist) {
			return nil, fmt.Errorf("%w: a mutex with the name %q is already owned by another program",
				ErrAlreadyOwnedByAnotherProcess, name)
		}
		return nil, err
	}
	return platformSemaphore{sem: sem}, nil
}

func (platformBackend) Remove(name string) error {
	return namedsem.Remove(name)
}

// platformSemaphore 把 namedsem 的错误翻译为本包的错误。
type platformSemaphore struct {
	sem *namedsem.Semaphore
}

func (s platformSemaphore) Wait() error {
	return translateWaitErr(s.sem.Wait())
}

func (s platformSemaphore) TryWait() (bool, error) {
	ok, err := s.sem.TryWait()
	return ok, translateWaitErr(err)
}

func (s platformSemaphore) Post() error {
	return s.sem.Post()
}

func (s platformSemaphore) Close() error {
	return s.sem.Close()
}

func translateWaitErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, namedsem.ErrWaitAbandoned):
		return fmt.Errorf("%w: %w", ErrWaitAbandoned, err)
	case errors.Is(err, namedsem.ErrClosed):
		return fmt.Errorf("%w: %w", ErrNotInitialized, err)
	default:
		return fmt.Errorf("%w: %w", ErrWaitFailed, err)
	}
}
