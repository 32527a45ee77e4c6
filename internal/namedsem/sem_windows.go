//go:build windows

package namedsem

import (
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	modkernel32          = windows.NewLazySystemDLL("kernel32.dll")
	procCreateSemaphoreW = modkernel32.NewProc("CreateSemaphoreW")
	procReleaseSemaphore = modkernel32.NewProc("ReleaseSemaphore")
)

const (
	namePrefix = `Local\`

	waitObject0   = 0x00000000
	waitAbandoned = 0x00000080
	waitTimeout   = 0x00000102
	waitFailed    = 0xFFFFFFFF

	tryWaitMillis = 1
)

// Semaphore 是一个已打开的 Windows 命名信号量。
type Semaphore struct {
	name   string
	handle windows.Handle
}

// Open 打开或创建名为 name 的信号量（初始 1，上限 1）。
// exclusive 为 true 且对象已存在时关闭句柄并返回 [ErrExist]。
func Open(name string, exclusive bool) (*Semaphore, error) {
	wname, err := windows.UTF16PtrFromString(namePrefix + name)
	if err != nil {
		return nil, fmt.Errorf("namedsem: encode name %q: %w", name, err)
	}
	r, _, callErr := procCreateSemaphoreW.Call(0, 1, 1, uintptr(unsafe.Pointer(wname)))
	if r == 0 {
		return nil, fmt.Errorf("namedsem: CreateSemaphoreW %q: %w", name, callErr)
	}
	h := windows.Handle(r)
	if exclusive && errors.Is(callErr, windows.ERROR_ALREADY_EXISTS) {
		_ = windows.CloseHandle(h)
		return nil, fmt.Errorf("%w: %q", ErrExist, name)
	}
	return &Semaphore{name: name, handle: h}, nil
}

// Wait 无限等待直到获得信号量。
func (s *Semaphore) Wait() error {
	_, err := s.wait(windows.INFINITE)
	return err
}

// TryWait 以 1ms 超时等待，超时返回 false。
func (s *Semaphore) TryWait() (bool, error) {
	return s.wait(tryWaitMillis)
}

func (s *Semaphore) wait(millis uint32) (bool, error) {
	if s.handle == 0 {
		return false, ErrClosed
	}
	event, err := windows.WaitForSingleObject(s.handle, millis)
	switch event {
	case waitObject0:
		return true, nil
	case waitTimeout:
		return false, nil
	case waitAbandoned:
		return false, fmt.Errorf("%w: %q", ErrWaitAbandoned, s.name)
	case waitFailed:
		return false, fmt.Errorf("%w: %q: %w", ErrWaitFailed, s.name, err)
	default:
		return false, fmt.Errorf("%w: %q: unexpected wait result 0x%x", ErrWaitFailed, s.name, event)
	}
}

// Post 释放一次信号量。
func (s *Semaphore) Post() error {
	if s.handle == 0 {
		return ErrClosed
	}
	if r, _, err := procReleaseSemaphore.Call(uintptr(s.handle), 1, 0); r == 0 {
		return fmt.Errorf("namedsem: ReleaseSemaphore %q: %w", s.name, err)
	}
	return nil
}

// Close 关闭句柄，重复调用返回 nil。
func (s *Semaphore) Close() error {
	if s.handle == 0 {
		return nil
	}
	h := s.handle
	s.handle = 0
	if err := windows.CloseHandle(h); err != nil {
		return fmt.Errorf("namedsem: CloseHandle %q: %w", s.name, err)
	}
	return nil
}

// Remove 在 Windows 上无事可做：对象随最后一个句柄关闭而消失。
func Remove(string) error {
	return nil
}
