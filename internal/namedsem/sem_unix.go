//go:build unix && cgo

package namedsem

/*
#cgo linux LDFLAGS: -pthread
#include <errno.h>
#include <fcntl.h>
#include <semaphore.h>
#include <stdlib.h>

// sem_open 是变参函数，cgo 无法直接调用。
static sem_t *namedsem_open(const char *name, int oflag, unsigned int mode, unsigned int value) {
	sem_t *sem = sem_open(name, oflag, (mode_t)mode, value);
	if (sem == SEM_FAILED) {
		return NULL;
	}
	return sem;
}

static int namedsem_wait(sem_t *sem) {
	int rc;
	do {
		rc = sem_wait(sem);
	} while (rc == -1 && errno == EINTR);
	return rc;
}

static int namedsem_trywait(sem_t *sem) {
	int rc;
	do {
		rc = sem_trywait(sem);
	} while (rc == -1 && errno == EINTR);
	return rc;
}
*/
import "C"

import (
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	namePrefix  = "/"
	defaultPerm = 0o600
)

// Semaphore 是一个已打开的 POSIX 命名信号量。
type Semaphore struct {
	name string
	sem  *C.sem_t
}

// Open 打开名为 name 的信号量。exclusive 为 true 时要求由本次调用创建
// （O_CREAT|O_EXCL），对象已存在则返回 [ErrExist]；否则不存在时创建、存在时打开。
func Open(name string, exclusive bool) (*Semaphore, error) {
	cname := C.CString(namePrefix + name)
	defer C.free(unsafe.Pointer(cname))

	oflag := C.O_CREAT
	if exclusive {
		oflag |= C.O_EXCL
	}
	sem, err := C.namedsem_open(cname, C.int(oflag), C.uint(defaultPerm), C.uint(1))
	if sem == nil {
		if errors.Is(err, unix.EEXIST) {
			return nil, fmt.Errorf("%w: %q", ErrExist, name)
		}
		return nil, fmt.Errorf("namedsem: sem_open %q: %w", name, errnoOrUnknown(err))
	}
	return &Semaphore{name: name, sem: sem}, nil
}

// Wait 阻塞直到计数大于 0 并将其减一。信号中断会自动重试。
func (s *Semaphore) Wait() error {
	if s.sem == nil {
		return ErrClosed
	}
	if rc, err := C.namedsem_wait(s.sem); rc != 0 {
		return fmt.Errorf("%w: sem_wait %q: %w", ErrWaitFailed, s.name, errnoOrUnknown(err))
	}
	return nil
}

// TryWait 非阻塞地尝试减一，计数为 0 时返回 false。
func (s *Semaphore) TryWait() (bool, error) {
	if s.sem == nil {
		return false, ErrClosed
	}
	rc, err := C.namedsem_trywait(s.sem)
	if rc == 0 {
		return true, nil
	}
	if errors.Is(err, unix.EAGAIN) {
		return false, nil
	}
	return false, fmt.Errorf("%w: sem_trywait %q: %w", ErrWaitFailed, s.name, errnoOrUnknown(err))
}

// Post 将计数加一。
func (s *Semaphore) Post() error {
	if s.sem == nil {
		return ErrClosed
	}
	if rc, err := C.sem_post(s.sem); rc != 0 {
		return fmt.Errorf("namedsem: sem_post %q: %w", s.name, errnoOrUnknown(err))
	}
	return nil
}

// Close 关闭本进程的句柄，不删除名称。重复调用返回 nil。
func (s *Semaphore) Close() error {
	if s.sem == nil {
		return nil
	}
	rc, err := C.sem_close(s.sem)
	s.sem = nil
	if rc != 0 {
		return fmt.Errorf("namedsem: sem_close %q: %w", s.name, errnoOrUnknown(err))
	}
	return nil
}

// Remove 删除名称（sem_unlink）。已打开的句柄仍然有效，之后同名 Open 得到新对象。
// 名称不存在时返回的错误满足 errors.Is(err, fs.ErrNotExist)。
func Remove(name string) error {
	cname := C.CString(namePrefix + name)
	defer C.free(unsafe.Pointer(cname))

	if rc, err := C.sem_unlink(cname); rc != 0 {
		return fmt.Errorf("namedsem: sem_unlink %q: %w", name, errnoOrUnknown(err))
	}
	return nil
}

func errnoOrUnknown(err error) error {
	if err == nil {
		return errors.New("unknown error")
	}
	return err
}
