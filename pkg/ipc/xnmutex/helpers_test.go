package xnmutex

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/omeyang/xipc/pkg/observability/xlog"
)

func TestMain(m *testing.M) {
	// 子进程模式下执行辅助逻辑后退出，不运行测试。
	if code, ok := runHelperProcess(); ok {
		os.Exit(code)
	}
	goleak.VerifyTestMain(m)
}

// memBackend 在内存中模拟命名信号量：同名对象共享一个容量为 1 的 token channel。
type memBackend struct {
	mu      sync.Mutex
	objects map[string]*memObject
}

type memObject struct {
	tokens chan struct{}
}

func newMemBackend() *memBackend {
	return &memBackend{objects: make(map[string]*memObject)}
}

func (b *memBackend) Open(name string, exclusive bool) (Semaphore, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	obj, ok := b.objects[name]
	if ok && exclusive {
		return nil, fmt.Errorf("%w: %q", ErrAlreadyOwnedByAnotherProcess, name)
	}
	if !ok {
		obj = &memObject{tokens: make(chan struct{}, 1)}
		obj.tokens <- struct{}{}
		b.objects[name] = obj
	}
	return &memSemaphore{obj: obj}, nil
}

func (b *memBackend) Remove(name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.objects[name]; !ok {
		return fmt.Errorf("mem: remove %q: %w", name, fs.ErrNotExist)
	}
	delete(b.objects, name)
	return nil
}

func (b *memBackend) exists(name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.objects[name]
	return ok
}

type memSemaphore struct {
	obj *memObject
}

func (s *memSemaphore) Wait() error {
	<-s.obj.tokens
	return nil
}

func (s *memSemaphore) TryWait() (bool, error) {
	select {
	case <-s.obj.tokens:
		return true, nil
	default:
		return false, nil
	}
}

func (s *memSemaphore) Post() error {
	select {
	case s.obj.tokens <- struct{}{}:
		return nil
	default:
		return fmt.Errorf("mem: post would exceed maximum count")
	}
}

func (s *memSemaphore) Close() error {
	return nil
}

// newMemFactory 创建使用内存后端与独立注册表的工厂。
func newMemFactory(t testing.TB, opts ...Option) (*Factory, *memBackend) {
	t.Helper()
	backend := newMemBackend()
	base := []Option{
		WithBackend(backend),
		WithRegistry(NewRegistry()),
		WithLogger(xlog.Discard()),
	}
	f, err := NewFactory(append(base, opts...)...)
	require.NoError(t, err)
	return f, backend
}

// bufferLogger 返回写入 buf 的 debug 级别 Logger。
func bufferLogger(t testing.TB, buf *bytes.Buffer) xlog.Logger {
	t.Helper()
	logger, _, err := xlog.New().SetOutput(buf).SetLevel(xlog.LevelDebug).Build()
	require.NoError(t, err)
	return logger
}

// uniqueName 生成不超过各平台长度限制的随机名称。
func uniqueName() string {
	return "xnm-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}
