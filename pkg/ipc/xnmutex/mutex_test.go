package xnmutex

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/omeyang/xipc/pkg/observability/xlog"
)

// newMockMutex 创建由 mock 信号量支撑的互斥量，Open 期望已设置。
func newMockMutex(t *testing.T, mode Mode, opts ...Option) (*Mutex, *MockSemaphore, *MockBackend) {
	t.Helper()
	ctrl := gomock.NewController(t)
	backend := NewMockBackend(ctrl)
	sem := NewMockSemaphore(ctrl)
	backend.EXPECT().Open("m", mode == ModeUnique).Return(sem, nil)

	base := []Option{WithBackend(backend), WithRegistry(NewRegistry()), WithLogger(xlog.Discard())}
	f, err := NewFactory(append(base, opts...)...)
	require.NoError(t, err)
	m, err := f.Create("m", mode)
	require.NoError(t, err)
	return m, sem, backend
}

func TestMutex_LockUnlock(t *testing.T) {
	f, _ := newMemFactory(t)
	m, err := f.Create("lu", ModeOpenIfExists)
	require.NoError(t, err)
	defer m.Close()

	assert.False(t, m.Locked())
	require.NoError(t, m.Lock())
	assert.True(t, m.Locked())
	require.NoError(t, m.Unlock())
	assert.False(t, m.Locked())

	// 释放后可以再次获得。
	ok, err := m.TryLock()
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, m.Unlock())
}

func TestMutex_TryLockContention(t *testing.T) {
	f, _ := newMemFactory(t)
	a, err := f.Create("shared", ModeOpenIfExists)
	require.NoError(t, err)
	defer a.Close()
	b, err := f.Create("shared", ModeOpenIfExists)
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, a.Lock())
	ok, err := b.TryLock()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, b.Locked())

	require.NoError(t, a.Unlock())
	ok, err = b.TryLock()
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, b.Unlock())
}

func TestMutex_NotReentrant(t *testing.T) {
	f, _ := newMemFactory(t)
	m, err := f.Create("re", ModeOpenIfExists)
	require.NoError(t, err)
	defer m.Close()

	require.NoError(t, m.Lock())
	ok, err := m.TryLock()
	require.NoError(t, err)
	assert.False(t, ok, "second acquisition on the same handle must fail")
	require.NoError(t, m.Unlock())
}

func TestMutex_LockBlocksUntilUnlock(t *testing.T) {
	f, _ := newMemFactory(t)
	a, err := f.Create("block", ModeOpenIfExists)
	require.NoError(t, err)
	defer a.Close()
	b, err := f.Create("block", ModeOpenIfExists)
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, a.Lock())
	acquired := make(chan error, 1)
	go func() { acquired <- b.Lock() }()

	select {
	case <-acquired:
		t.Fatal("Lock returned while the other handle held the mutex")
	case <-time.After(20 * time.Millisecond):
	}

	require.NoError(t, a.Unlock())
	require.NoError(t, <-acquired)
	assert.True(t, b.Locked())
	require.NoError(t, b.Unlock())
}

func TestMutex_UnlockWithoutLock(t *testing.T) {
	// Post 未设置期望：Unlock 不得调用操作系统。
	m, sem, _ := newMockMutex(t, ModeOpenIfExists)
	sem.EXPECT().Close().Return(nil)

	assert.ErrorIs(t, m.Unlock(), ErrNotLocked)
	require.NoError(t, m.Close())
}

func TestMutex_UnlockPostFailureKeepsLocked(t *testing.T) {
	m, sem, _ := newMockMutex(t, ModeOpenIfExists)
	postErr := errors.New("EINVAL")
	gomock.InOrder(
		sem.EXPECT().Wait().Return(nil),
		sem.EXPECT().Post().Return(postErr),
		sem.EXPECT().Post().Return(nil),
		sem.EXPECT().Close().Return(nil),
	)

	require.NoError(t, m.Lock())
	assert.ErrorIs(t, m.Unlock(), postErr)
	assert.True(t, m.Locked())
	require.NoError(t, m.Close())
	assert.False(t, m.Locked())
}

func TestMutex_WaitErrors(t *testing.T) {
	for _, wantErr := range []error{ErrWaitFailed, ErrWaitAbandoned} {
		t.Run(wantErr.Error(), func(t *testing.T) {
			m, sem, _ := newMockMutex(t, ModeOpenIfExists)
			sem.EXPECT().Wait().Return(fmt.Errorf("%w: os", wantErr))
			sem.EXPECT().TryWait().Return(false, fmt.Errorf("%w: os", wantErr))
			sem.EXPECT().Close().Return(nil)

			assert.ErrorIs(t, m.Lock(), wantErr)
			_, err := m.TryLock()
			assert.ErrorIs(t, err, wantErr)
			assert.False(t, m.Locked())
			require.NoError(t, m.Close())
		})
	}
}

func TestMutex_CloseReleasesHeldLockOnce(t *testing.T) {
	m, sem, backend := newMockMutex(t, ModeUnique)
	gomock.InOrder(
		sem.EXPECT().Wait().Return(nil),
		sem.EXPECT().Post().Return(nil),
		sem.EXPECT().Close().Return(nil),
		backend.EXPECT().Remove("m").Return(nil),
	)

	require.NoError(t, m.Lock())
	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
}

func TestMutex_CloseIgnoresMissingName(t *testing.T) {
	var buf bytes.Buffer
	m, sem, backend := newMockMutex(t, ModeUnique, WithLogger(bufferLogger(t, &buf)))
	sem.EXPECT().Close().Return(nil)
	backend.EXPECT().Remove("m").Return(fmt.Errorf("unlink: %w", fs.ErrNotExist))

	require.NoError(t, m.Close())
	assert.NotContains(t, buf.String(), "level=ERROR")
}

func TestMutex_CloseLogsFailures(t *testing.T) {
	var buf bytes.Buffer
	m, sem, backend := newMockMutex(t, ModeUnique, WithLogger(bufferLogger(t, &buf)))
	f := m.factory
	sem.EXPECT().Wait().Return(nil)
	sem.EXPECT().Post().Return(errors.New("post boom")).Times(2)
	sem.EXPECT().Close().Return(errors.New("close boom"))
	backend.EXPECT().Remove("m").Return(errors.New("unlink boom"))

	require.NoError(t, m.Lock())
	require.NoError(t, m.Close(), "close never reports errors")

	out := buf.String()
	assert.Contains(t, out, "post boom")
	assert.Contains(t, out, "close boom")
	assert.Contains(t, out, "unlink boom")
	assert.False(t, f.Registry().Contains("m"), "registry entry is released even on failure")
}

func TestMutex_OperationsAfterClose(t *testing.T) {
	f, _ := newMemFactory(t)
	m, err := f.Create("closed", ModeOpenIfExists)
	require.NoError(t, err)
	require.NoError(t, m.Close())

	assert.ErrorIs(t, m.Lock(), ErrNotInitialized)
	_, err = m.TryLock()
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.ErrorIs(t, m.Unlock(), ErrNotInitialized)
	assert.Equal(t, "closed", m.Name())
}

func TestMutex_Move(t *testing.T) {
	f, backend := newMemFactory(t)
	src, err := f.Create("moved", ModeUnique)
	require.NoError(t, err)
	require.NoError(t, src.Lock())

	dst := src.Move()
	assert.False(t, src.Locked())
	assert.True(t, dst.Locked())
	assert.Equal(t, "moved", dst.Name())
	assert.True(t, dst.Unique())

	// 源句柄失效，关闭不影响目标。
	assert.ErrorIs(t, src.Unlock(), ErrNotInitialized)
	require.NoError(t, src.Close())
	assert.True(t, f.Registry().Contains("moved"))
	assert.True(t, backend.exists("moved"))

	require.NoError(t, dst.Unlock())
	require.NoError(t, dst.Close())
	assert.False(t, f.Registry().Contains("moved"))
	assert.False(t, backend.exists("moved"))

	// 已关闭句柄的 Move 仍是关闭状态。
	assert.ErrorIs(t, dst.Move().Lock(), ErrNotInitialized)
}

func TestMutex_CloseWithPendingLockOnSameHandle(t *testing.T) {
	f, _ := newMemFactory(t)
	m, err := f.Create("pending", ModeOpenIfExists)
	require.NoError(t, err)
	require.NoError(t, m.Lock())

	waiter := make(chan error, 1)
	go func() { waiter <- m.Lock() }()
	time.Sleep(10 * time.Millisecond)

	// Close 释放本句柄持有的锁，等待中的 Lock 得以返回，随后句柄关闭。
	require.NoError(t, m.Close())
	if err := <-waiter; err != nil {
		// 等待者在 Close 取得写锁之后才进入 Lock。
		assert.ErrorIs(t, err, ErrNotInitialized)
	}
	assert.ErrorIs(t, m.Unlock(), ErrNotInitialized)

	// 关闭时释放了等待者获得的锁。
	other, err := f.Create("pending", ModeOpenIfExists)
	require.NoError(t, err)
	defer other.Close()
	ok, err := other.TryLock()
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, other.Unlock())
}

func TestMutex_ConcurrentClose(t *testing.T) {
	m, sem, backend := newMockMutex(t, ModeUnique)
	sem.EXPECT().Wait().Return(nil)
	sem.EXPECT().Post().Return(nil).Times(1)
	sem.EXPECT().Close().Return(nil).Times(1)
	backend.EXPECT().Remove("m").Return(nil).Times(1)

	require.NoError(t, m.Lock())
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, m.Close())
		}()
	}
	wg.Wait()
}

func TestMutex_MutualExclusionAcrossHandles(t *testing.T) {
	f, _ := newMemFactory(t)
	const workers = 8
	const rounds = 50

	handles := make([]*Mutex, workers)
	for i := range handles {
		m, err := f.Create("counter", ModeOpenIfExists)
		require.NoError(t, err)
		handles[i] = m
	}
	t.Cleanup(func() {
		for _, m := range handles {
			_ = m.Close()
		}
	})

	var (
		wg         sync.WaitGroup
		inside     atomic.Int32
		violations atomic.Int32
	)
	for _, m := range handles {
		wg.Add(1)
		go func(m *Mutex) {
			defer wg.Done()
			for range rounds {
				if err := m.Lock(); err != nil {
					t.Error(err)
					return
				}
				if inside.Add(1) > 1 {
					violations.Add(1)
				}
				inside.Add(-1)
				if err := m.Unlock(); err != nil {
					t.Error(err)
					return
				}
			}
		}(m)
	}
	wg.Wait()
	assert.Zero(t, violations.Load())
}
