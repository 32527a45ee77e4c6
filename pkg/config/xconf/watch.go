package xconf

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// k8sDataLink ConfigMap 卷通过替换此符号链接原子切换全部文件。
const k8sDataLink = "..data"

// Watcher 监视 Loader 的配置文件并在变更后重载。
type Watcher[T any] struct {
	loader   *Loader[T]
	fs       *fsnotify.Watcher
	onChange func(cfg *T, err error)
	debounce time.Duration

	closeOnce sync.Once
	closeErr  error
}

// Watch 创建监视器。调用返回时目录监视已经生效，之后的写入不会丢失。
// 调用 Run 开始分发事件；不调用 Run 时需调用 Close 释放资源。
//
// onChange 在 Run 所在的 goroutine 中执行：重载成功时 cfg 为新快照、err 为 nil；
// 重载或监视失败时 cfg 为 nil。
func (l *Loader[T]) Watch(onChange func(cfg *T, err error), opts ...WatchOption) (*Watcher[T], error) {
	if l.path == "" {
		return nil, ErrNotFileBacked
	}
	o := watchOptions{debounce: DefaultDebounce}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWatchFailed, err)
	}
	dir := filepath.Dir(l.path)
	if err := fw.Add(dir); err != nil {
		return nil, errors.Join(fmt.Errorf("%w: watch %s: %w", ErrWatchFailed, dir, err), fw.Close())
	}
	if onChange == nil {
		onChange = func(*T, error) {}
	}
	return &Watcher[T]{loader: l, fs: fw, onChange: onChange, debounce: o.debounce}, nil
}

// Run 分发文件事件直到 ctx 取消，返回前关闭监视器。返回后不再回调。
func (w *Watcher[T]) Run(ctx context.Context) error {
	defer func() { _ = w.Close() }()

	filename := filepath.Base(w.loader.path)
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !relevant(ev, filename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			cfg, err := w.loader.Reload()
			w.onChange(cfg, err)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.onChange(nil, fmt.Errorf("%w: %w", ErrWatchFailed, err))
		}
	}
}

// Close 停止底层监视器，可重复调用。
func (w *Watcher[T]) Close() error {
	w.closeOnce.Do(func() {
		w.closeErr = w.fs.Close()
	})
	return w.closeErr
}

func relevant(ev fsnotify.Event, filename string) bool {
	base := filepath.Base(ev.Name)
	if base != filename && base != k8sDataLink {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)
}
