package xconf

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"sync/atomic"

	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

type validator interface {
	Validate() error
}

// Loader 持有类型为 T 的配置快照。
type Loader[T any] struct {
	path     string
	format   Format
	defaults T
	opts     options

	mu  sync.Mutex // 串行化 Reload
	cur atomic.Pointer[T]
	k   atomic.Pointer[koanf.Koanf]
}

// Load 从文件加载配置，格式由扩展名决定。
func Load[T any](path string, defaults T, opts ...Option) (*Loader[T], error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	l := newLoader(path, format, defaults, opts)
	if _, err := l.Reload(); err != nil {
		return nil, err
	}
	return l, nil
}

// LoadBytes 从字节数据加载配置。空数据得到默认值。
func LoadBytes[T any](data []byte, format Format, defaults T, opts ...Option) (*Loader[T], error) {
	if _, err := format.parser(); err != nil {
		return nil, err
	}
	l := newLoader("", format, defaults, opts)
	if err := l.apply(data); err != nil {
		return nil, err
	}
	return l, nil
}

func newLoader[T any](path string, format Format, defaults T, opts []Option) *Loader[T] {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return &Loader[T]{path: path, format: format, defaults: defaults, opts: o}
}

// Current 返回最近一次成功加载的配置。
func (l *Loader[T]) Current() *T {
	return l.cur.Load()
}

// Koanf 返回最近一次成功加载对应的 koanf 实例，用于按键路径读取。
func (l *Loader[T]) Koanf() *koanf.Koanf {
	return l.k.Load()
}

// Path 返回配置文件路径，字节数据创建时为空。
func (l *Loader[T]) Path() string { return l.path }

// Format 返回配置格式。
func (l *Loader[T]) Format() Format { return l.format }

// Reload 重新读取文件。失败时保留之前的快照并返回错误。
func (l *Loader[T]) Reload() (*T, error) {
	if l.path == "" {
		return nil, ErrNotFileBacked
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := os.ReadFile(l.path)
	switch {
	case errors.Is(err, fs.ErrNotExist) && l.opts.allowMissing:
		data = nil
	case err != nil:
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	if err := l.apply(data); err != nil {
		return nil, err
	}
	return l.cur.Load(), nil
}

func (l *Loader[T]) apply(data []byte) error {
	parser, err := l.format.parser()
	if err != nil {
		return err
	}
	k := koanf.New(l.opts.delim)
	if len(data) > 0 {
		if err := k.Load(rawbytes.Provider(data), parser); err != nil {
			return fmt.Errorf("%w: %w", ErrParseFailed, err)
		}
	}

	cfg := new(T)
	*cfg = l.defaults
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: l.opts.tag}); err != nil {
		return fmt.Errorf("%w: %w", ErrUnmarshalFailed, err)
	}
	if v, ok := any(cfg).(validator); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}

	l.k.Store(k)
	l.cur.Store(cfg)
	return nil
}
