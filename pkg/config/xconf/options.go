package xconf

import "time"

type options struct {
	delim        string
	tag          string
	allowMissing bool
}

// Option 配置 Loader。
type Option func(*options)

func defaultOptions() options {
	return options{delim: ".", tag: "koanf"}
}

// WithDelim 设置键路径分隔符，默认 "."。空字符串被忽略。
func WithDelim(delim string) Option {
	return func(o *options) {
		if delim != "" {
			o.delim = delim
		}
	}
}

// WithTag 设置结构体标签名，默认 "koanf"。空字符串被忽略。
func WithTag(tag string) Option {
	return func(o *options) {
		if tag != "" {
			o.tag = tag
		}
	}
}

// WithAllowMissing 文件不存在时使用默认值而不是返回错误。
// 之后创建该文件，Reload 与 Watch 会正常加载它。
func WithAllowMissing() Option {
	return func(o *options) {
		o.allowMissing = true
	}
}

type watchOptions struct {
	debounce time.Duration
}

// WatchOption 配置 Watcher。
type WatchOption func(*watchOptions)

// DefaultDebounce 默认防抖时间。
const DefaultDebounce = 100 * time.Millisecond

// WithDebounce 设置防抖时间，窗口内的多次变更只触发一次重载。d <= 0 被忽略。
func WithDebounce(d time.Duration) WatchOption {
	return func(o *watchOptions) {
		if d > 0 {
			o.debounce = d
		}
	}
}
