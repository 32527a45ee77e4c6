package xconf

import "errors"

var (
	// ErrEmptyPath 配置文件路径为空。
	ErrEmptyPath = errors.New("xconf: empty config path")

	// ErrUnsupportedFormat 不支持的配置格式。
	ErrUnsupportedFormat = errors.New("xconf: unsupported config format")

	// ErrLoadFailed 读取配置数据失败。
	ErrLoadFailed = errors.New("xconf: failed to load config")

	// ErrParseFailed 解析配置数据失败。
	ErrParseFailed = errors.New("xconf: failed to parse config")

	// ErrUnmarshalFailed 反序列化到结构体失败。
	ErrUnmarshalFailed = errors.New("xconf: failed to unmarshal config")

	// ErrInvalidConfig Validate 返回错误。
	ErrInvalidConfig = errors.New("xconf: invalid config")

	// ErrNotFileBacked 从字节数据创建的 Loader 不能重载或监视。
	ErrNotFileBacked = errors.New("xconf: config is not backed by a file")

	// ErrWatchFailed 文件监视器报告错误。
	ErrWatchFailed = errors.New("xconf: watch failed")
)
