// Package xconf 把 YAML/JSON 配置文件加载为类型化的结构体，并支持热重载。
//
// 基于 koanf 实现：rawbytes provider 读取数据，yaml/json parser 解析，
// mapstructure 反序列化到调用方的结构体（支持弱类型转换与 time.Duration 字符串）。
//
// # 用法
//
//	type Config struct {
//	    LogLevel string        `koanf:"log_level"`
//	    Wait     time.Duration `koanf:"wait"`
//	}
//
//	l, err := xconf.Load("/etc/app/config.yaml", Config{LogLevel: "info"})
//	cfg := l.Current()
//
// defaults 参数是每次加载的起点，文件中缺失的字段保留默认值。
// 如果 *T 实现了 Validate() error，加载后会调用它，校验失败视为加载失败。
//
// # 并发安全
//
// Current 与 Koanf 无锁读取最近一次成功加载的快照；Reload 串行执行，
// 失败时保留上一份快照。返回的 *T 应视为只读。
//
// # 监视
//
// Watch 监视配置文件所在目录（兼容编辑器原子写入与 K8s ConfigMap 的 ..data 切换），
// 防抖后调用 Reload 并回调。从字节数据创建的 Loader 不支持监视。
package xconf
