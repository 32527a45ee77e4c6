// Package observability 提供可观测性相关的子包。
//
// 子包列表：
//   - xlog: 结构化日志，基于 log/slog 扩展，支持文件轮转与运行时级别调整
//   - xmetrics: 统一观测接口，OpenTelemetry 追踪与指标实现
//
// 设计原则：
//   - 遵循 OpenTelemetry 语义规范
//   - 未配置 provider 时为空操作，调用方无需判空
package observability
