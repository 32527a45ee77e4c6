// Package xmetrics 提供统一的操作观测接口。
//
// 观测以"跨度"为单位：[Observer.Start] 开始一次操作，返回的 [Span] 在操作
// 结束时调用 End 记录结果。默认实现 [NoopObserver] 不做任何事情；
// [NewOTelObserver] 基于 OpenTelemetry 同时产出 trace span 与两项指标：
//
//   - xipc.operation.total: 操作计数（component/operation/status）
//   - xipc.operation.duration: 操作耗时，单位秒
//
// 包级函数 [Start] 对 nil Observer 做兜底，调用方无需判空。
package xmetrics
