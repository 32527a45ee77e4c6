//go:build !windows && !(unix && cgo)

package namedsem

// 命名信号量只在 Windows 与启用 cgo 的 Unix 上可用，其余目标在此处编译失败。
var _ = namedSemaphoreRequiresWindowsOrUnixWithCgo
