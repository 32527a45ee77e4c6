package xnmutex

import "errors"

// 预定义错误，使用 errors.Is 匹配：
//
//	if errors.Is(err, xnmutex.ErrAlreadyOwnedByAnotherProcess) {
//	    // 已有其他实例在运行
//	}
//
// 所有错误都不会在内部重试。
var (
	// ErrInvalidName 名称为空、过长或包含平台不允许的字符。
	// 在查询注册表和调用操作系统之前返回。
	ErrInvalidName = errors.New("xnmutex: invalid mutex name")

	// ErrInvalidMode 创建模式不是 ModeUnique 或 ModeOpenIfExists。
	ErrInvalidMode = errors.New("xnmutex: invalid mode")

	// ErrAlreadyOwnedByThisProcess 本进程已持有同名的 Unique 互斥量。
	ErrAlreadyOwnedByThisProcess = errors.New("xnmutex: already owned by this process")

	// ErrAlreadyOwnedByAnotherProcess 以 Unique 模式创建时内核对象已存在。
	ErrAlreadyOwnedByAnotherProcess = errors.New("xnmutex: already owned by another process")

	// ErrWaitFailed 操作系统等待调用失败。
	ErrWaitFailed = errors.New("xnmutex: wait failed")

	// ErrWaitAbandoned 前一持有者未释放即退出（仅 Windows 报告）。
	ErrWaitAbandoned = errors.New("xnmutex: mutex was abandoned")

	// ErrNotLocked 对未加锁的互斥量调用 Unlock。
	ErrNotLocked = errors.New("xnmutex: mutex is not locked")

	// ErrNotInitialized 互斥量已关闭或已被 Move 转移。
	ErrNotInitialized = errors.New("xnmutex: mutex is not initialized")

	// ErrFallbackExhausted 回退命名在尝试上限内没有找到可用名称。
	// 错误链中同时包含 ErrAlreadyOwnedByThisProcess。
	ErrFallbackExhausted = errors.New("xnmutex: fallback names exhausted")

	// ErrInvalidOption 工厂配置无效。
	ErrInvalidOption = errors.New("xnmutex: invalid option")
)
