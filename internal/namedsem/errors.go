package namedsem

import "errors"

var (
	// ErrExist 表示独占创建时同名对象已存在。
	ErrExist = errors.New("namedsem: semaphore already exists")

	// ErrClosed 表示信号量已关闭。
	ErrClosed = errors.New("namedsem: semaphore closed")

	// ErrWaitFailed 表示等待操作失败。
	ErrWaitFailed = errors.New("namedsem: wait failed")

	// ErrWaitAbandoned 表示持有者未释放即退出（仅 Windows 报告）。
	ErrWaitAbandoned = errors.New("namedsem: wait abandoned")
)
