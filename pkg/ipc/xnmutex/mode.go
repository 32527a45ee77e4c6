package xnmutex

import "strconv"

// Mode 决定创建互斥量时遇到同名对象的行为。
type Mode int

const (
	// ModeUnique 要求由本次调用创建内核对象，同一名称在整个系统内只有一个持有者。
	// 进程内由注册表去重，跨进程由独占创建保证。
	ModeUnique Mode = iota

	// ModeOpenIfExists 不存在时创建、存在时打开，多个句柄共享同一把锁。
	ModeOpenIfExists
)

// String 返回模式名称。
func (m Mode) String() string {
	switch m {
	case ModeUnique:
		return "unique"
	case ModeOpenIfExists:
		return "open_if_exists"
	default:
		return "Mode(" + strconv.Itoa(int(m)) + ")"
	}
}

func (m Mode) valid() bool {
	return m == ModeUnique || m == ModeOpenIfExists
}
