package xnmutex

import "sync"

var defaultFactory = sync.OnceValue(func() *Factory {
	// 默认选项总能通过校验。
	f, _ := NewFactory()
	return f
})

// Default 返回使用 [DefaultRegistry] 与平台实现的进程级工厂。
func Default() *Factory {
	return defaultFactory()
}

// Create 使用默认工厂创建互斥量，见 [Factory.Create]。
func Create(name string, mode Mode) (*Mutex, error) {
	return Default().Create(name, mode)
}

// TryCreate 使用默认工厂，见 [Factory.TryCreate]。
func TryCreate(name string) (*Mutex, error) {
	return Default().TryCreate(name)
}

// CreateWithFallbackNaming 使用默认工厂，见 [Factory.CreateWithFallbackNaming]。
func CreateWithFallbackNaming(base string) (*Mutex, string, error) {
	return Default().CreateWithFallbackNaming(base)
}

// Remove 使用默认工厂删除内核对象，见 [Factory.Remove]。
func Remove(name string) error {
	return Default().Remove(name)
}
