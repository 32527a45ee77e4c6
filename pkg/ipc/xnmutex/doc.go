// Package xnmutex 提供跨进程的命名互斥量。
//
// 互斥量以字符串命名，由操作系统命名信号量承载（Windows 命名信号量、POSIX sem_open），
// 同一台机器上互不相关的进程可以按名称竞争同一把锁。
//
// # 创建模式
//
//   - [ModeUnique]: 独占创建。进程内重复返回 [ErrAlreadyOwnedByThisProcess]，
//     其他进程已创建返回 [ErrAlreadyOwnedByAnotherProcess]。适合单实例检测。
//   - [ModeOpenIfExists]: 创建或打开。多个句柄共享同一把锁。
//
// [CreateWithFallbackNaming] 在进程内冲突时依次尝试 base-1、base-2……，
// 适合同一进程内需要多份独立锁的场景。
//
// # 基本用法
//
//	m, err := xnmutex.Create("app-lock", xnmutex.ModeOpenIfExists)
//	if err != nil {
//	    return err
//	}
//	defer m.Close()
//
//	if err := m.Lock(); err != nil {
//	    return err
//	}
//	defer m.Unlock()
//
// # 语义
//
//   - 不可重入，不保证等待者之间的公平性。
//   - Lock 无限等待且不可取消；TryLock 不阻塞（Windows 上最多等待 1ms）。
//   - Unlock 未加锁的句柄返回 [ErrNotLocked]。
//   - Close 幂等，会先释放持有的锁；关闭失败只记录日志。
//   - 只有 ModeUnique 句柄在 Close 时删除 POSIX 名称，ModeOpenIfExists 句柄只关闭自身。
//
// # 崩溃恢复
//
// Windows 在进程退出时回收句柄，锁自动释放。POSIX 命名信号量是持久对象：
// 持锁进程崩溃后计数停留在 0，同名 Unique 创建也会因对象仍存在而失败。
// 此时需要显式调用 [Remove]（或 xnmutexctl remove）清理。
//
// # 平台
//
// 需要 Windows 或启用 cgo 的 Unix，其他目标在编译期失败。
// 名称不能为空，不能包含 '/'、'\' 或 NUL，长度不超过 [MaxNameLength]。
package xnmutex
