// Package namedsem 封装操作系统命名信号量，初始计数为 1、上限为 1，作为跨进程互斥的内核对象。
//
// # 平台实现
//
//   - Windows: CreateSemaphoreW，名称位于 "Local\" 会话命名空间。
//     对象在最后一个句柄关闭后由内核回收，不需要也不支持 unlink。
//     TryWait 以 1ms 超时的 WaitForSingleObject 近似实现。
//   - Unix: POSIX sem_open，名称为 "/"+name，权限 0600。需要 cgo。
//     对象持久存在，直到 [Remove]（sem_unlink）；进程崩溃时若计数已被占用，
//     对象会停留在 0，需要显式 Remove 才能恢复。
//
// 其他平台（或关闭 cgo 的 Unix）在编译期失败。
//
// [Semaphore] 的 Close 与其他方法之间不做同步，由调用方保证。
package namedsem
