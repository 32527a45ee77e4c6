// Package util 提供通用工具相关的子包。
//
// 子包列表：
//   - xfile: 文件路径校验，父目录创建
//   - xproc: 进程信息查询，PID、进程名称与标识
package util
