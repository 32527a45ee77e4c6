// Package xproc 提供当前进程的身份信息，用于日志字段与命名对象的持有者标识。
package xproc

import (
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

// osExecutable 可在测试中替换。
var osExecutable = os.Executable

var processName = sync.OnceValue(resolveProcessName)

// ProcessID 返回当前进程 ID。
func ProcessID() int {
	return os.Getpid()
}

// ProcessName 返回当前可执行文件名（不含路径），首次调用后缓存。
// 优先取 [os.Executable]，失败时回退到 os.Args[0]；都不可用时返回空字符串。
func ProcessName() string {
	return processName()
}

// Identity 返回 "name[pid]" 形式的进程标识，进程名未知时只返回 "[pid]"。
func Identity() string {
	return ProcessName() + "[" + strconv.Itoa(ProcessID()) + "]"
}

func resolveProcessName() string {
	if exe, err := osExecutable(); err == nil && exe != "" {
		if name := baseName(exe); name != "" {
			return name
		}
	}
	if len(os.Args) == 0 {
		return ""
	}
	return baseName(os.Args[0])
}

func baseName(path string) string {
	if path == "" {
		return ""
	}
	name := filepath.Base(path)
	if name == "." || name == ".." || name == string(filepath.Separator) {
		return ""
	}
	return name
}
