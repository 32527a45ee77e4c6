package xfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultDirPerm EnsureParentDir 使用的默认目录权限。
const DefaultDirPerm os.FileMode = 0o750

// CleanFilePath 校验 path 指向一个文件并返回 filepath.Clean 后的结果。
//
// 拒绝：空路径、包含空字节、以 "/" 或 "\" 结尾、清理后仍含 ".." 段的相对路径。
func CleanFilePath(path string) (string, error) {
	if path == "" {
		return "", ErrEmptyPath
	}
	if strings.IndexByte(path, 0) >= 0 {
		return "", fmt.Errorf("%w: %q", ErrNullByte, path)
	}
	if strings.HasSuffix(path, "/") || strings.HasSuffix(path, `\`) {
		return "", fmt.Errorf("%w: %q", ErrNotFile, path)
	}
	cleaned := filepath.Clean(path)
	if hasDotDot(cleaned) {
		return "", fmt.Errorf("%w: %q", ErrPathTraversal, path)
	}
	if base := filepath.Base(cleaned); base == "." || base == string(filepath.Separator) {
		return "", fmt.Errorf("%w: %q", ErrNotFile, path)
	}
	return cleaned, nil
}

// hasDotDot 同时把 '/' 和 '\' 视为分隔符。
func hasDotDot(path string) bool {
	for seg := range strings.FieldsFuncSeq(path, func(r rune) bool { return r == '/' || r == '\\' }) {
		if seg == ".." {
			return true
		}
	}
	return false
}

// EnsureParentDir 创建 path 的父目录（已存在时不修改权限）。
// perm 必须包含所有者执行位。
func EnsureParentDir(path string, perm os.FileMode) error {
	if path == "" {
		return ErrEmptyPath
	}
	if perm&0o100 == 0 {
		return fmt.Errorf("%w: %04o lacks owner execute bit", ErrInvalidPerm, perm)
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, perm)
}
