//go:build windows

package namedsem

// MaxNameLength 是名称（不含 "Local\" 前缀）的最大字符数，受 MAX_PATH 限制。
const MaxNameLength = 253
