//go:build unix && !darwin

package namedsem

// MaxNameLength 是名称（不含前缀 "/"）的最大字节数。
// glibc 把名称映射为 /dev/shm/sem.<name>，受 NAME_MAX(255) 限制。
const MaxNameLength = 250
