//go:build darwin

package namedsem

// MaxNameLength 是名称（不含前缀 "/"）的最大字节数，受 PSEMNAMLEN 限制。
const MaxNameLength = 30
