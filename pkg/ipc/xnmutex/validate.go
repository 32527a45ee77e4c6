package xnmutex

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/omeyang/xipc/internal/namedsem"
)

// MaxNameLength 当前平台允许的名称最大字节数。
const MaxNameLength = namedsem.MaxNameLength

// invalidNameChars 在 POSIX 名称中是路径分隔符，在 Windows 中是命名空间分隔符。
const invalidNameChars = "/\\\x00"

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidName)
	}
	if len(name) > MaxNameLength {
		return fmt.Errorf("%w: name exceeds max length %d (got %d)", ErrInvalidName, MaxNameLength, len(name))
	}
	if idx := strings.IndexAny(name, invalidNameChars); idx >= 0 {
		return fmt.Errorf("%w: name cannot contain %q (found at position %d)", ErrInvalidName, name[idx], idx)
	}
	if !utf8.ValidString(name) {
		return fmt.Errorf("%w: name is not valid UTF-8", ErrInvalidName)
	}
	return nil
}
