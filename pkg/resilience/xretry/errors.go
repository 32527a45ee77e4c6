package xretry

import "errors"

var (
	// ErrNilFunc 传入了 nil 函数。
	ErrNilFunc = errors.New("xretry: nil function")

	// ErrNilContext 传入了 nil context。
	ErrNilContext = errors.New("xretry: nil context")
)

// RetryableError 由错误自身声明是否可重试。
type RetryableError interface {
	error
	Retryable() bool
}

// PermanentError 标记不应重试的错误。
type PermanentError struct {
	Err error
}

// NewPermanentError 包装 err 使其不再被重试。
func NewPermanentError(err error) *PermanentError {
	return &PermanentError{Err: err}
}

func (e *PermanentError) Error() string {
	if e.Err == nil {
		return "permanent error"
	}
	return e.Err.Error()
}

func (e *PermanentError) Unwrap() error   { return e.Err }
func (e *PermanentError) Retryable() bool { return false }

// IsRetryable 判断 err 是否值得重试。nil 不重试；实现 RetryableError 的按其声明；
// 其余错误默认可重试。
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var re RetryableError
	if errors.As(err, &re) {
		return re.Retryable()
	}
	return true
}

// IsPermanent 对非 nil 且不可重试的错误返回 true。
func IsPermanent(err error) bool {
	return err != nil && !IsRetryable(err)
}
