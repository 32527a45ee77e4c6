package xfile

import "errors"

var (
	ErrEmptyPath     = errors.New("xfile: empty path")
	ErrNullByte      = errors.New("xfile: path contains null byte")
	ErrNotFile       = errors.New("xfile: path names a directory")
	ErrPathTraversal = errors.New("xfile: path traversal")
	ErrInvalidPerm   = errors.New("xfile: invalid directory permission")
)
