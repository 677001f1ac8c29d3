package codec

import (
	"errors"
	"fmt"
	"strconv"
)

// Codec failure classes. Every error returned by this package wraps exactly
// one of them.
var (
	ErrTypeMismatch    = errors.New("type mismatch")
	ErrTruncatedData   = errors.New("truncated data")
	ErrMalformedOffset = errors.New("malformed offset")
)

// Error locates a codec failure inside a value, e.g. at "args[1][0].amount".
type Error struct {
	Path string
	Err  error
	Msg  string
}

func (e *Error) Error() string {
	s := e.Err.Error()
	if e.Path != "" {
		s = e.Path + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

func fail(path string, err error, format string, args ...any) error {
	return &Error{Path: path, Err: err, Msg: fmt.Sprintf(format, args...)}
}

func indexPath(path string, i int) string {
	return path + "[" + strconv.Itoa(i) + "]"
}

func fieldPath(path, name string, i int) string {
	if name == "" {
		return path + "." + strconv.Itoa(i)
	}
	return path + "." + name
}
