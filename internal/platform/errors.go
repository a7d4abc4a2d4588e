package platform

import (
	"errors"

	"golang.org/x/sys/unix"
)

// Error is a failed native call: the operation name, the path(s) it was
// applied to and the errno the kernel returned.
type Error struct {
	Op    string
	Path  string
	Path2 string
	Errno unix.Errno
}

func (e *Error) Error() string {
	switch {
	case e.Path2 != "":
		return e.Op + " " + e.Path + " -> " + e.Path2 + ": " + e.Errno.Error()
	case e.Path != "":
		return e.Op + " " + e.Path + ": " + e.Errno.Error()
	default:
		return e.Op + ": " + e.Errno.Error()
	}
}

// Unwrap exposes the errno so errors.Is(err, unix.EXDEV) and
// errors.Is(err, fs.ErrNotExist) work on wrapped failures.
func (e *Error) Unwrap() error { return e.Errno }

// ErrnoOf extracts the errno carried by err, if any.
func ErrnoOf(err error) (unix.Errno, bool) {
	var errno unix.Errno
	if errors.As(err, &errno) {
		return errno, true
	}
	return 0, false
}

// IsErrno reports whether err carries one of the given errno values.
func IsErrno(err error, codes ...unix.Errno) bool {
	errno, ok := ErrnoOf(err)
	if !ok {
		return false
	}
	for _, c := range codes {
		if errno == c {
			return true
		}
	}
	return false
}

func wrap(op, path string, err error) error {
	return wrap2(op, path, "", err)
}

func wrap2(op, path, path2 string, err error) error {
	if err == nil {
		return nil
	}
	errno, ok := ErrnoOf(err)
	if !ok {
		errno = unix.EIO
	}
	return &Error{Op: op, Path: path, Path2: path2, Errno: errno}
}

// ignoringEINTR retries fn while it is interrupted by a signal.
func ignoringEINTR(fn func() error) error {
	for {
		err := fn()
		if err != unix.EINTR {
			return err
		}
	}
}
