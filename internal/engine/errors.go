package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/bamsammich/ferry/internal/attr"
	"github.com/bamsammich/ferry/internal/platform"
	"golang.org/x/sys/unix"
)

// Kind classifies a failed copy or move. Kinds are errors themselves so
// callers can write errors.Is(err, engine.AlreadyExists).
type Kind int

const (
	IOFailure Kind = iota
	NotFound
	PermissionDenied
	AlreadyExists
	DirectoryNotEmpty
	AtomicMoveNotSupported
	Cancelled
	UnsupportedOption
	InvalidArgument
	Unsupported
)

var kindNames = [...]string{
	IOFailure:              "i/o failure",
	NotFound:               "no such file or directory",
	PermissionDenied:       "permission denied",
	AlreadyExists:          "target already exists",
	DirectoryNotEmpty:      "directory not empty",
	AtomicMoveNotSupported: "atomic move not supported across devices",
	Cancelled:              "copy cancelled",
	UnsupportedOption:      "unsupported option",
	InvalidArgument:        "invalid argument",
	Unsupported:            "operation not supported",
}

func (k Kind) Error() string {
	if int(k) >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("engine.Kind(%d)", int(k))
}

// Error is a classified failure. Err holds the underlying cause, usually a
// *platform.Error carrying the errno. The message names the Kind, or the
// errno for an IOFailure.
type Error struct {
	Err   error
	Op    string
	Path  string
	Other string
	Kind  Kind
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Kind == IOFailure && e.Err != nil {
		msg = e.Err.Error()
		var perr *platform.Error
		if errors.As(e.Err, &perr) {
			msg = perr.Errno.Error()
		}
	}
	switch {
	case e.Op != "" && e.Other != "":
		return fmt.Sprintf("%s %s -> %s: %s", e.Op, e.Path, e.Other, msg)
	case e.Op != "" && e.Path != "":
		return fmt.Sprintf("%s %s: %s", e.Op, e.Path, msg)
	case e.Path != "":
		return fmt.Sprintf("%s: %s", e.Path, msg)
	default:
		return msg
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches a bare Kind.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

// KindOf returns the classification of err, or IOFailure for unclassified
// errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	var k Kind
	if errors.As(err, &k) {
		return k
	}
	return kindForErr(err)
}

func newError(kind Kind, op, path, other string, err error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Other: other, Err: err}
}

// translate classifies err at the point of the failing call. Already
// classified errors pass through untouched.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	kind := kindForErr(err)
	var perr *platform.Error
	if errors.As(err, &perr) {
		return newError(kind, perr.Op, perr.Path, perr.Path2, err)
	}
	return newError(kind, "", "", "", err)
}

func kindForErr(err error) Kind {
	switch {
	case errors.Is(err, attr.ErrCannotReadLink):
		return PermissionDenied
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return Cancelled
	}
	errno, ok := platform.ErrnoOf(err)
	if !ok {
		return IOFailure
	}
	switch errno {
	case unix.ENOENT:
		return NotFound
	case unix.EACCES, unix.EPERM:
		return PermissionDenied
	case unix.EEXIST:
		return AlreadyExists
	case unix.ENOTEMPTY:
		return DirectoryNotEmpty
	case unix.ECANCELED:
		return Cancelled
	default:
		return IOFailure
	}
}

// removalError classifies a failed rmdir/unlink of path. Some systems
// report a non-empty directory as EEXIST.
func removalError(path string, err error) error {
	if platform.IsErrno(err, unix.EEXIST, unix.ENOTEMPTY) {
		return newError(DirectoryNotEmpty, "remove", path, "", err)
	}
	return translate(err)
}
