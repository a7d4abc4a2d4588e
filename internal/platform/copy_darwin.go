//go:build darwin

package platform

import (
	"time"

	"golang.org/x/sys/unix"
)

// Futimens sets the access and modification times of an open descriptor
// with microsecond precision.
func (Unix) Futimens(fd int, atime, mtime time.Time) error {
	tv := []unix.Timeval{
		unix.NsecToTimeval(atime.UnixNano()),
		unix.NsecToTimeval(mtime.UnixNano()),
	}
	return wrap("futimes", "", unix.Futimes(fd, tv))
}

// CopyFileRange has no darwin equivalent for arbitrary descriptors.
func (Unix) CopyFileRange(_, _ int, _ int) (int, error) {
	return 0, wrap("copy_file_range", "", unix.ENOSYS)
}

func (Unix) Preallocate(_ int, _ int64) {}
