//go:build linux

package platform

import (
	"strconv"
	"time"

	"golang.org/x/sys/unix"
)

// Futimens sets the access and modification times of an open descriptor.
// Older kernels reject AT_EMPTY_PATH for utimensat, so the /proc/self/fd
// alias is tried next.
func (Unix) Futimens(fd int, atime, mtime time.Time) error {
	ts := []unix.Timespec{
		unix.NsecToTimespec(atime.UnixNano()),
		unix.NsecToTimespec(mtime.UnixNano()),
	}
	err := unix.UtimesNanoAt(fd, "", ts, unix.AT_EMPTY_PATH)
	if err == nil {
		return nil
	}
	if err2 := unix.UtimesNanoAt(unix.AT_FDCWD, "/proc/self/fd/"+strconv.Itoa(fd), ts, 0); err2 == nil {
		return nil
	}
	return wrap("futimens", "", err)
}

func (Unix) CopyFileRange(srcFd, dstFd int, n int) (int, error) {
	var written int
	err := ignoringEINTR(func() error {
		var err error
		written, err = unix.CopyFileRange(srcFd, nil, dstFd, nil, n, 0)
		return err
	})
	if err != nil {
		return 0, wrap("copy_file_range", "", err)
	}
	return written, nil
}

func (Unix) Preallocate(fd int, size int64) {
	if size <= 0 {
		return
	}
	// KEEP_SIZE reserves blocks without growing the file, so a short copy
	// never leaves a zero-filled tail.
	//nolint:errcheck // fallocate is advisory; not supported on all filesystems
	unix.Fallocate(fd, unix.FALLOC_FL_KEEP_SIZE, 0, size)
}
