//go:build linux || darwin

package platform

import (
	"errors"
	"io"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// Unix is the Dispatcher backed by the running kernel.
type Unix struct{}

var _ Dispatcher = Unix{}

func (Unix) Stat(path string) (Stat, error) {
	var st unix.Stat_t
	err := ignoringEINTR(func() error { return unix.Stat(path, &st) })
	if err != nil {
		return Stat{}, wrap("stat", path, err)
	}
	return fromStatT(&st), nil
}

func (Unix) Lstat(path string) (Stat, error) {
	var st unix.Stat_t
	err := ignoringEINTR(func() error { return unix.Lstat(path, &st) })
	if err != nil {
		return Stat{}, wrap("lstat", path, err)
	}
	return fromStatT(&st), nil
}

func (Unix) Fstat(fd int) (Stat, error) {
	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		return Stat{}, wrap("fstat", "", err)
	}
	return fromStatT(&st), nil
}

func (Unix) BlockSize(path string) (int64, error) {
	var st unix.Statfs_t
	if err := ignoringEINTR(func() error { return unix.Statfs(path, &st) }); err != nil {
		return 0, wrap("statfs", path, err)
	}
	return int64(st.Bsize), nil //nolint:unconvert // width differs per arch
}

func (Unix) Open(path string, flags int, mode uint32) (int, error) {
	var fd int
	err := ignoringEINTR(func() error {
		var err error
		fd, err = unix.Open(path, flags|unix.O_CLOEXEC, mode)
		return err
	})
	if err != nil {
		return -1, wrap("open", path, err)
	}
	return fd, nil
}

func (Unix) Close(fd int) error {
	return wrap("close", "", unix.Close(fd))
}

func (Unix) Read(fd int, p []byte) (int, error) {
	var n int
	err := ignoringEINTR(func() error {
		var err error
		n, err = unix.Read(fd, p)
		return err
	})
	if err != nil {
		return 0, wrap("read", "", err)
	}
	return n, nil
}

func (Unix) Write(fd int, p []byte) (int, error) {
	var n int
	err := ignoringEINTR(func() error {
		var err error
		n, err = unix.Write(fd, p)
		return err
	})
	if err != nil {
		return n, wrap("write", "", err)
	}
	return n, nil
}

func (Unix) Seek(fd int, offset int64, whence int) (int64, error) {
	off, err := unix.Seek(fd, offset, whence)
	if err != nil {
		return 0, wrap("lseek", "", err)
	}
	return off, nil
}

func (Unix) Ftruncate(fd int, size int64) error {
	return wrap("ftruncate", "", ignoringEINTR(func() error { return unix.Ftruncate(fd, size) }))
}

func (Unix) Fsync(fd int) error {
	return wrap("fsync", "", ignoringEINTR(func() error { return unix.Fsync(fd) }))
}

func (Unix) Mkdir(path string, mode uint32) error {
	return wrap("mkdir", path, unix.Mkdir(path, mode))
}

func (Unix) Rmdir(path string) error {
	return wrap("rmdir", path, unix.Rmdir(path))
}

func (Unix) Unlink(path string) error {
	return wrap("unlink", path, unix.Unlink(path))
}

func (Unix) Rename(from, to string) error {
	return wrap2("rename", from, to, unix.Rename(from, to))
}

func (Unix) Symlink(target, path string) error {
	return wrap2("symlink", path, target, unix.Symlink(target, path))
}

func (Unix) Readlink(path string) (string, error) {
	for size := 256; ; size *= 2 {
		buf := make([]byte, size)
		n, err := unix.Readlink(path, buf)
		if err != nil {
			return "", wrap("readlink", path, err)
		}
		if n < size {
			return string(buf[:n]), nil
		}
	}
}

func (Unix) Mknod(path string, mode uint32, dev uint64) error {
	return wrap("mknod", path, unix.Mknod(path, mode, int(dev))) //nolint:gosec // G115: device numbers fit in int
}

// IsEmptyDir reports whether the directory at path has no entries.
func (Unix) IsEmptyDir(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, wrap("opendir", path, err)
	}
	defer f.Close()

	_, err = f.Readdirnames(1)
	if errors.Is(err, io.EOF) {
		return true, nil
	}
	if err != nil {
		return false, wrap("readdir", path, err)
	}
	return false, nil
}

func (Unix) Fchown(fd int, uid, gid uint32) error {
	return wrap("fchown", "", unix.Fchown(fd, int(uid), int(gid)))
}

func (Unix) Chown(path string, uid, gid uint32) error {
	return wrap("chown", path, unix.Chown(path, int(uid), int(gid)))
}

func (Unix) Lchown(path string, uid, gid uint32) error {
	return wrap("lchown", path, unix.Lchown(path, int(uid), int(gid)))
}

func (Unix) Fchmod(fd int, mode uint32) error {
	return wrap("fchmod", "", unix.Fchmod(fd, mode))
}

func (Unix) Chmod(path string, mode uint32) error {
	return wrap("chmod", path, unix.Chmod(path, mode))
}

func (Unix) Utimens(path string, atime, mtime time.Time, follow bool) error {
	flags := 0
	if !follow {
		flags = unix.AT_SYMLINK_NOFOLLOW
	}
	ts := []unix.Timespec{
		unix.NsecToTimespec(atime.UnixNano()),
		unix.NsecToTimespec(mtime.UnixNano()),
	}
	return wrap("utimensat", path, unix.UtimesNanoAt(unix.AT_FDCWD, path, ts, flags))
}

func (Unix) Flistxattr(fd int) ([]string, error) {
	size, err := unix.Flistxattr(fd, nil)
	if err != nil {
		return nil, wrap("flistxattr", "", err)
	}
	if size == 0 {
		return nil, nil
	}
	buf := make([]byte, size)
	size, err = unix.Flistxattr(fd, buf)
	if err != nil {
		return nil, wrap("flistxattr", "", err)
	}
	return parseXattrNames(buf[:size]), nil
}

func (Unix) Fgetxattr(fd int, name string) ([]byte, error) {
	size, err := unix.Fgetxattr(fd, name, nil)
	if err != nil {
		return nil, wrap("fgetxattr", name, err)
	}
	buf := make([]byte, size)
	if size == 0 {
		return buf, nil
	}
	size, err = unix.Fgetxattr(fd, name, buf)
	if err != nil {
		return nil, wrap("fgetxattr", name, err)
	}
	return buf[:size], nil
}

func (Unix) Fsetxattr(fd int, name string, value []byte) error {
	return wrap("fsetxattr", name, unix.Fsetxattr(fd, name, value, 0))
}

// parseXattrNames splits the NUL-separated list returned by listxattr(2).
func parseXattrNames(buf []byte) []string {
	var names []string
	start := 0
	for i, b := range buf {
		if b == 0 {
			if i > start {
				names = append(names, string(buf[start:i]))
			}
			start = i + 1
		}
	}
	return names
}
