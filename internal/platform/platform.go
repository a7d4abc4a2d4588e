package platform

import "time"

// CopyMethod identifies which syscall/strategy moved the bytes of a regular file.
type CopyMethod int

const (
	ReadWrite     CopyMethod = iota
	CopyFileRange            // Linux copy_file_range(2)
	IOURing                  // Linux io_uring pread/pwrite
	Sparse                   // read/write of data segments, holes skipped
)

func (m CopyMethod) String() string {
	switch m {
	case ReadWrite:
		return "read_write"
	case CopyFileRange:
		return "copy_file_range"
	case IOURing:
		return "io_uring"
	case Sparse:
		return "sparse"
	default:
		return "unknown"
	}
}

// Stat is the subset of struct stat the engine relies on. Mode carries the
// file type bits as well as the permission bits.
type Stat struct {
	Atime   time.Time
	Mtime   time.Time
	Ctime   time.Time
	Dev     uint64
	Ino     uint64
	Rdev    uint64
	Nlink   uint64
	Size    int64
	Blocks  int64 // 512-byte units allocated
	Blksize int64
	Mode    uint32
	UID     uint32
	GID     uint32
}

// Dispatcher is the native capability surface. Every method either succeeds
// or fails with a *Error carrying the errno and the path(s) involved.
type Dispatcher interface {
	Stat(path string) (Stat, error)
	Lstat(path string) (Stat, error)
	Fstat(fd int) (Stat, error)
	// BlockSize reports the preferred I/O block size of the filesystem
	// holding path.
	BlockSize(path string) (int64, error)

	Open(path string, flags int, mode uint32) (int, error)
	Close(fd int) error
	Read(fd int, p []byte) (int, error)
	Write(fd int, p []byte) (int, error)
	// CopyFileRange asks the kernel to move up to n bytes between two
	// descriptors at their current offsets. Platforms without an in-kernel
	// copy fail with ENOSYS.
	CopyFileRange(srcFd, dstFd int, n int) (int, error)
	// Preallocate reserves size bytes for fd. Advisory; failures are ignored.
	Preallocate(fd int, size int64)
	Seek(fd int, offset int64, whence int) (int64, error)
	Ftruncate(fd int, size int64) error
	Fsync(fd int) error

	Mkdir(path string, mode uint32) error
	Rmdir(path string) error
	Unlink(path string) error
	Rename(from, to string) error
	Symlink(target, path string) error
	Readlink(path string) (string, error)
	Mknod(path string, mode uint32, dev uint64) error
	IsEmptyDir(path string) (bool, error)

	Fchown(fd int, uid, gid uint32) error
	Chown(path string, uid, gid uint32) error
	Lchown(path string, uid, gid uint32) error
	Fchmod(fd int, mode uint32) error
	Chmod(path string, mode uint32) error
	Futimens(fd int, atime, mtime time.Time) error
	Utimens(path string, atime, mtime time.Time, follow bool) error

	Flistxattr(fd int) ([]string, error)
	Fgetxattr(fd int, name string) ([]byte, error)
	Fsetxattr(fd int, name string, value []byte) error
}
