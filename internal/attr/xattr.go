package attr

import (
	"github.com/bamsammich/ferry/internal/platform"
	"golang.org/x/sys/unix"
)

// NonPosixCopier replicates attributes outside the POSIX set (extended
// attributes, ACLs) between two open descriptors. The representation is
// platform specific.
type NonPosixCopier interface {
	CopyFD(d platform.Dispatcher, srcFd, dstFd int) error
}

// Xattrs copies every extended attribute readable on the source.
type Xattrs struct{}

func (Xattrs) CopyFD(d platform.Dispatcher, srcFd, dstFd int) error {
	names, err := d.Flistxattr(srcFd)
	if err != nil {
		if unsupported(err) {
			return nil
		}
		return err
	}
	for _, name := range names {
		val, err := d.Fgetxattr(srcFd, name)
		if err != nil {
			// removed since listing
			if platform.IsErrno(err, errNoAttr) {
				continue
			}
			return err
		}
		if err := d.Fsetxattr(dstFd, name, val); err != nil {
			return err
		}
	}
	return nil
}

// None skips non-POSIX attributes entirely.
type None struct{}

func (None) CopyFD(platform.Dispatcher, int, int) error { return nil }

func unsupported(err error) bool {
	return platform.IsErrno(err, unix.ENOTSUP, unix.EOPNOTSUPP)
}
