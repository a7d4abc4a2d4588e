package attr

import (
	"time"

	"github.com/bamsammich/ferry/internal/platform"
	"golang.org/x/sys/unix"
)

// Target is where attributes are written. A non-negative FD is preferred
// over Path; NoFollow applies to path-based writes only.
type Target struct {
	Path     string
	FD       int
	NoFollow bool
}

// FDTarget addresses an open descriptor. path is kept for diagnostics.
func FDTarget(fd int, path string) Target { return Target{FD: fd, Path: path} }

// PathTarget addresses a path, without following a final symlink when
// noFollow is set.
func PathTarget(path string, noFollow bool) Target {
	return Target{FD: -1, Path: path, NoFollow: noFollow}
}

func (t Target) hasFD() bool { return t.FD >= 0 }

// Basic holds the timestamps.
type Basic struct {
	Atime time.Time
	Mtime time.Time
}

// Apply sets both timestamps on t.
func (b Basic) Apply(d platform.Dispatcher, t Target) error {
	if t.hasFD() {
		return d.Futimens(t.FD, b.Atime, b.Mtime)
	}
	return d.Utimens(t.Path, b.Atime, b.Mtime, !t.NoFollow)
}

// Posix holds the permission bits.
type Posix struct {
	Mode uint32
}

// Apply sets the permission bits on t. Symlink permissions cannot be
// changed, so a NoFollow path target fails with EOPNOTSUPP.
func (p Posix) Apply(d platform.Dispatcher, t Target) error {
	switch {
	case t.hasFD():
		return d.Fchmod(t.FD, p.Mode)
	case t.NoFollow:
		return &platform.Error{Op: "lchmod", Path: t.Path, Errno: unix.EOPNOTSUPP}
	default:
		return d.Chmod(t.Path, p.Mode)
	}
}

// Owner holds the numeric owner and group.
type Owner struct {
	UID uint32
	GID uint32
}

// Apply changes ownership of t.
func (o Owner) Apply(d platform.Dispatcher, t Target) error {
	switch {
	case t.hasFD():
		return d.Fchown(t.FD, o.UID, o.GID)
	case t.NoFollow:
		return d.Lchown(t.Path, o.UID, o.GID)
	default:
		return d.Chown(t.Path, o.UID, o.GID)
	}
}

// Unix holds identity fields. They are read-only and never replicated; the
// copiers use Rdev to recreate device nodes.
type Unix struct {
	Dev   uint64
	Ino   uint64
	Rdev  uint64
	Nlink uint64
}
