// Package attr captures file metadata once per operation and replays it onto
// newly created entities.
package attr

import (
	"errors"
	"fmt"
	"time"

	"github.com/bamsammich/ferry/internal/platform"
	"golang.org/x/sys/unix"
)

// Kind classifies a filesystem entity. Each kind has its own copier.
type Kind int

const (
	Regular Kind = iota
	Directory
	Symlink
	Special // FIFOs, sockets, character and block devices
)

var kindNames = [...]string{
	Regular:   "regular",
	Directory: "directory",
	Symlink:   "symlink",
	Special:   "special",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// KindOf maps the S_IFMT bits of mode to a Kind.
func KindOf(mode uint32) Kind {
	switch mode & unix.S_IFMT {
	case unix.S_IFREG:
		return Regular
	case unix.S_IFDIR:
		return Directory
	case unix.S_IFLNK:
		return Symlink
	default:
		return Special
	}
}

// ErrCannotReadLink marks a symlink whose target could not be read for lack
// of permission.
var ErrCannotReadLink = errors.New("cannot read symbolic link")

// FileKey identifies the underlying file regardless of the path used to
// reach it.
type FileKey struct {
	Dev uint64
	Ino uint64
}

// Snapshot is an immutable read of one path's metadata. It is taken before
// any mutation and never refreshed.
type Snapshot struct {
	Atime      time.Time
	Mtime      time.Time
	Path       string
	LinkTarget string // raw target, set for symlinks taken without following
	Dev        uint64
	Ino        uint64
	Rdev       uint64
	Nlink      uint64
	Size       int64
	Blocks     int64 // 512-byte units allocated
	Kind       Kind
	Mode       uint32 // full st_mode including type bits
	UID        uint32
	GID        uint32
}

// Take stats path, following symlinks only when follow is set. For an
// unfollowed symlink the raw link target is read as well.
func Take(d platform.Dispatcher, path string, follow bool) (*Snapshot, error) {
	var (
		st  platform.Stat
		err error
	)
	if follow {
		st, err = d.Stat(path)
	} else {
		st, err = d.Lstat(path)
	}
	if err != nil {
		return nil, err
	}

	s := fromStat(path, st)
	if s.Kind == Symlink {
		target, err := d.Readlink(path)
		if err != nil {
			if platform.IsErrno(err, unix.EACCES, unix.EPERM) {
				return nil, fmt.Errorf("%w: %w", ErrCannotReadLink, err)
			}
			return nil, err
		}
		s.LinkTarget = target
	}
	return s, nil
}

// Peek lstats path without reading a symlink's target. Targets of a copy
// or move only need their kind and sameness key.
func Peek(d platform.Dispatcher, path string) (*Snapshot, error) {
	st, err := d.Lstat(path)
	if err != nil {
		return nil, err
	}
	return fromStat(path, st), nil
}

func fromStat(path string, st platform.Stat) *Snapshot {
	return &Snapshot{
		Path:   path,
		Kind:   KindOf(st.Mode),
		Mode:   st.Mode,
		UID:    st.UID,
		GID:    st.GID,
		Dev:    st.Dev,
		Ino:    st.Ino,
		Rdev:   st.Rdev,
		Nlink:  st.Nlink,
		Size:   st.Size,
		Blocks: st.Blocks,
		Atime:  st.Atime,
		Mtime:  st.Mtime,
	}
}

// Perm returns the permission bits, including setuid/setgid/sticky.
func (s *Snapshot) Perm() uint32 { return s.Mode & 0o7777 }

// Key returns the sameness key.
func (s *Snapshot) Key() FileKey { return FileKey{Dev: s.Dev, Ino: s.Ino} }

// SameFile reports whether both snapshots describe the same underlying file.
func (s *Snapshot) SameFile(o *Snapshot) bool {
	return s != nil && o != nil && s.Key() == o.Key()
}

func (s *Snapshot) Basic() Basic { return Basic{Atime: s.Atime, Mtime: s.Mtime} }

func (s *Snapshot) Posix() Posix { return Posix{Mode: s.Perm()} }

func (s *Snapshot) Owner() Owner { return Owner{UID: s.UID, GID: s.GID} }

func (s *Snapshot) Unix() Unix {
	return Unix{Dev: s.Dev, Ino: s.Ino, Rdev: s.Rdev, Nlink: s.Nlink}
}
