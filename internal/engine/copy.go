package engine

import (
	"github.com/bamsammich/ferry/internal/attr"
	"github.com/bamsammich/ferry/internal/platform"
	"golang.org/x/sys/unix"
)

func (o *operation) copy() error {
	source, err := attr.Take(o.e.d, o.src, o.flags.FollowLinks)
	if err != nil {
		return translate(err)
	}
	target, err := o.peekTarget()
	if err != nil {
		return err
	}
	if target != nil {
		if source.SameFile(target) {
			o.sameFile()
			return nil
		}
		if err := o.clearTarget(target); err != nil {
			return err
		}
	}
	return o.copyEntity(source, o.dst)
}

// peekTarget returns nil when dst does not exist.
func (o *operation) peekTarget() (*attr.Snapshot, error) {
	target, err := attr.Peek(o.e.d, o.dst)
	if err != nil {
		if platform.IsErrno(err, unix.ENOENT) {
			return nil, nil
		}
		return nil, translate(err)
	}
	return target, nil
}

// clearTarget deletes an existing target when ReplaceExisting allows it.
func (o *operation) clearTarget(target *attr.Snapshot) error {
	if !o.flags.ReplaceExisting {
		return newError(AlreadyExists, o.name, o.dst, "", nil)
	}
	if err := o.remove(target.Path, target.Kind); err != nil {
		return removalError(target.Path, err)
	}
	o.log.Debug("replaced existing target", "kind", target.Kind)
	return nil
}

func (o *operation) copyEntity(source *attr.Snapshot, dst string) error {
	switch source.Kind {
	case attr.Directory:
		return o.copyDir(source, dst)
	case attr.Symlink:
		return o.copySymlink(source, dst)
	case attr.Regular:
		return o.copyFile(source, dst)
	default:
		return o.copySpecial(source, dst)
	}
}

// replicate writes the requested attribute classes onto t: ownership and
// permissions, then non-POSIX attributes, then timestamps. Timestamps go
// last because the earlier writes can touch them. srcFd may be -1 when no
// source descriptor is open.
func (o *operation) replicate(source *attr.Snapshot, t attr.Target, srcFd int) error {
	d := o.e.d
	f := o.flags

	if f.CopyPosix {
		// chown first: it clears setuid/setgid bits that chmod restores.
		err := source.Owner().Apply(d, t)
		if perr := source.Posix().Apply(d, t); err == nil {
			err = perr
		}
		if err != nil {
			if f.FailIfUnableToCopyPosix {
				return translate(err)
			}
			o.log.Debug("posix attributes not copied", "path", t.Path, "error", err)
		}
	}

	if f.CopyNonPosix {
		if err := o.copyNonPosix(srcFd, t); err != nil {
			if f.FailIfUnableToCopyNonPosix {
				return translate(err)
			}
			o.log.Debug("non-posix attributes not copied", "path", t.Path, "error", err)
		}
	}

	if f.CopyBasic {
		if err := source.Basic().Apply(d, t); err != nil {
			if f.FailIfUnableToCopyBasic {
				return translate(err)
			}
			o.log.Debug("timestamps not copied", "path", t.Path, "error", err)
		}
	}
	return nil
}

func (o *operation) copyNonPosix(srcFd int, t attr.Target) error {
	if srcFd < 0 || t.FD < 0 {
		return &platform.Error{Op: "copy attributes", Path: t.Path, Errno: unix.EBADF}
	}
	return o.e.nonPosix.CopyFD(o.e.d, srcFd, t.FD)
}
