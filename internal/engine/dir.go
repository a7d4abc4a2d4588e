package engine

import (
	"github.com/bamsammich/ferry/internal/attr"
	"golang.org/x/sys/unix"
)

// copyDir creates an empty directory at dst. Attributes are written through
// a descriptor on the new directory when one can be opened, falling back to
// path-based calls.
func (o *operation) copyDir(source *attr.Snapshot, dst string) error {
	d := o.e.d
	f := o.flags

	if err := d.Mkdir(dst, source.Perm()); err != nil {
		return translate(err)
	}
	if !f.CopiesAttributes() {
		o.created(attr.Directory, dst, 0, "")
		return nil
	}
	o.e.inflight.register(dst, attr.Directory)

	complete := false
	defer func() {
		if !complete {
			o.rollback(dst, attr.Directory)
		}
		o.e.inflight.deregister(dst)
	}()

	target := attr.PathTarget(dst, false)
	dfd, err := d.Open(dst, unix.O_RDONLY|unix.O_DIRECTORY, 0)
	if err != nil {
		if f.CopyNonPosix && f.FailIfUnableToCopyNonPosix {
			return translate(err)
		}
		o.log.Debug("directory descriptor unavailable, using path", "error", err)
	} else {
		defer d.Close(dfd)
		target = attr.FDTarget(dfd, dst)
	}

	srcFd := -1
	if f.CopyNonPosix && target.FD >= 0 {
		sfd, err := d.Open(source.Path, unix.O_RDONLY|unix.O_DIRECTORY, 0)
		if err != nil {
			if f.FailIfUnableToCopyNonPosix {
				return translate(err)
			}
			o.log.Debug("source directory descriptor unavailable", "error", err)
		} else {
			defer d.Close(sfd)
			srcFd = sfd
		}
	}

	if err := o.replicate(source, target, srcFd); err != nil {
		return err
	}
	complete = true
	o.created(attr.Directory, dst, 0, "")
	return nil
}
