package engine

import (
	"github.com/bamsammich/ferry/internal/attr"
	"golang.org/x/sys/unix"
)

// copyFile copies a regular file. The target is created exclusively and is
// unlinked on any failure before the copy completes.
func (o *operation) copyFile(source *attr.Snapshot, dst string) (err error) {
	d := o.e.d

	srcFd, err := d.Open(source.Path, unix.O_RDONLY, 0)
	if err != nil {
		return translate(err)
	}
	defer d.Close(srcFd)

	dstFd, err := d.Open(dst, unix.O_WRONLY|unix.O_CREAT|unix.O_EXCL, source.Perm())
	if err != nil {
		return translate(err)
	}
	o.e.inflight.register(dst, attr.Regular)

	complete := false
	defer func() {
		if dstFd >= 0 {
			_ = d.Close(dstFd)
		}
		if !complete {
			o.rollback(dst, attr.Regular)
		}
		o.e.inflight.deregister(dst)
	}()

	n, method, err := o.transfer(srcFd, dstFd, source, dst)
	if err != nil {
		return err
	}
	if err := o.replicate(source, attr.FDTarget(dstFd, dst), srcFd); err != nil {
		return err
	}

	err = d.Close(dstFd)
	dstFd = -1
	if err != nil {
		return translate(err)
	}
	complete = true

	o.log.Debug("file copied", "bytes", n, "method", method)
	o.created(attr.Regular, dst, n, method.String())
	return nil
}
