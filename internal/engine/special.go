package engine

import "github.com/bamsammich/ferry/internal/attr"

// copySpecial recreates a FIFO, socket or device node with the source's
// mode and device number.
func (o *operation) copySpecial(source *attr.Snapshot, dst string) error {
	d := o.e.d
	if err := d.Mknod(dst, source.Mode, source.Rdev); err != nil {
		return translate(err)
	}
	o.e.inflight.register(dst, attr.Special)

	complete := false
	defer func() {
		if !complete {
			o.rollback(dst, attr.Special)
		}
		o.e.inflight.deregister(dst)
	}()

	if err := o.replicate(source, attr.PathTarget(dst, false), -1); err != nil {
		return err
	}
	complete = true
	o.created(attr.Special, dst, 0, "")
	return nil
}
