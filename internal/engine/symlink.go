package engine

import "github.com/bamsammich/ferry/internal/attr"

// copySymlink recreates a symbolic link with the same raw target. Ownership
// and timestamps on the link are best effort.
func (o *operation) copySymlink(source *attr.Snapshot, dst string) error {
	d := o.e.d
	if err := d.Symlink(source.LinkTarget, dst); err != nil {
		return translate(err)
	}

	t := attr.PathTarget(dst, true)
	if o.flags.CopyPosix {
		if err := source.Owner().Apply(d, t); err != nil {
			o.log.Debug("symlink ownership not copied", "error", err)
		}
	}
	if o.flags.CopyBasic {
		if err := source.Basic().Apply(d, t); err != nil {
			o.log.Debug("symlink timestamps not copied", "error", err)
		}
	}
	o.created(attr.Symlink, dst, 0, "")
	return nil
}
