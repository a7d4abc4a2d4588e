package engine

import (
	"github.com/bamsammich/ferry/internal/attr"
	"github.com/bamsammich/ferry/internal/event"
	"github.com/bamsammich/ferry/internal/platform"
	"golang.org/x/sys/unix"
)

func (o *operation) move() error {
	d := o.e.d

	if o.flags.AtomicMove {
		if err := d.Rename(o.src, o.dst); err != nil {
			if platform.IsErrno(err, unix.EXDEV) {
				return newError(AtomicMoveNotSupported, "rename", o.src, o.dst, err)
			}
			return translate(err)
		}
		o.e.stats.AddRenames(1)
		return nil
	}

	source, err := attr.Take(d, o.src, false)
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

	err = d.Rename(o.src, o.dst)
	if err == nil {
		o.e.stats.AddRenames(1)
		return nil
	}
	if !platform.IsErrno(err, unix.EXDEV, unix.EISDIR) {
		return translate(err)
	}
	o.log.Debug("rename not possible, copying", "error", err)
	o.emit(event.Event{Type: event.RenameFallback, Error: err})

	if source.Kind == attr.Directory {
		// Only the directory itself is copied.
		empty, err := d.IsEmptyDir(o.src)
		if err != nil {
			return translate(err)
		}
		if !empty {
			return newError(DirectoryNotEmpty, "move", o.src, o.dst, nil)
		}
	}

	if err := o.copyEntity(source, o.dst); err != nil {
		return err
	}

	if err := o.remove(o.src, source.Kind); err != nil {
		// Prefer leaving the original in place over two copies.
		if rerr := o.remove(o.dst, source.Kind); rerr != nil {
			o.log.Debug("removing copied target failed", "error", rerr)
		} else {
			o.e.stats.AddRollbacks(1)
			o.emit(event.Event{Type: event.RolledBack, Target: o.dst, Kind: source.Kind.String()})
		}
		return removalError(o.src, err)
	}

	o.e.stats.AddCopyMoves(1)
	o.emit(event.Event{Type: event.SourceDeleted, Kind: source.Kind.String()})
	return nil
}
