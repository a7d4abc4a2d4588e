package engine

import (
	"io"
	"sync/atomic"

	"github.com/bamsammich/ferry/internal/attr"
	"github.com/bamsammich/ferry/internal/event"
	"github.com/bamsammich/ferry/internal/platform"
	"golang.org/x/sys/unix"
)

// fastPathChunk bounds each copy_file_range call so cancellation and
// bandwidth limits are honored between chunks.
const fastPathChunk = 8 << 20

// fastPathDisabled is set process-wide once the kernel reports that the
// in-kernel copy is not implemented.
var fastPathDisabled atomic.Bool

// transfer moves the contents of srcFd to dstFd: the in-kernel fast path
// first, then io_uring or a buffered read/write loop for whatever remains.
// Sparse sources copy their data segments only when the Sparse flag is set.
// Both descriptors are at offset zero on entry.
func (o *operation) transfer(srcFd, dstFd int, source *attr.Snapshot, dst string) (int64, platform.CopyMethod, error) {
	d := o.e.d
	size := platform.BufferSize(d, source.Path, dst)
	if o.flags.Sparse && isSparse(source) {
		n, err := o.sparseCopy(srcFd, dstFd, source, dst, size)
		return n, platform.Sparse, err
	}
	d.Preallocate(dstFd, source.Size)

	var copied int64
	if !fastPathDisabled.Load() {
		n, done, err := o.fastPath(srcFd, dstFd, source, dst)
		copied = n
		if err != nil || done {
			return copied, platform.CopyFileRange, err
		}
	}

	if o.e.ring.Available() {
		n, err := o.ringCopy(srcFd, dstFd, dst, copied, size)
		return copied + n, platform.IOURing, err
	}
	n, err := o.bufferedCopy(srcFd, dstFd, dst, copied, size)
	return copied + n, platform.ReadWrite, err
}

// fastPath copies with copy_file_range until EOF. It reports done=false
// with a nil error when the caller should continue with a buffered copy
// from the current offsets.
func (o *operation) fastPath(srcFd, dstFd int, source *attr.Snapshot, dst string) (int64, bool, error) {
	var copied int64
	for {
		if o.cancelled() {
			return copied, false, o.cancelError(dst)
		}
		n, err := o.e.d.CopyFileRange(srcFd, dstFd, fastPathChunk)
		if err != nil {
			switch {
			case platform.IsErrno(err, unix.ENOSYS, unix.EOPNOTSUPP, unix.ENOTSUP):
				if fastPathDisabled.CompareAndSwap(false, true) {
					o.log.Debug("copy_file_range unsupported, disabling fast path", "error", err)
					o.e.stats.AddFallbacks(1)
					o.emit(event.Event{Type: event.FastPathDisabled, Error: err})
				}
				return copied, false, nil
			case platform.IsErrno(err, unix.EXDEV, unix.EINVAL, unix.EBADF, unix.EPERM):
				o.log.Debug("copy_file_range refused, using buffered copy", "error", err, "copied", copied)
				o.e.stats.AddFallbacks(1)
				return copied, false, nil
			default:
				return copied, false, translate(err)
			}
		}
		if n == 0 {
			// Some pseudo filesystems report zero length through the fast path.
			if copied == 0 && source.Size > 0 {
				return 0, false, nil
			}
			return copied, true, nil
		}
		copied += int64(n)
		if err := o.progress(dst, copied, n, platform.CopyFileRange); err != nil {
			return copied, false, err
		}
	}
}

func (o *operation) bufferedCopy(srcFd, dstFd int, dst string, done int64, size int) (int64, error) {
	d := o.e.d
	bufp := o.e.pool.Get(size)
	defer o.e.pool.Put(bufp)
	buf := *bufp

	var copied int64
	for {
		if o.cancelled() {
			return copied, o.cancelError(dst)
		}
		n, err := d.Read(srcFd, buf)
		if err != nil {
			return copied, translate(err)
		}
		if n == 0 {
			return copied, nil
		}
		if err := writeFull(d, dstFd, buf[:n]); err != nil {
			return copied, translate(err)
		}
		copied += int64(n)
		if err := o.progress(dst, done+copied, n, platform.ReadWrite); err != nil {
			return copied, err
		}
	}
}

func (o *operation) ringCopy(srcFd, dstFd int, dst string, off int64, size int) (int64, error) {
	ring := o.e.ring
	bufp := o.e.pool.Get(size)
	defer o.e.pool.Put(bufp)
	buf := *bufp

	var copied int64
	for {
		if o.cancelled() {
			return copied, o.cancelError(dst)
		}
		n, err := ring.Pread(srcFd, buf, off)
		if err != nil {
			return copied, translate(err)
		}
		if n == 0 {
			return copied, nil
		}
		for written := 0; written < n; {
			w, err := ring.Pwrite(dstFd, buf[written:n], off+int64(written))
			if err != nil {
				return copied, translate(err)
			}
			if w == 0 {
				return copied, translate(io.ErrShortWrite)
			}
			written += w
		}
		off += int64(n)
		copied += int64(n)
		if err := o.progress(dst, off, n, platform.IOURing); err != nil {
			return copied, err
		}
	}
}

func writeFull(d platform.Dispatcher, fd int, p []byte) error {
	for len(p) > 0 {
		n, err := d.Write(fd, p)
		if err != nil {
			return err
		}
		if n == 0 {
			return io.ErrShortWrite
		}
		p = p[n:]
	}
	return nil
}

// progress accounts a transferred chunk and applies the bandwidth limit.
func (o *operation) progress(dst string, total int64, chunk int, method platform.CopyMethod) error {
	o.e.stats.AddBytesCopied(int64(chunk))
	o.emit(event.Event{Type: event.TransferProgress, Target: dst, Size: total, Method: method.String()})
	if err := throttle(o.ctx, o.e.limiter, chunk); err != nil {
		return translate(err)
	}
	return nil
}

// cancelled polls the caller's token and the operation context. Only
// interruptible copies observe them.
func (o *operation) cancelled() bool {
	return o.flags.Interruptible && (o.token.Cancelled() || o.ctx.Err() != nil)
}

func (o *operation) cancelError(dst string) error {
	o.log.Debug("transfer cancelled")
	return newError(Cancelled, "transfer", o.src, dst, nil)
}
