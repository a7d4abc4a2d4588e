package engine

import (
	"github.com/bamsammich/ferry/internal/attr"
	"github.com/bamsammich/ferry/internal/platform"
	"golang.org/x/sys/unix"
)

// segment is a contiguous data region of a file. The gaps between segments
// are holes.
type segment struct {
	off int64
	len int64
}

// isSparse reports whether the source allocates fewer blocks than its size
// needs.
func isSparse(source *attr.Snapshot) bool {
	return source.Size > 0 && source.Blocks*512 < source.Size
}

// dataSegments walks SEEK_DATA/SEEK_HOLE over fd. Filesystems without hole
// reporting yield a single segment covering the whole file.
func dataSegments(d platform.Dispatcher, fd int, size int64) ([]segment, error) {
	var segs []segment
	for off := int64(0); off < size; {
		start, err := d.Seek(fd, off, unix.SEEK_DATA)
		if err != nil {
			switch {
			case platform.IsErrno(err, unix.ENXIO):
				// the rest is a hole
				return segs, nil
			case platform.IsErrno(err, unix.EINVAL, unix.EOPNOTSUPP):
				return []segment{{off: 0, len: size}}, nil
			default:
				return nil, err
			}
		}
		end, err := d.Seek(fd, start, unix.SEEK_HOLE)
		if err != nil {
			if !platform.IsErrno(err, unix.ENXIO) {
				return nil, err
			}
			end = size
		}
		end = min(end, size)
		if end <= start {
			break
		}
		segs = append(segs, segment{off: start, len: end - start})
		off = end
	}
	return segs, nil
}

// sparseCopy copies only the data segments of srcFd and leaves holes in
// dstFd, then extends dstFd to the full size. It returns the logical size
// written.
func (o *operation) sparseCopy(srcFd, dstFd int, source *attr.Snapshot, dst string, size int) (int64, error) {
	d := o.e.d
	segs, err := dataSegments(d, srcFd, source.Size)
	if err != nil {
		return 0, translate(err)
	}

	bufp := o.e.pool.Get(size)
	defer o.e.pool.Put(bufp)
	buf := *bufp

	for _, seg := range segs {
		if _, err := d.Seek(srcFd, seg.off, unix.SEEK_SET); err != nil {
			return 0, translate(err)
		}
		if _, err := d.Seek(dstFd, seg.off, unix.SEEK_SET); err != nil {
			return 0, translate(err)
		}
		for remaining := seg.len; remaining > 0; {
			if o.cancelled() {
				return 0, o.cancelError(dst)
			}
			chunk := buf[:min(int64(len(buf)), remaining)]
			n, err := d.Read(srcFd, chunk)
			if err != nil {
				return 0, translate(err)
			}
			if n == 0 {
				// source shrank underneath us
				break
			}
			if err := writeFull(d, dstFd, chunk[:n]); err != nil {
				return 0, translate(err)
			}
			remaining -= int64(n)
			if err := o.progress(dst, seg.off+seg.len-remaining, n, platform.ReadWrite); err != nil {
				return 0, err
			}
		}
	}
	if err := d.Ftruncate(dstFd, source.Size); err != nil {
		return 0, translate(err)
	}
	return source.Size, nil
}
