//go:build linux

package platform

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/iceber/iouring-go"
	"golang.org/x/sys/unix"
)

// Ring submits positional reads and writes through io_uring. A nil *Ring is
// valid and reports itself unavailable.
type Ring struct {
	iour *iouring.IOURing
}

// NewRing sets up a ring with the given queue depth. It returns (nil, nil)
// when the kernel is too old for io_uring.
func NewRing(entries uint) (*Ring, error) {
	if !KernelSupportsIOURing() {
		return nil, nil
	}
	iour, err := iouring.New(entries)
	if err != nil {
		return nil, fmt.Errorf("io_uring setup: %w", err)
	}
	return &Ring{iour: iour}, nil
}

// Available reports whether the ring can accept requests.
func (r *Ring) Available() bool { return r != nil && r.iour != nil }

// Close tears down the ring.
func (r *Ring) Close() error {
	if !r.Available() {
		return nil
	}
	return r.iour.Close()
}

// Pread reads into p from fd at off.
func (r *Ring) Pread(fd int, p []byte, off int64) (int, error) {
	n, err := r.submit(iouring.Pread(fd, p, uint64(off))) //nolint:gosec // G115: offsets are non-negative
	return n, wrap("io_uring pread", "", err)
}

// Pwrite writes p to fd at off.
func (r *Ring) Pwrite(fd int, p []byte, off int64) (int, error) {
	n, err := r.submit(iouring.Pwrite(fd, p, uint64(off))) //nolint:gosec // G115: offsets are non-negative
	return n, wrap("io_uring pwrite", "", err)
}

func (r *Ring) submit(req iouring.PrepRequest) (int, error) {
	if !r.Available() {
		return 0, unix.ENOSYS
	}
	ch := make(chan iouring.Result, 1)
	if _, err := r.iour.SubmitRequest(req, ch); err != nil {
		return 0, err
	}
	res := <-ch
	return res.ReturnInt()
}

// KernelSupportsIOURing checks if the kernel version is >= 5.6.
func KernelSupportsIOURing() bool {
	var uname unix.Utsname
	if err := unix.Uname(&uname); err != nil {
		return false
	}

	release := unix.ByteSliceToString(uname.Release[:])
	parts := strings.SplitN(release, ".", 3)
	if len(parts) < 2 {
		return false
	}

	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return false
	}

	minorStr := parts[1]
	if idx := strings.IndexFunc(minorStr, func(r rune) bool { return r < '0' || r > '9' }); idx > 0 {
		minorStr = minorStr[:idx]
	}
	minor, err := strconv.Atoi(minorStr)
	if err != nil {
		return false
	}

	return major > 5 || (major == 5 && minor >= 6)
}
