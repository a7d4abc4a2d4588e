//go:build !linux

package platform

import "golang.org/x/sys/unix"

// Ring is unavailable outside Linux.
type Ring struct{}

// NewRing always returns (nil, nil) on non-Linux platforms.
func NewRing(_ uint) (*Ring, error) { return nil, nil }

func (r *Ring) Available() bool { return false }

func (r *Ring) Close() error { return nil }

func (r *Ring) Pread(_ int, _ []byte, _ int64) (int, error) {
	return 0, wrap("io_uring pread", "", unix.ENOSYS)
}

func (r *Ring) Pwrite(_ int, _ []byte, _ int64) (int, error) {
	return 0, wrap("io_uring pwrite", "", unix.ENOSYS)
}

// KernelSupportsIOURing always returns false on non-Linux platforms.
func KernelSupportsIOURing() bool { return false }
