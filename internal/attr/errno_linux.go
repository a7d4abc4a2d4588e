//go:build linux

package attr

import "golang.org/x/sys/unix"

const errNoAttr = unix.ENODATA
