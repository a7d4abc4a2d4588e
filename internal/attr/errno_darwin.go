//go:build darwin

package attr

import "golang.org/x/sys/unix"

const errNoAttr = unix.ENOATTR
