//go:build linux

package platform

import (
	"time"

	"golang.org/x/sys/unix"
)

//nolint:unconvert // field widths differ between linux architectures
func fromStatT(st *unix.Stat_t) Stat {
	return Stat{
		Mode:    st.Mode,
		UID:     st.Uid,
		GID:     st.Gid,
		Dev:     uint64(st.Dev),
		Ino:     st.Ino,
		Rdev:    uint64(st.Rdev),
		Nlink:   uint64(st.Nlink),
		Size:    st.Size,
		Blocks:  int64(st.Blocks),
		Blksize: int64(st.Blksize),
		Atime:   time.Unix(st.Atim.Unix()),
		Mtime:   time.Unix(st.Mtim.Unix()),
		Ctime:   time.Unix(st.Ctim.Unix()),
	}
}
