//go:build darwin

package platform

import (
	"time"

	"golang.org/x/sys/unix"
)

func fromStatT(st *unix.Stat_t) Stat {
	return Stat{
		Mode:    uint32(st.Mode),
		UID:     st.Uid,
		GID:     st.Gid,
		Dev:     uint64(uint32(st.Dev)),  //nolint:gosec // G115: dev_t is a bit pattern
		Ino:     st.Ino,
		Rdev:    uint64(uint32(st.Rdev)), //nolint:gosec // G115: dev_t is a bit pattern
		Nlink:   uint64(st.Nlink),
		Size:    st.Size,
		Blocks:  int64(st.Blocks),
		Blksize: int64(st.Blksize),
		Atime:   time.Unix(st.Atim.Unix()),
		Mtime:   time.Unix(st.Mtim.Unix()),
		Ctime:   time.Unix(st.Ctim.Unix()),
	}
}
