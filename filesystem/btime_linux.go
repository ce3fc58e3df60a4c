package filesystem

import (
	"io/fs"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// birthTime asks statx for the creation time of name relative to the open
// directory dir. Filesystems that do not record it yield nil.
func birthTime(dir *os.File, name string, _ fs.FileInfo) *time.Time {
	var stx unix.Statx_t
	err := unix.Statx(int(dir.Fd()), name, unix.AT_SYMLINK_NOFOLLOW|unix.AT_STATX_DONT_SYNC, unix.STATX_BTIME, &stx)
	if err != nil || stx.Mask&unix.STATX_BTIME == 0 {
		return nil
	}
	return timePtr(time.Unix(stx.Btime.Sec, int64(stx.Btime.Nsec)))
}
