//go:build darwin || freebsd || netbsd

package filesystem

import (
	"io/fs"
	"os"
	"syscall"
	"time"
)

func birthTime(_ *os.File, _ string, info fs.FileInfo) *time.Time {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return nil
	}
	sec, nsec := st.Birthtimespec.Unix()
	return timePtr(time.Unix(sec, nsec))
}
