package filesystem

import (
	"io/fs"
	"os"
	"syscall"
	"time"
)

func birthTime(_ *os.File, _ string, info fs.FileInfo) *time.Time {
	attrs, ok := info.Sys().(*syscall.Win32FileAttributeData)
	if !ok {
		return nil
	}
	return timePtr(time.Unix(0, attrs.CreationTime.Nanoseconds()))
}
