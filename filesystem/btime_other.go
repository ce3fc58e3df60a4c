//go:build !linux && !darwin && !freebsd && !netbsd && !windows

package filesystem

import (
	"io/fs"
	"os"
	"time"
)

func birthTime(_ *os.File, _ string, _ fs.FileInfo) *time.Time {
	return nil
}
