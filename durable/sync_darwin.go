//go:build darwin

package durable

import (
	"os"

	"golang.org/x/sys/unix"
)

// syncFile forces file contents to stable storage. On Darwin a plain fsync
// only reaches the drive cache, so prefer F_FULLFSYNC and fall back when the
// filesystem does not support it.
func syncFile(f *os.File) error {
	_, err := unix.FcntlInt(f.Fd(), unix.F_FULLFSYNC, 0)
	if err == nil {
		return nil
	}

	return f.Sync()
}
