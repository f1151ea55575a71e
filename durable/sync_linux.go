//go:build linux

package durable

import (
	"os"

	"golang.org/x/sys/unix"
)

// syncFile forces file contents to stable storage. fdatasync suffices here:
// the temp file's size is part of the data being written, and ext4/xfs
// persist the size change with the data.
func syncFile(f *os.File) error {
	return unix.Fdatasync(int(f.Fd()))
}
