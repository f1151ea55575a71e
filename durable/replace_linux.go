//go:build linux

package durable

import (
	"os"

	"github.com/cockroachdb/errors"
	"golang.org/x/sys/unix"

	"github.com/helixsave/helix/format"
)

// replaceWithBackup swaps the temp and target names in a single atomic
// exchange, so the target name never goes absent, then retires the old
// contents (now under the temp name) to the backup name. Filesystems that
// predate RENAME_EXCHANGE fall back to the two-rename sequence.
func replaceWithBackup(path, tmp string) error {
	err := unix.Renameat2(unix.AT_FDCWD, tmp, unix.AT_FDCWD, path, unix.RENAME_EXCHANGE)
	if err != nil {
		if errors.Is(err, unix.EINVAL) || errors.Is(err, unix.ENOSYS) || errors.Is(err, unix.ENOTSUP) {
			return renameWithBackup(path, tmp)
		}

		return errors.Wrap(err, "exchange temp and target")
	}

	return errors.Wrap(os.Rename(tmp, path+format.BackupSuffix), "rotate old contents to backup")
}
