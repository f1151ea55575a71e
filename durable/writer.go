// Package durable writes envelope bytes to disk with crash-consistent
// all-or-nothing visibility under the target name.
//
// The protocol is temp-write-then-replace: the bytes go to a sibling
// "<target>.tmp" file, are forced to stable storage with the strongest flush
// primitive the platform offers, and are then atomically moved under the
// target name. A crash at any point leaves either the old contents (or the
// backup) or the complete new contents readable under the target name,
// never a partial file.
//
// The package provides no mutual exclusion: two concurrent writes to the
// same path race at the replace step and the kernel picks a winner. Callers
// that need per-path serialization can layer the pathlock package on top.
package durable

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"

	"github.com/helixsave/helix/format"
)

// WriteFile durably publishes data under path.
//
// When keepBackup is set and path already exists, the prior contents survive
// at path+".bak"; otherwise they are discarded. On error paths before the
// replace step the target is untouched and the temp sibling is removed
// best-effort; a temp left behind by a crash is truncated by the next
// attempt.
func WriteFile(path string, data []byte, keepBackup bool) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "create parent directory")
	}

	tmp := path + format.TempSuffix
	if err := writeTemp(tmp, data); err != nil {
		return err
	}

	// A failure here leaves the target (and any backup) intact. The temp may
	// persist; the next attempt truncates it.
	if err := replace(path, tmp, keepBackup); err != nil {
		return err
	}

	// Durable rename on POSIX additionally requires syncing the parent
	// directory; without it the new name may vanish on power loss.
	if err := SyncDir(dir); err != nil {
		return err
	}

	return nil
}

// writeTemp creates (or truncates) the temp sibling, writes all bytes, and
// forces file data and metadata to stable storage before closing.
func writeTemp(tmp string, data []byte) (err error) {
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}

	defer func() {
		if err != nil {
			f.Close()
			removeQuiet(tmp)
		}
	}()

	if _, err = f.Write(data); err != nil {
		return errors.Wrap(err, "write temp file")
	}

	if err = syncFile(f); err != nil {
		return errors.Wrap(err, "sync temp file")
	}

	if err = f.Close(); err != nil {
		return errors.Wrap(err, "close temp file")
	}

	return nil
}

// replace moves tmp under path. When the target exists and keepBackup is
// set, the prior target contents end up at path+".bak".
func replace(path, tmp string, keepBackup bool) error {
	if _, err := os.Lstat(path); err != nil {
		if !os.IsNotExist(err) {
			return errors.Wrap(err, "stat target")
		}
		// Fresh target: a plain rename is atomic on its own.
		return errors.Wrap(os.Rename(tmp, path), "rename temp into target")
	}

	if !keepBackup {
		return errors.Wrap(os.Rename(tmp, path), "rename temp over target")
	}

	return replaceWithBackup(path, tmp)
}

// renameWithBackup is the portable backup-preserving replace: the target
// slides to the backup name, then the temp takes the target name. Between
// the two renames the target name is briefly absent; a crash in that window
// leaves the previous contents readable at the backup name, which the loader
// falls back to.
func renameWithBackup(path, tmp string) error {
	if err := os.Rename(path, path+format.BackupSuffix); err != nil {
		return errors.Wrap(err, "rotate target to backup")
	}

	return errors.Wrap(os.Rename(tmp, path), "rename temp into target")
}

// SyncDir flushes directory metadata so a completed rename survives power
// loss. On platforms where directories cannot be opened for syncing the
// call degrades to a no-op.
func SyncDir(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return nil
	}
	defer f.Close()

	if err := f.Sync(); err != nil && !errors.Is(err, os.ErrInvalid) {
		return errors.Wrap(err, "sync parent directory")
	}

	return nil
}

func removeQuiet(path string) {
	_ = os.Remove(path)
}
