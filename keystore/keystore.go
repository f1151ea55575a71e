// Package keystore provisions the two 32-byte HMAC keys that sign helix
// envelopes.
//
// The machine key is a per-install random secret persisted under the
// user-local configuration directory for the executing program; snapshots
// signed with it are rejected on any other install. The global key is
// reconstructed at runtime from compiled-in constants and is the same on
// every install, making snapshots portable. Both keys are process-wide,
// initialized once, and read-only thereafter.
package keystore

import (
	"crypto/rand"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/helixsave/helix/durable"
	"github.com/helixsave/helix/errs"
	"github.com/helixsave/helix/format"
)

// machineKeyFile is the name of the key file inside the program's
// configuration directory.
const machineKeyFile = "machine.key"

// machineKeyCache memoizes keys by resolved key-file path. Keying by path
// rather than a single slot keeps the cache correct when the user config
// directory changes between calls, as it does under test.
var machineKeyCache = struct {
	mu   sync.Mutex
	keys map[string][]byte
}{keys: make(map[string][]byte)}

// Select returns the signing key for the requested mode: the global key when
// portable is true, the machine key otherwise.
func Select(portable bool) ([]byte, error) {
	if portable {
		return GlobalKey(), nil
	}

	return MachineKey()
}

// MachineKey returns this install's 32-byte random key, creating it durably
// on first access. The result is cached for the lifetime of the process.
func MachineKey() ([]byte, error) {
	path, err := machineKeyPath()
	if err != nil {
		return nil, err
	}

	machineKeyCache.mu.Lock()
	defer machineKeyCache.mu.Unlock()

	if key, ok := machineKeyCache.keys[path]; ok {
		return key, nil
	}

	key, err := loadOrCreateMachineKey(path)
	if err != nil {
		return nil, err
	}

	machineKeyCache.keys[path] = key

	return key, nil
}

// machineKeyPath derives the key file location from the user configuration
// directory and the executing program's identifier.
func machineKeyPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "resolve user config directory")
	}

	return filepath.Join(base, programID(), machineKeyFile), nil
}

// programID is the executable's base name, stripped of its extension. When
// the executable path cannot be resolved it uses the base name of os.Args[0],
// and a fixed fallback when that is empty too.
func programID() string {
	name := ""
	if exe, err := os.Executable(); err == nil {
		name = filepath.Base(exe)
	} else if len(os.Args) > 0 {
		name = filepath.Base(os.Args[0])
	}

	name = strings.TrimSuffix(name, filepath.Ext(name))
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "helix"
	}

	return name
}

func loadOrCreateMachineKey(path string) ([]byte, error) {
	if key, err := readKeyFile(path); err == nil {
		return key, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, errors.Wrap(err, "create key directory")
	}

	key := make([]byte, format.KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, errors.Wrap(err, "generate machine key")
	}

	if err := publishKeyFile(path, key); err != nil {
		if errors.Is(err, fs.ErrExist) {
			// Lost the creation race: another process won. Read its key so
			// both processes sign with the same material from now on.
			return readKeyFile(path)
		}

		return nil, err
	}

	return key, nil
}

func readKeyFile(path string) ([]byte, error) {
	key, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(key) != format.KeySize {
		return nil, errors.Wrapf(errs.ErrInvalidKey, "key file %s holds %d bytes", path, len(key))
	}

	return key, nil
}

// publishKeyFile writes key to a sibling temp file, forces it durable, and
// links it into place. Link, unlike rename, fails with fs.ErrExist when the
// destination already exists, which is exactly the lost-race signal the
// caller needs to guarantee key stability.
func publishKeyFile(path string, key []byte) (err error) {
	tmp := path + format.TempSuffix
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return errors.Wrap(err, "create key temp file")
	}
	defer os.Remove(tmp)

	if _, err = f.Write(key); err != nil {
		f.Close()
		return errors.Wrap(err, "write key temp file")
	}
	if err = f.Sync(); err != nil {
		f.Close()
		return errors.Wrap(err, "sync key temp file")
	}
	if err = f.Close(); err != nil {
		return errors.Wrap(err, "close key temp file")
	}

	if err = os.Link(tmp, path); err != nil {
		linkErr := new(os.LinkError)
		if errors.As(err, &linkErr) && errors.Is(linkErr.Err, fs.ErrExist) {
			return fs.ErrExist
		}

		return errors.Wrap(err, "publish key file")
	}

	return durable.SyncDir(filepath.Dir(path))
}
