package keystore

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/helixsave/helix/errs"
	"github.com/helixsave/helix/format"
)

// useConfigDir points the user config directory at a fresh temp dir for the
// duration of the test, across the platforms os.UserConfigDir consults.
func useConfigDir(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	t.Setenv("AppData", dir)

	return dir
}

func TestGlobalKey(t *testing.T) {
	key := GlobalKey()
	require.Len(t, key, format.KeySize)

	// Deterministic within a process.
	require.Equal(t, key, GlobalKey())

	// The XOR mask must actually do something: neither all zero nor the
	// bare salt.
	require.NotEqual(t, make([]byte, format.KeySize), key)
	require.NotEqual(t, globalSalt[:], key)
}

func TestSelect(t *testing.T) {
	useConfigDir(t)

	key, err := Select(true)
	require.NoError(t, err)
	require.Equal(t, GlobalKey(), key)

	key, err = Select(false)
	require.NoError(t, err)
	require.Len(t, key, format.KeySize)
	require.NotEqual(t, GlobalKey(), key)
}

func TestMachineKey_CreatesOnFirstAccess(t *testing.T) {
	dir := useConfigDir(t)

	key, err := MachineKey()
	require.NoError(t, err)
	require.Len(t, key, format.KeySize)

	path, err := machineKeyPath()
	require.NoError(t, err)
	require.True(t, filepath.IsAbs(path))
	require.Equal(t, machineKeyFile, filepath.Base(path))
	require.Contains(t, path, dir)

	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, key, onDisk)

	// No temp residue.
	_, err = os.Lstat(path + format.TempSuffix)
	require.True(t, os.IsNotExist(err))
}

func TestMachineKey_StableAcrossCalls(t *testing.T) {
	useConfigDir(t)

	first, err := MachineKey()
	require.NoError(t, err)

	second, err := MachineKey()
	require.NoError(t, err)
	require.True(t, bytes.Equal(first, second))
}

func TestMachineKey_ReadsExistingVerbatim(t *testing.T) {
	useConfigDir(t)

	path, err := machineKeyPath()
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))

	want := bytes.Repeat([]byte{0xA7}, format.KeySize)
	require.NoError(t, os.WriteFile(path, want, 0o600))

	got, err := MachineKey()
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestMachineKey_DiffersPerInstall(t *testing.T) {
	useConfigDir(t)
	first, err := MachineKey()
	require.NoError(t, err)

	useConfigDir(t)
	second, err := MachineKey()
	require.NoError(t, err)

	require.NotEqual(t, first, second)
}

func TestMachineKey_RejectsTruncatedKeyFile(t *testing.T) {
	useConfigDir(t)

	path, err := machineKeyPath()
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
	require.NoError(t, os.WriteFile(path, []byte("too short"), 0o600))

	_, err = MachineKey()
	require.ErrorIs(t, err, errs.ErrInvalidKey)
}

func TestProgramID_NeverEmpty(t *testing.T) {
	require.NotEmpty(t, programID())
}
