//go:build linux

package keystore

import (
	"bytes"
	"os"
)

// debuggerAttached reports whether a tracer is attached to this process,
// read from the TracerPid field of /proc/self/status.
func debuggerAttached() bool {
	status, err := os.ReadFile("/proc/self/status")
	if err != nil {
		return false
	}

	const field = "TracerPid:"
	idx := bytes.Index(status, []byte(field))
	if idx < 0 {
		return false
	}

	rest := status[idx+len(field):]
	if end := bytes.IndexByte(rest, '\n'); end >= 0 {
		rest = rest[:end]
	}

	pid := bytes.TrimSpace(rest)

	return len(pid) > 0 && !bytes.Equal(pid, []byte("0"))
}
