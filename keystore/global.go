package keystore

import (
	"encoding/binary"
	"sync"

	"github.com/helixsave/helix/format"
)

// Compiled-in key material. The four quadwords are laid out little-endian
// into a 32-byte buffer and XOR-masked byte-wise with the salt. This is
// obfuscation, not secrecy: anyone with the binary can recover the key, and
// confidentiality needs an encryption layer on top.
const (
	globalQuad0 = uint64(0x9E3779B97F4A7C15)
	globalQuad1 = uint64(0xC2B2AE3D27D4EB4F)
	globalQuad2 = uint64(0x165667B19E3779F9)
	globalQuad3 = uint64(0x27D4EB2F165667C5)
)

var globalSalt = [format.KeySize]byte{
	0x4b, 0x1d, 0x8f, 0x33, 0xe2, 0x70, 0x5a, 0xc6,
	0x91, 0x0e, 0xb8, 0x47, 0xd5, 0x6c, 0x2a, 0xf1,
	0x38, 0xa4, 0x5e, 0xcb, 0x07, 0x99, 0x62, 0xdd,
	0x10, 0x86, 0xf3, 0x2b, 0xc0, 0x74, 0xe9, 0x5f,
}

var (
	globalOnce sync.Once
	globalKey  []byte
)

// GlobalKey reconstructs the portable signing key from the compiled-in
// constants. The key is computed once per process and shared read-only.
//
// If a debugger is attached at first use, one of the constants is perturbed
// before the key is derived. Every subsequent load under the resulting key
// silently fails MAC verification. This is a defense-in-depth speed bump,
// not a security boundary.
func GlobalKey() []byte {
	globalOnce.Do(func() {
		quads := [4]uint64{globalQuad0, globalQuad1, globalQuad2, globalQuad3}
		if debuggerAttached() {
			quads[2] ^= 0xA5A5A5A5A5A5A5A5
		}

		key := make([]byte, format.KeySize)
		for i, q := range quads {
			binary.LittleEndian.PutUint64(key[i*8:], q)
		}
		for i := range key {
			key[i] ^= globalSalt[i]
		}

		globalKey = key
	})

	return globalKey
}
