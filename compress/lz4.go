package compress

import (
	"encoding/binary"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/pierrec/lz4/v4"
)

const (
	// lz4BlockSize is the input window each block covers. 64 KiB keeps the
	// per-block decompression buffer small while staying large enough that
	// the 8-byte block header is negligible.
	lz4BlockSize = 64 * 1024

	lz4BlockHeaderSize = 8

	// lz4MaxDecodedSize caps the total decoded output. The envelope format
	// bounds payloads to ~2 GiB, so anything claiming more is corrupt.
	lz4MaxDecodedSize = 1 << 31
)

var (
	// ErrLZ4Framing indicates a malformed block-array framing: a truncated
	// block header, an out-of-range length field, or trailing garbage.
	ErrLZ4Framing = errors.New("malformed LZ4 block-array framing")
)

// lz4CompressorPool pools lz4.Compressor instances for reuse.
// The lz4.Compressor maintains internal state that benefits from reuse.
var lz4CompressorPool = sync.Pool{
	New: func() any {
		return &lz4.Compressor{}
	},
}

// LZ4Codec implements the block-array LZ4 framing described in the package
// documentation.
type LZ4Codec struct{}

var _ Codec = (*LZ4Codec)(nil)

// NewLZ4Codec creates a new block-array LZ4 codec.
func NewLZ4Codec() LZ4Codec {
	return LZ4Codec{}
}

// Compress compresses the input into a sequence of independently
// decompressible LZ4 blocks over 64 KiB input windows.
//
// Windows that do not shrink under LZ4 are stored verbatim with a zero
// compressed-length marker, so the output never grows by more than the
// per-block header overhead.
func (c LZ4Codec) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	lc, _ := lz4CompressorPool.Get().(*lz4.Compressor)
	defer lz4CompressorPool.Put(lc)

	blockCount := (len(data) + lz4BlockSize - 1) / lz4BlockSize
	out := make([]byte, 0, len(data)+blockCount*lz4BlockHeaderSize)
	dst := make([]byte, lz4.CompressBlockBound(lz4BlockSize))

	for off := 0; off < len(data); off += lz4BlockSize {
		end := off + lz4BlockSize
		if end > len(data) {
			end = len(data)
		}
		window := data[off:end]

		n, err := lc.CompressBlock(window, dst)
		if err != nil {
			return nil, err
		}

		out = binary.LittleEndian.AppendUint32(out, uint32(len(window)))
		if n == 0 || n >= len(window) {
			// Incompressible window, store raw.
			out = binary.LittleEndian.AppendUint32(out, 0)
			out = append(out, window...)
		} else {
			out = binary.LittleEndian.AppendUint32(out, uint32(n))
			out = append(out, dst[:n]...)
		}
	}

	return out, nil
}

// Decompress reverses Compress. Every block is validated against the framing
// rules before lz4.UncompressBlock sees a single byte, and the decoded total
// is capped so corrupt length fields cannot exhaust memory.
func (c LZ4Codec) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	out := make([]byte, 0, len(data)*3)

	for off := 0; off < len(data); {
		if len(data)-off < lz4BlockHeaderSize {
			return nil, errors.Wrap(ErrLZ4Framing, "truncated block header")
		}

		rawLen := int(binary.LittleEndian.Uint32(data[off:]))
		compLen := int(binary.LittleEndian.Uint32(data[off+4:]))
		off += lz4BlockHeaderSize

		if rawLen <= 0 || rawLen > lz4BlockSize {
			return nil, errors.Wrapf(ErrLZ4Framing, "block raw length %d out of range", rawLen)
		}
		if len(out)+rawLen > lz4MaxDecodedSize {
			return nil, errors.Wrap(ErrLZ4Framing, "decoded size exceeds format limit")
		}

		if compLen == 0 {
			// Raw window.
			if len(data)-off < rawLen {
				return nil, errors.Wrap(ErrLZ4Framing, "truncated raw block")
			}
			out = append(out, data[off:off+rawLen]...)
			off += rawLen

			continue
		}

		if compLen > len(data)-off {
			return nil, errors.Wrapf(ErrLZ4Framing, "block compressed length %d exceeds remaining input", compLen)
		}

		buf := make([]byte, rawLen)
		n, err := lz4.UncompressBlock(data[off:off+compLen], buf)
		if err != nil {
			return nil, err
		}
		if n != rawLen {
			return nil, errors.Wrapf(ErrLZ4Framing, "block decoded to %d bytes, header claims %d", n, rawLen)
		}

		out = append(out, buf[:n]...)
		off += compLen
	}

	return out, nil
}
