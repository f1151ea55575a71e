package envelope

import (
	"encoding/binary"
	"time"

	"github.com/helixsave/helix/errs"
	"github.com/helixsave/helix/format"
)

// Header represents the fixed-size header section at the start of an envelope.
type Header struct {
	// Version is the envelope format version, currently 1. byte offset 4-5
	Version uint16
	// Flags is the payload flags byte; bit 0 marks compression. byte offset 6
	Flags byte
	// TypeDigest is the fingerprint of the stored value's type. byte offset 7-38
	TypeDigest [format.DigestSize]byte
	// Timestamp is the write time in nanoseconds since the Unix epoch. byte offset 39-46
	Timestamp int64
	// PayloadLen is the number of payload bytes that follow the header. byte offset 47-50
	PayloadLen int32
}

// Compressed reports whether the payload carries the block-array LZ4 framing.
//
// The flags byte is signed but not yet verified after Parse; callers must
// not act on it before the envelope MAC has been checked.
func (h *Header) Compressed() bool {
	return h.Flags&format.FlagCompressed != 0
}

// TimestampAsTime returns the write time as a time.Time object.
func (h *Header) TimestampAsTime() time.Time {
	return time.Unix(0, h.Timestamp)
}

// Parse parses and validates the header region of data.
//
// It performs the magic, version, and reserved-flag checks and reads the
// remaining fields verbatim. The type digest, framing, and MAC checks are
// the caller's concern, since their inputs (expected type, file length, key)
// live outside the header.
func (h *Header) Parse(data []byte) error {
	if len(data) < format.MinEnvelopeSize {
		return errs.ErrTooShort
	}

	if string(data[format.MagicOffset:format.MagicOffset+format.MagicSize]) != format.Magic {
		return errs.ErrBadMagic
	}

	h.Version = binary.LittleEndian.Uint16(data[format.VersionOffset:])
	if h.Version != format.Version {
		return errs.ErrBadVersion
	}

	h.Flags = data[format.FlagsOffset]
	if h.Flags&format.FlagReservedMask != 0 {
		return errs.ErrBadFlags
	}

	copy(h.TypeDigest[:], data[format.DigestOffset:format.DigestOffset+format.DigestSize])
	h.Timestamp = int64(binary.LittleEndian.Uint64(data[format.TimestampOffset:]))
	h.PayloadLen = int32(binary.LittleEndian.Uint32(data[format.PayloadLenOffset:]))

	return nil
}

// Bytes serializes the Header into a freshly allocated 51-byte slice.
func (h *Header) Bytes() []byte {
	b := make([]byte, format.HeaderSize)
	copy(b[format.MagicOffset:], format.Magic)
	binary.LittleEndian.PutUint16(b[format.VersionOffset:], h.Version)
	b[format.FlagsOffset] = h.Flags
	copy(b[format.DigestOffset:], h.TypeDigest[:])
	binary.LittleEndian.PutUint64(b[format.TimestampOffset:], uint64(h.Timestamp))
	binary.LittleEndian.PutUint32(b[format.PayloadLenOffset:], uint32(h.PayloadLen))

	return b
}

// ParseHeader parses the header region of data into a new Header.
func ParseHeader(data []byte) (Header, error) {
	var h Header
	if err := h.Parse(data); err != nil {
		return Header{}, err
	}

	return h, nil
}
