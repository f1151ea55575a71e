// Package format defines the on-disk envelope layout constants shared by the
// envelope, codec, and repair tooling.
//
// The envelope is a contiguous byte string with three regions:
//
//	header (51 bytes, little-endian) | payload | tag (32 bytes)
//
// Header layout, by byte offset:
//
//	[0,4)   magic, ASCII "%HLX"
//	[4,6)   uint16 format version, currently 1
//	[6]     flags byte, bit 0 = payload compressed, other bits reserved zero
//	[7,39)  32-byte type digest
//	[39,47) int64 timestamp, nanoseconds since the Unix epoch
//	[47,51) int32 payload length, strictly positive
//
// The trailing tag is HMAC-SHA256 over version ‖ flags ‖ type digest ‖
// timestamp ‖ payload, i.e. header bytes [4,47) followed by the payload.
// Magic and payload length are excluded: magic is a constant and the payload
// length is implied by the signed payload itself.
//
// The timestamp unit is a portability decision: the slot is 8 bytes
// little-endian signed, and this implementation stamps Unix nanoseconds.
// A peer using a different epoch convention only needs a unit conversion.
package format

// CompressionType identifies the payload compression applied inside an envelope.
type CompressionType uint8

const (
	CompressionNone CompressionType = 0x0 // CompressionNone stores the raw codec stream.
	CompressionLZ4  CompressionType = 0x1 // CompressionLZ4 stores a block-array LZ4 framing.
)

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}

// Envelope constants.
const (
	Magic   = "%HLX" // file magic, first four bytes of every envelope
	Version = uint16(1)

	FlagCompressed   = byte(0x01) // bit 0: payload is block-array LZ4 compressed
	FlagReservedMask = byte(0xFE) // all other bits must be zero in version 1

	MagicSize  = 4
	DigestSize = 32 // SHA-256 type digest
	TagSize    = 32 // HMAC-SHA256 tag
	KeySize    = 32 // HMAC key material
	HeaderSize = 51

	// MinEnvelopeSize is the smallest length the parser will look at.
	// A file of exactly this size still fails the framing check, since the
	// payload length must be strictly positive.
	MinEnvelopeSize = HeaderSize + TagSize
)

// Header field offsets in bytes.
const (
	MagicOffset      = 0
	VersionOffset    = 4
	FlagsOffset      = 6
	DigestOffset     = 7
	TimestampOffset  = 39
	PayloadLenOffset = 47
	PayloadOffset    = HeaderSize

	// SignedStart and SignedEnd bound the header region covered by the MAC.
	SignedStart = VersionOffset
	SignedEnd   = HeaderSize - 4
)

// Sibling file suffixes next to a user-named target.
const (
	TempSuffix   = ".tmp" // transient, exists only during a write
	BackupSuffix = ".bak" // previous good copy, opt-in
)
