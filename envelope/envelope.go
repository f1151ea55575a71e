package envelope

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"math"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/helixsave/helix/errs"
	"github.com/helixsave/helix/format"
)

// Encode seals payload into a version-1 envelope bound to the given type
// digest, stamped with the current wall-clock time, and signed with key.
//
// flags must have all reserved bits clear; payload must be non-empty and
// below the 2 GiB format limit. The returned slice is newly allocated.
func Encode(digest [format.DigestSize]byte, payload []byte, flags byte, key []byte) ([]byte, error) {
	return encodeAt(digest, payload, flags, key, time.Now().UnixNano())
}

// encodeAt is Encode with an explicit timestamp, for deterministic tests.
func encodeAt(digest [format.DigestSize]byte, payload []byte, flags byte, key []byte, ts int64) ([]byte, error) {
	if len(key) != format.KeySize {
		return nil, errors.Wrapf(errs.ErrInvalidKey, "got %d bytes", len(key))
	}
	if flags&format.FlagReservedMask != 0 {
		return nil, errors.Wrapf(errs.ErrBadFlags, "flags 0x%02x", flags)
	}
	if len(payload) == 0 {
		return nil, errs.ErrEmptyPayload
	}
	if len(payload) > math.MaxInt32 {
		return nil, errors.Wrapf(errs.ErrPayloadTooLarge, "%d bytes", len(payload))
	}

	hdr := Header{
		Version:    format.Version,
		Flags:      flags,
		TypeDigest: digest,
		Timestamp:  ts,
		PayloadLen: int32(len(payload)),
	}

	out := make([]byte, 0, format.HeaderSize+len(payload)+format.TagSize)
	out = append(out, hdr.Bytes()...)
	out = append(out, payload...)

	mac := hmac.New(sha256.New, key)
	mac.Write(out[format.SignedStart:format.SignedEnd])
	mac.Write(payload)
	out = mac.Sum(out)

	return out, nil
}

// Decode parses and verifies a candidate envelope.
//
// Checks run in a fixed order and stop at the first failure: length, magic,
// version, reserved flags, type digest, framing, MAC. The digest and MAC
// comparisons are constant-time. Only after the MAC verifies may the caller
// trust the returned flags to pick a decompression path.
//
// The returned payload aliases data; callers that retain it past the
// lifetime of data must copy.
func Decode(data []byte, digest [format.DigestSize]byte, key []byte) (payload []byte, flags byte, timestamp int64, err error) {
	if len(key) != format.KeySize {
		return nil, 0, 0, errors.Wrapf(errs.ErrInvalidKey, "got %d bytes", len(key))
	}

	var hdr Header
	if err := hdr.Parse(data); err != nil {
		return nil, 0, 0, err
	}

	if subtle.ConstantTimeCompare(hdr.TypeDigest[:], digest[:]) != 1 {
		return nil, 0, 0, errs.ErrTypeMismatch
	}

	if hdr.PayloadLen <= 0 || len(data) != format.HeaderSize+int(hdr.PayloadLen)+format.TagSize {
		return nil, 0, 0, errors.Wrapf(errs.ErrFramingMismatch,
			"declared %d payload bytes in a %d byte file", hdr.PayloadLen, len(data))
	}

	payload = data[format.PayloadOffset : format.PayloadOffset+int(hdr.PayloadLen)]
	tag := data[len(data)-format.TagSize:]

	mac := hmac.New(sha256.New, key)
	mac.Write(data[format.SignedStart:format.SignedEnd])
	mac.Write(payload)
	if !hmac.Equal(mac.Sum(nil), tag) {
		return nil, 0, 0, errs.ErrMacFailed
	}

	return payload, hdr.Flags, hdr.Timestamp, nil
}
