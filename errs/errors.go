// Package errs defines the sentinel errors shared across helix packages.
//
// Every rejection reason a loader can observe maps to exactly one sentinel,
// so callers can classify failures with errors.Is regardless of how many
// layers wrapped the error on the way up.
package errs

import "github.com/cockroachdb/errors"

var (
	// ErrNotFound indicates the snapshot file does not exist. From the
	// loaders (LoadOrFail) it means neither the file nor its backup exists.
	ErrNotFound = errors.New("snapshot not found")

	// ErrTooShort indicates the file is shorter than the minimum envelope size.
	ErrTooShort = errors.New("file shorter than minimum envelope size")

	// ErrBadMagic indicates the file does not start with the envelope magic.
	ErrBadMagic = errors.New("bad envelope magic")

	// ErrBadVersion indicates the envelope format version is not supported.
	ErrBadVersion = errors.New("unsupported envelope version")

	// ErrBadFlags indicates reserved flag bits are set.
	ErrBadFlags = errors.New("reserved envelope flag bits set")

	// ErrTypeMismatch indicates the stored type digest does not match the
	// caller's expected type.
	ErrTypeMismatch = errors.New("type digest mismatch")

	// ErrFramingMismatch indicates the declared payload length is inconsistent
	// with the file length.
	ErrFramingMismatch = errors.New("payload length inconsistent with file length")

	// ErrMacFailed indicates tag verification failed. It covers tampering,
	// a wrong key, and corruption the framing checks did not catch.
	ErrMacFailed = errors.New("envelope MAC verification failed")

	// ErrCodecFailed indicates the payload failed to decode after the MAC
	// verified, i.e. schema drift beyond additive evolution or a bug.
	ErrCodecFailed = errors.New("payload decode failed")

	// ErrEmptyPayload indicates an attempt to seal a zero-length payload.
	ErrEmptyPayload = errors.New("empty payload")

	// ErrPayloadTooLarge indicates the payload exceeds the 2 GiB format limit.
	ErrPayloadTooLarge = errors.New("payload exceeds format size limit")

	// ErrInvalidKey indicates key material of the wrong size.
	ErrInvalidKey = errors.New("HMAC key must be 32 bytes")

	// ErrIoFailed marks an underlying I/O error, as opposed to a content
	// rejection. The wrapped cause carries the syscall detail.
	ErrIoFailed = errors.New("snapshot I/O failed")
)

// IsRejection reports whether err is a content rejection rather than an I/O
// failure, i.e. the file was read but refused by the envelope checks.
func IsRejection(err error) bool {
	for _, sentinel := range []error{
		ErrTooShort, ErrBadMagic, ErrBadVersion, ErrBadFlags,
		ErrTypeMismatch, ErrFramingMismatch, ErrMacFailed, ErrCodecFailed,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}

	return false
}
