// Package envelope implements the signed on-disk container for helix
// snapshots: the fixed 51-byte header, the opaque payload, and the trailing
// HMAC-SHA256 tag.
//
// Decode validates a candidate file in a fixed order — length, magic,
// version, flags, type digest, framing, MAC — and rejects with a specific
// sentinel from the errs package at the first failing check. No byte of the
// payload is interpreted before the MAC verifies, and the flags byte is only
// consulted to pick a decompression path after verification. The digest and
// MAC comparisons are constant-time.
//
// The MAC covers version ‖ flags ‖ type digest ‖ timestamp ‖ payload.
// Signing flags prevents flipping the compression bit to steer the decoder
// into codec-level crash paths on untrusted bytes; signing the timestamp
// lets callers detect rollback-by-rewind. Magic and payload length are
// excluded: the former is a constant and the latter is implied by the signed
// payload together with the framing check.
package envelope
