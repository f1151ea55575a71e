// Package helix persists typed application state as single-file, signed,
// optionally-compressed binary snapshots.
//
// A save serializes the value with MessagePack, optionally compresses it
// with block-array LZ4, seals it into an envelope carrying a type digest,
// a timestamp, and an HMAC-SHA256 tag, and publishes it with an atomic
// temp-write-then-replace protocol that survives power loss. A load
// verifies magic, version, flags, type binding, framing, and MAC before a
// single payload byte is interpreted, and falls back to the ".bak" sibling
// when the primary is rejected or missing.
//
// # Basic Usage
//
//	type settings struct {
//	    Gold int    `codec:"gold"`
//	    Name string `codec:"name"`
//	}
//
//	err := helix.Save("save.hlx", settings{Gold: 42, Name: "Ada"})
//	...
//	s := helix.LoadOrNew[settings]("save.hlx")
//
// # Key Modes
//
// Snapshots are signed with one of two 32-byte keys: the global key
// (compiled in, identical everywhere, the default) makes files portable
// across installs; the machine key (random, per install) binds files to the
// machine that wrote them. Select with WithPortable.
//
// # Concurrency
//
// The engine is synchronous, performs blocking I/O inline, and provides no
// mutual exclusion: concurrent saves to the same path must be serialized by
// the caller, e.g. with the pathlock package. A save racing a load on the
// same path is safe — the atomic replace guarantees the load observes
// either the old or the new bytes, never a torn state.
package helix

import (
	"crypto/subtle"
	"os"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/helixsave/helix/codec"
	"github.com/helixsave/helix/durable"
	"github.com/helixsave/helix/envelope"
	"github.com/helixsave/helix/errs"
	"github.com/helixsave/helix/fingerprint"
	"github.com/helixsave/helix/format"
	"github.com/helixsave/helix/keystore"
)

// Save serializes value, seals it into a signed envelope bound to T, and
// durably replaces the file at path.
//
// Defaults: portable key, backup kept, payload compressed. Only I/O and
// argument errors come back wrapped; a serialization failure is a
// programmer error and is propagated unchanged.
func Save[T any](path string, value T, opts ...Option) error {
	cfg := applyOptions(opts)

	payload, err := codec.Marshal(value, cfg.compression())
	if err != nil {
		return err
	}

	return seal(path, payload, fingerprint.Of[T](), cfg.flags(), cfg)
}

// SavePayload seals an already-serialized payload under type T. It exists
// for callers that serialize on one goroutine and write on another; payload
// must be the output of a previous Marshal (or ExtractRawPayload) for T,
// and compressed must state whether payload carries the block-array LZ4
// framing.
func SavePayload[T any](path string, payload []byte, compressed bool, opts ...Option) error {
	cfg := applyOptions(opts)

	var flags byte
	if compressed {
		flags = format.FlagCompressed
	}

	return seal(path, payload, fingerprint.Of[T](), flags, cfg)
}

func seal(path string, payload []byte, digest [format.DigestSize]byte, flags byte, cfg *config) error {
	key, err := keystore.Select(cfg.portable)
	if err != nil {
		return err
	}

	env, err := envelope.Encode(digest, payload, flags, key)
	if err != nil {
		return err
	}

	if err := durable.WriteFile(path, env, cfg.backup); err != nil {
		return errors.Mark(err, errs.ErrIoFailed)
	}

	cfg.logger.Debug("snapshot saved",
		zap.String("path", path),
		zap.Int("bytes", len(env)),
		zap.Bool("portable", cfg.portable),
		zap.Bool("compressed", flags&format.FlagCompressed != 0))

	return nil
}

// LoadOrNew loads the snapshot at path as a T. Every failure — absent file,
// rejected envelope, codec drift, unreadable disk — collapses to a freshly
// constructed zero value after the ".bak" sibling has been tried, on the
// principle that a corrupt save must never take down the application.
// Callers cannot distinguish "absent" from "rejected" here; enable a logger
// with WithLogger for diagnostics.
func LoadOrNew[T any](path string, opts ...Option) T {
	v, err := LoadOrFail[T](path, opts...)
	if err != nil {
		var zero T
		return zero
	}

	return v
}

// LoadOrFail loads the snapshot at path as a T, trying the ".bak" sibling
// when the primary is absent or rejected. When neither file exists the
// error matches errs.ErrNotFound; any other failure surfaces as a load
// failure wrapping the primary's rejection reason, or the backup's when the
// primary is absent.
func LoadOrFail[T any](path string, opts ...Option) (T, error) {
	var zero T

	cfg := applyOptions(opts)

	key, err := keystore.Select(cfg.portable)
	if err != nil {
		return zero, err
	}

	digest := fingerprint.Of[T]()

	v, primaryErr := loadValue[T](path, digest, key)
	if primaryErr == nil {
		return v, nil
	}
	cfg.logger.Debug("primary snapshot rejected",
		zap.String("path", path), zap.Error(primaryErr))

	backup := path + format.BackupSuffix
	v, backupErr := loadValue[T](backup, digest, key)
	if backupErr == nil {
		cfg.logger.Debug("recovered snapshot from backup", zap.String("path", backup))
		return v, nil
	}
	cfg.logger.Debug("backup snapshot rejected",
		zap.String("path", backup), zap.Error(backupErr))

	if errors.Is(primaryErr, errs.ErrNotFound) && errors.Is(backupErr, errs.ErrNotFound) {
		return zero, errors.Wrapf(errs.ErrNotFound, "%s", path)
	}

	reason := primaryErr
	if errors.Is(primaryErr, errs.ErrNotFound) {
		reason = backupErr
	}

	return zero, errors.Wrapf(reason, "load snapshot %s", path)
}

// loadValue runs the full read → parse → verify → decode pipeline for one file.
func loadValue[T any](path string, digest [format.DigestSize]byte, key []byte) (T, error) {
	var zero T

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return zero, errors.Mark(err, errs.ErrNotFound)
		}

		return zero, errors.Mark(err, errs.ErrIoFailed)
	}

	payload, flags, _, err := envelope.Decode(data, digest, key)
	if err != nil {
		return zero, err
	}

	var v T
	if err := codec.Unmarshal(payload, &v, codec.CompressionFor(flags)); err != nil {
		return zero, err
	}

	return v, nil
}

// ExtractRawPayload returns the snapshot's payload in its uncompressed,
// interoperable MessagePack form.
//
// When the file is stored uncompressed this strips the header and trailer
// after the structural checks alone — the MAC is deliberately not verified,
// because uncompressed mode is advertised as open for external extraction.
// When the file is stored compressed the envelope is fully verified first
// and the payload decompressed before being returned.
func ExtractRawPayload[T any](path string, opts ...Option) ([]byte, error) {
	cfg := applyOptions(opts)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Mark(err, errs.ErrNotFound)
		}

		return nil, errors.Mark(err, errs.ErrIoFailed)
	}

	hdr, err := envelope.ParseHeader(data)
	if err != nil {
		return nil, err
	}

	digest := fingerprint.Of[T]()
	if subtle.ConstantTimeCompare(hdr.TypeDigest[:], digest[:]) != 1 {
		return nil, errs.ErrTypeMismatch
	}

	if !hdr.Compressed() {
		// Fast path: structural checks only, no MAC.
		if hdr.PayloadLen <= 0 || len(data) != format.HeaderSize+int(hdr.PayloadLen)+format.TagSize {
			return nil, errs.ErrFramingMismatch
		}

		payload := data[format.PayloadOffset : format.PayloadOffset+int(hdr.PayloadLen)]

		return append([]byte(nil), payload...), nil
	}

	key, err := keystore.Select(cfg.portable)
	if err != nil {
		return nil, err
	}

	payload, _, _, err := envelope.Decode(data, digest, key)
	if err != nil {
		return nil, err
	}

	return codec.Decompress(payload, format.CompressionLZ4)
}

// ReadHeader parses the envelope header at path without verifying the MAC.
// It serves diagnostics and the repair tooling; nothing the header reports
// is trustworthy until a full load succeeds.
func ReadHeader(path string) (envelope.Header, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return envelope.Header{}, errors.Mark(err, errs.ErrNotFound)
		}

		return envelope.Header{}, errors.Mark(err, errs.ErrIoFailed)
	}

	return envelope.ParseHeader(data)
}
