// Package codec is the object codec behind helix snapshots: MessagePack
// serialization with optional block-array LZ4 compression.
//
// MessagePack satisfies the engine's codec contract: the encoding is
// self-describing (struct fields travel under their field names, so additive
// schema evolution — appending new optional fields — does not break reading
// of older records), the uncompressed stream is usable by any MessagePack
// implementation, and decoding is bounded to a recursion depth of 2048.
// Encoding is not deterministic across implementations and is not required
// to be. Caller types do not need to be exported; the codec reaches
// unexported struct types through reflection like any other.
package codec

import (
	"bytes"
	"reflect"

	"github.com/cockroachdb/errors"
	msgpack "github.com/hashicorp/go-msgpack/v2/codec"

	"github.com/helixsave/helix/compress"
	"github.com/helixsave/helix/errs"
	"github.com/helixsave/helix/format"
	"github.com/helixsave/helix/internal/pool"
)

// msgpackHandle configures encode and decode behavior for all snapshots.
var msgpackHandle = &msgpack.MsgpackHandle{}

func init() {
	msgpackHandle.MapType = reflect.TypeOf(map[string]interface{}{})
	msgpackHandle.RawToString = true
	// Defensive decoding bound for untrusted-but-verified payloads.
	msgpackHandle.MaxDepth = 2048
}

// Marshal encodes v as MessagePack and applies the requested compression.
//
// A serialization failure here is a programmer error (an unencodable type)
// and is propagated unchanged rather than folded into the rejection taxonomy.
func Marshal(v any, compression format.CompressionType) ([]byte, error) {
	buf := pool.GetPayloadBuffer()
	defer pool.PutPayloadBuffer(buf)

	enc := msgpack.NewEncoder(buf, msgpackHandle)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}

	c, err := compress.GetCodec(compression)
	if err != nil {
		return nil, err
	}

	out, err := c.Compress(buf.Bytes())
	if err != nil {
		return nil, errors.Wrap(err, "compress payload")
	}

	// The pooled buffer is recycled on return; hand the caller its own copy
	// when the codec passed the input through.
	if compression == format.CompressionNone {
		out = append([]byte(nil), out...)
	}

	return out, nil
}

// Unmarshal reverses Marshal into v, which must be a non-nil pointer.
//
// data is expected to have passed envelope verification already; failures
// here mean schema drift beyond additive evolution, or a bug, and are
// reported as errs.ErrCodecFailed.
func Unmarshal(data []byte, v any, compression format.CompressionType) error {
	raw, err := Decompress(data, compression)
	if err != nil {
		return err
	}

	dec := msgpack.NewDecoder(bytes.NewReader(raw), msgpackHandle)
	if err := dec.Decode(v); err != nil {
		return errors.Mark(errors.Wrap(err, "msgpack decode"), errs.ErrCodecFailed)
	}

	return nil
}

// Decompress recovers the raw MessagePack stream from a stored payload.
// Framing violations in the compressed form are codec failures.
func Decompress(data []byte, compression format.CompressionType) ([]byte, error) {
	c, err := compress.GetCodec(compression)
	if err != nil {
		return nil, err
	}

	raw, err := c.Decompress(data)
	if err != nil {
		return nil, errors.Mark(err, errs.ErrCodecFailed)
	}

	return raw, nil
}

// CompressionFor maps the envelope flags byte onto a compression type.
// Callers must only pass verified flags.
func CompressionFor(flags byte) format.CompressionType {
	if flags&format.FlagCompressed != 0 {
		return format.CompressionLZ4
	}

	return format.CompressionNone
}
