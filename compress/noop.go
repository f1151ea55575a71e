package compress

// NoOpCodec bypasses data without compression. It backs the uncompressed
// envelope mode, where the payload must stay byte-for-byte interoperable
// with external readers of the object-codec stream.
type NoOpCodec struct{}

var _ Codec = (*NoOpCodec)(nil)

// NewNoOpCodec creates a codec that passes data through untouched.
func NewNoOpCodec() NoOpCodec {
	return NoOpCodec{}
}

// Compress returns the input slice as-is, without copying.
//
// Note: the returned slice shares the input's underlying memory. Callers
// must not modify the input afterwards if they use the returned slice.
func (c NoOpCodec) Compress(data []byte) ([]byte, error) {
	return data, nil
}

// Decompress returns the input slice as-is, without copying.
func (c NoOpCodec) Decompress(data []byte) ([]byte, error) {
	return data, nil
}
