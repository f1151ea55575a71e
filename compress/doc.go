// Package compress provides the payload compression codecs used inside helix
// envelopes.
//
// Version 1 of the envelope format admits exactly two payload encodings,
// selected by bit 0 of the header flags byte:
//
//   - None: the payload is the raw object-codec stream, interoperable with
//     any implementation of the same encoding family.
//   - LZ4: the payload is a block-array LZ4 framing, a sequence of
//     independently decompressible LZ4 blocks over fixed-size input windows.
//
// The block-array framing is:
//
//	repeat { int32 rawLen | int32 compLen | compLen bytes }
//
// with all integers little-endian. rawLen is the size of the input window
// (64 KiB except for the final block) and compLen the size of the LZ4 block
// that follows. A compLen of zero marks an incompressible window stored
// verbatim, in which case rawLen bytes follow instead.
//
// Codec instances are stateless and safe for concurrent use; LZ4 compressor
// state is pooled internally.
package compress
