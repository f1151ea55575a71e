package envelope

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/helixsave/helix/errs"
	"github.com/helixsave/helix/format"
)

var (
	testDigest = sha256.Sum256([]byte("github.com/helixsave/helix/envelope.testType"))
	testKey    = bytes.Repeat([]byte{0x42}, format.KeySize)
	otherKey   = bytes.Repeat([]byte{0x43}, format.KeySize)
)

func TestEncodeDecode_RoundTrip(t *testing.T) {
	payload := []byte("hello, snapshot")

	for _, flags := range []byte{0, format.FlagCompressed} {
		env, err := Encode(testDigest, payload, flags, testKey)
		require.NoError(t, err)
		require.Len(t, env, format.HeaderSize+len(payload)+format.TagSize)

		got, gotFlags, ts, err := Decode(env, testDigest, testKey)
		require.NoError(t, err)
		require.Equal(t, payload, got)
		require.Equal(t, flags, gotFlags)
		require.Positive(t, ts)
	}
}

func TestEncodeAt_StoresGivenTimestamp(t *testing.T) {
	env, err := encodeAt(testDigest, []byte("x"), 0, testKey, 1234567890)
	require.NoError(t, err)

	_, _, ts, err := Decode(env, testDigest, testKey)
	require.NoError(t, err)
	require.Equal(t, int64(1234567890), ts)
}

func TestEncode_Validation(t *testing.T) {
	payload := []byte("p")

	_, err := Encode(testDigest, payload, 0, []byte("short"))
	require.ErrorIs(t, err, errs.ErrInvalidKey)

	_, err = Encode(testDigest, payload, 0x02, testKey)
	require.ErrorIs(t, err, errs.ErrBadFlags)

	_, err = Encode(testDigest, nil, 0, testKey)
	require.ErrorIs(t, err, errs.ErrEmptyPayload)
}

func TestDecode_RejectsInOrder(t *testing.T) {
	env, err := Encode(testDigest, []byte("payload bytes"), 0, testKey)
	require.NoError(t, err)

	mutate := func(fn func(b []byte) []byte) []byte {
		b := append([]byte(nil), env...)
		return fn(b)
	}

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{
			name: "too short",
			data: env[:format.MinEnvelopeSize-1],
			want: errs.ErrTooShort,
		},
		{
			name: "bad magic",
			data: mutate(func(b []byte) []byte { b[0] = '!'; return b }),
			want: errs.ErrBadMagic,
		},
		{
			name: "bad version",
			data: mutate(func(b []byte) []byte {
				binary.LittleEndian.PutUint16(b[format.VersionOffset:], 2)
				return b
			}),
			want: errs.ErrBadVersion,
		},
		{
			name: "reserved flags",
			data: mutate(func(b []byte) []byte { b[format.FlagsOffset] |= 0x80; return b }),
			want: errs.ErrBadFlags,
		},
		{
			name: "truncated payload",
			data: env[:len(env)-1],
			want: errs.ErrFramingMismatch,
		},
		{
			name: "inflated length field",
			data: mutate(func(b []byte) []byte {
				binary.LittleEndian.PutUint32(b[format.PayloadLenOffset:], 9999)
				return b
			}),
			want: errs.ErrFramingMismatch,
		},
		{
			name: "flipped payload byte",
			data: mutate(func(b []byte) []byte { b[format.PayloadOffset] ^= 0xFF; return b }),
			want: errs.ErrMacFailed,
		},
		{
			name: "flipped tag byte",
			data: mutate(func(b []byte) []byte { b[len(b)-1] ^= 0x01; return b }),
			want: errs.ErrMacFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, _, err := Decode(tt.data, testDigest, testKey)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDecode_TypeMismatch(t *testing.T) {
	env, err := Encode(testDigest, []byte("payload"), 0, testKey)
	require.NoError(t, err)

	other := sha256.Sum256([]byte("github.com/helixsave/helix/envelope.otherType"))
	_, _, _, err = Decode(env, other, testKey)
	require.ErrorIs(t, err, errs.ErrTypeMismatch)
}

func TestDecode_WrongKey(t *testing.T) {
	env, err := Encode(testDigest, []byte("payload"), 0, testKey)
	require.NoError(t, err)

	_, _, _, err = Decode(env, testDigest, otherKey)
	require.ErrorIs(t, err, errs.ErrMacFailed)
}

// Every single-byte modification anywhere in the file must reject, and must
// reject as a content rejection rather than an I/O error.
func TestDecode_TamperSweep(t *testing.T) {
	env, err := Encode(testDigest, []byte("tamper sweep payload"), format.FlagCompressed, testKey)
	require.NoError(t, err)

	_, _, _, err = Decode(env, testDigest, testKey)
	require.NoError(t, err)

	for i := range env {
		for _, delta := range []byte{0x01, 0x80, 0xFF} {
			tampered := append([]byte(nil), env...)
			tampered[i] ^= delta

			_, _, _, err := Decode(tampered, testDigest, testKey)
			require.Errorf(t, err, "offset %d delta %#x accepted", i, delta)
			require.Truef(t, errs.IsRejection(err), "offset %d delta %#x: %v", i, delta, err)
		}
	}
}

func TestHeader_RoundTrip(t *testing.T) {
	hdr := Header{
		Version:    format.Version,
		Flags:      format.FlagCompressed,
		TypeDigest: testDigest,
		Timestamp:  987654321,
		PayloadLen: 77,
	}

	b := hdr.Bytes()
	require.Len(t, b, format.HeaderSize)
	require.Equal(t, format.Magic, string(b[:format.MagicSize]))

	// Pad to the minimum parseable length; Parse only looks at the header.
	padded := append(b, make([]byte, format.TagSize)...)

	got, err := ParseHeader(padded)
	require.NoError(t, err)
	require.Equal(t, hdr, got)
	require.True(t, got.Compressed())
	require.Equal(t, int64(987654321), got.TimestampAsTime().UnixNano())
}

func TestParseHeader_TooShort(t *testing.T) {
	_, err := ParseHeader([]byte(format.Magic))
	require.ErrorIs(t, err, errs.ErrTooShort)
}
