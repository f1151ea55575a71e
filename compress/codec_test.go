package compress

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/helixsave/helix/format"
)

func TestGetCodec(t *testing.T) {
	c, err := GetCodec(format.CompressionNone)
	require.NoError(t, err)
	require.IsType(t, NoOpCodec{}, c)

	c, err = GetCodec(format.CompressionLZ4)
	require.NoError(t, err)
	require.IsType(t, LZ4Codec{}, c)

	_, err = GetCodec(format.CompressionType(0x7))
	require.Error(t, err)
}

func TestNoOpCodec_PassesThrough(t *testing.T) {
	c := NewNoOpCodec()
	data := []byte("untouched")

	comp, err := c.Compress(data)
	require.NoError(t, err)
	require.Equal(t, data, comp)

	got, err := c.Decompress(comp)
	require.NoError(t, err)
	require.Equal(t, data, got)
}
