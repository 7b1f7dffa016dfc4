package msh

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodec(t *testing.T) {
	{ // Integer round trip across widths and byte orders
		for _, order := range []binary.ByteOrder{binary.LittleEndian, binary.BigEndian} {
			for _, width := range []int{1, 2, 4, 8} {
				c := codec{order: order, dataSize: width}
				var buf bytes.Buffer
				require.NoError(t, c.writeInt(&buf, width, 1))
				require.NoError(t, c.writeInt(&buf, width, -5))
				assert.Equal(t, 2*width, buf.Len())

				r := newReader(&buf)
				v, err := c.readInt(r, width)
				require.NoError(t, err)
				assert.Equal(t, int64(1), v)
				v, err = c.readInt(r, width)
				require.NoError(t, err)
				assert.Equal(t, int64(-5), v)
				assert.Equal(t, int64(2*width), r.offset())
			}
		}
	}
	{ // size_t fields honor the header data size, not a codec constant
		c := codec{order: binary.LittleEndian, dataSize: 8}
		var buf bytes.Buffer
		require.NoError(t, c.writeSize(&buf, 1234567890123))
		assert.Equal(t, 8, buf.Len())
		v, err := c.readSize(newReader(&buf))
		require.NoError(t, err)
		assert.Equal(t, int64(1234567890123), v)

		c = codec{order: binary.LittleEndian, dataSize: 4}
		buf.Reset()
		require.NoError(t, c.writeSize(&buf, 4096))
		assert.Equal(t, 4, buf.Len())
		v, err = c.readSize(newReader(&buf))
		require.NoError(t, err)
		assert.Equal(t, int64(4096), v)
	}
	{ // Float round trip, both widths
		c := codec{order: binary.BigEndian, dataSize: 8}
		var buf bytes.Buffer
		require.NoError(t, c.writeFloat(&buf, 8, -7.100939331382065))
		require.NoError(t, c.writeFloat(&buf, 4, 0.5))
		r := newReader(&buf)
		v, err := c.readFloat(r, 8)
		require.NoError(t, err)
		assert.Equal(t, -7.100939331382065, v)
		v, err = c.readFloat(r, 4)
		require.NoError(t, err)
		assert.Equal(t, 0.5, v)
	}
	{ // Short stream fails with TruncatedInputError, reporting the shortfall
		c := codec{order: binary.LittleEndian, dataSize: 4}
		r := newReader(bytes.NewReader([]byte{0x01, 0x00}))
		_, err := c.readInt(r, 4)
		var te *TruncatedInputError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, 4, te.Want)
		assert.Equal(t, 2, te.Got)
		assert.Equal(t, int64(0), te.Offset)
	}
}
