package msh

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// codec reads and writes fixed-width integers and IEEE floats in a single
// byte order. The order and the size_t width come from the file header, not
// from package state, so concurrent reads with different source layouts
// cannot interfere.
type codec struct {
	order    binary.ByteOrder
	dataSize int // byte width of size_t-typed fields, from the header
}

// nativeOrder is the byte order files are assumed to be written in. The
// header's probe integer verifies the assumption; a mismatch is fatal.
var nativeOrder binary.ByteOrder = binary.LittleEndian

func newCodec(dataSize int) codec {
	return codec{order: nativeOrder, dataSize: dataSize}
}

func (c codec) readInt(r *reader, width int) (int64, error) {
	buf := make([]byte, width)
	if err := r.readFull(buf); err != nil {
		return 0, err
	}
	return c.decodeInt(buf)
}

func (c codec) decodeInt(buf []byte) (int64, error) {
	switch len(buf) {
	case 1:
		return int64(int8(buf[0])), nil
	case 2:
		return int64(int16(c.order.Uint16(buf))), nil
	case 4:
		return int64(int32(c.order.Uint32(buf))), nil
	case 8:
		return int64(c.order.Uint64(buf)), nil
	}
	return 0, fmt.Errorf("unsupported integer width %d", len(buf))
}

// readSize reads one size_t-typed field at the header-declared width.
func (c codec) readSize(r *reader) (int64, error) {
	return c.readInt(r, c.dataSize)
}

func (c codec) readFloat(r *reader, width int) (float64, error) {
	buf := make([]byte, width)
	if err := r.readFull(buf); err != nil {
		return 0, err
	}
	switch width {
	case 4:
		return float64(math.Float32frombits(c.order.Uint32(buf))), nil
	case 8:
		return math.Float64frombits(c.order.Uint64(buf)), nil
	}
	return 0, fmt.Errorf("unsupported float width %d", width)
}

func (c codec) writeInt(w io.Writer, width int, v int64) error {
	buf := make([]byte, width)
	switch width {
	case 1:
		buf[0] = byte(v)
	case 2:
		c.order.PutUint16(buf, uint16(v))
	case 4:
		c.order.PutUint32(buf, uint32(v))
	case 8:
		c.order.PutUint64(buf, uint64(v))
	default:
		return fmt.Errorf("unsupported integer width %d", width)
	}
	_, err := w.Write(buf)
	return err
}

func (c codec) writeSize(w io.Writer, v int64) error {
	return c.writeInt(w, c.dataSize, v)
}

func (c codec) writeFloat(w io.Writer, width int, v float64) error {
	buf := make([]byte, width)
	switch width {
	case 4:
		c.order.PutUint32(buf, math.Float32bits(float32(v)))
	case 8:
		c.order.PutUint64(buf, math.Float64bits(v))
	default:
		return fmt.Errorf("unsupported float width %d", width)
	}
	_, err := w.Write(buf)
	return err
}
