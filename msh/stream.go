package msh

import (
	"bufio"
	"io"
	"strings"
)

// reader wraps a buffered stream and tracks how many bytes have been
// consumed, so errors can report a byte offset without the underlying stream
// supporting Seek.
type reader struct {
	br  *bufio.Reader
	off int64
}

func newReader(r io.Reader) *reader {
	return &reader{br: bufio.NewReader(r)}
}

func (r *reader) offset() int64 {
	return r.off
}

// readLine returns the next line with its trailing newline stripped. A final
// unterminated line is returned without error; io.EOF is reported only when
// no bytes remain.
func (r *reader) readLine() (string, error) {
	line, err := r.br.ReadString('\n')
	r.off += int64(len(line))
	if err == io.EOF && len(line) > 0 {
		err = nil
	}
	if err != nil {
		return "", err
	}
	line = strings.TrimRight(line, "\n")
	line = strings.TrimRight(line, "\r")
	return line, nil
}

// readFull fills buf or fails with a TruncatedInputError.
func (r *reader) readFull(buf []byte) error {
	start := r.off
	n, err := io.ReadFull(r.br, buf)
	r.off += int64(n)
	if err != nil {
		return &TruncatedInputError{Want: len(buf), Got: n, Offset: start}
	}
	return nil
}

func (r *reader) readByte() (byte, error) {
	b, err := r.br.ReadByte()
	if err == nil {
		r.off++
	}
	return b, err
}
