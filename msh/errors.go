package msh

import (
	"fmt"
	"strings"
)

// TruncatedInputError reports a stream that ended before a declared-length
// field was fully consumed.
type TruncatedInputError struct {
	Want   int   // bytes required
	Got    int   // bytes actually read
	Offset int64 // stream offset where the read began
}

func (e *TruncatedInputError) Error() string {
	return fmt.Sprintf("truncated input at offset %d: need %d bytes, got %d",
		e.Offset, e.Want, e.Got)
}

// MalformedHeaderError reports a $MeshFormat block whose tokens are missing,
// malformed, or whose sentinel lines do not match.
type MalformedHeaderError struct {
	Line   string // offending line, if any
	Reason string
}

func (e *MalformedHeaderError) Error() string {
	if e.Line == "" {
		return fmt.Sprintf("malformed $MeshFormat block: %s", e.Reason)
	}
	return fmt.Sprintf("malformed $MeshFormat block: %s (line %q)", e.Reason, e.Line)
}

// EndiannessError reports a binary endianness probe that did not decode to 1
// under the assumed byte order. The probe exists exactly to catch this, so a
// mismatch is fatal rather than silently misread.
type EndiannessError struct {
	Got   int64
	Probe []byte
}

func (e *EndiannessError) Error() string {
	return fmt.Sprintf("endianness probe mismatch: decoded %d from % x, want 1",
		e.Got, e.Probe)
}

// UnsupportedVersionError reports a file version (on read) or a requested
// output version (on write) outside the supported table.
type UnsupportedVersionError struct {
	Requested string
	Supported []string
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("unsupported msh version %s (supported: %s)",
		e.Requested, strings.Join(e.Supported, ", "))
}

// MalformedBodyError reports a block-grammar violation in a sub-format body.
type MalformedBodyError struct {
	Block  string // block tag, e.g. "$Nodes"
	Offset int64  // byte offset into the stream, 0 when unknown
	Reason string
}

func (e *MalformedBodyError) Error() string {
	if e.Offset > 0 {
		return fmt.Sprintf("malformed %s block at offset %d: %s", e.Block, e.Offset, e.Reason)
	}
	return fmt.Sprintf("malformed %s block: %s", e.Block, e.Reason)
}

// ArityMismatchError reports cell tuples of inconsistent length within one
// cell type.
type ArityMismatchError struct {
	CellType string
	Want     int
	Got      int
	Cell     int // index of the offending cell within its block
}

func (e *ArityMismatchError) Error() string {
	return fmt.Sprintf("cell %d of type %q has %d nodes, want %d",
		e.Cell, e.CellType, e.Got, e.Want)
}

// DanglingReferenceError reports a cell referencing a node index outside the
// mesh's point list.
type DanglingReferenceError struct {
	CellType  string
	Index     int // the offending node index
	NumPoints int
}

func (e *DanglingReferenceError) Error() string {
	return fmt.Sprintf("cell of type %q references node %d, mesh has %d points",
		e.CellType, e.Index, e.NumPoints)
}
