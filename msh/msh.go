// Package msh reads and writes Gmsh MSH mesh files. Three incompatible
// sub-formats share the $MeshFormat header: the legacy flat layout of MSH2
// and the entity-grouped layouts of MSH4.0 and MSH4.1. The header names the
// version, the reader for that version consumes the rest of the stream.
//
// The format is documented at
// https://gmsh.info/doc/texinfo/gmsh.html#File-formats
package msh

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/meshfmt/meshfmt/mesh"
)

// formatVersion tags the closed set of supported sub-formats.
type formatVersion int

const (
	fmtMSH2 formatVersion = iota
	fmtMSH40
	fmtMSH41
)

// formatHandler is the capability pair every sub-format implements. read
// consumes the stream after the header; write emits a complete file, header
// included.
type formatHandler interface {
	read(r *reader, hdr header) (*mesh.Mesh, error)
	write(w io.Writer, m *mesh.Mesh, binaryMode bool) error
}

func handlerFor(v formatVersion) formatHandler {
	switch v {
	case fmtMSH40:
		return msh40Format{}
	case fmtMSH41:
		return msh41Format{}
	default:
		return msh2Format{}
	}
}

var supportedReadVersions = []string{"2.x", "4.0", "4.1"}

// resolveVersion maps a header version to a sub-format tag. 4.0 and 4.1 need
// an exact minor-version match; any 2.x resolves to MSH2 by truncation.
func resolveVersion(version float64) (formatVersion, bool) {
	switch version {
	case 4.0:
		return fmtMSH40, true
	case 4.1:
		return fmtMSH41, true
	}
	if math.Trunc(version) == 2 {
		return fmtMSH2, true
	}
	return 0, false
}

// ReadFile reads a Gmsh msh file from disk, auto-detecting the sub-format
// from the header.
func ReadFile(path string) (*mesh.Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

// Read fully consumes r and returns the mesh it describes.
func Read(rd io.Reader) (*mesh.Mesh, error) {
	r := newReader(rd)
	hdr, err := readHeader(r)
	if err != nil {
		return nil, err
	}
	v, ok := resolveVersion(hdr.version)
	if !ok {
		return nil, &UnsupportedVersionError{
			Requested: strconv.FormatFloat(hdr.version, 'g', -1, 64),
			Supported: supportedReadVersions,
		}
	}
	return handlerFor(v).read(r, hdr)
}

// WriteFile writes m to disk in the requested version: "2" for MSH2, "4"
// for MSH4.0, or "4.1" for an explicit MSH4.1 file.
func WriteFile(path string, m *mesh.Mesh, version string, binaryMode bool) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return Write(f, m, version, binaryMode)
}

// Write emits m to w in the requested version. The mesh is validated before
// any byte reaches the stream; a validation failure leaves w untouched.
func Write(w io.Writer, m *mesh.Mesh, version string, binaryMode bool) error {
	var h formatHandler
	switch version {
	case "2":
		h = msh2Format{}
	case "4":
		h = msh40Format{}
	case "4.1":
		h = msh41Format{}
	default:
		return &UnsupportedVersionError{Requested: version, Supported: []string{"2", "4", "4.1"}}
	}
	if err := validateMesh(m); err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	if err := h.write(bw, m, binaryMode); err != nil {
		return err
	}
	return bw.Flush()
}

// validateMesh is the pre-write pass: known cell types, uniform arity,
// in-bounds node references, and data fields shaped to match the mesh.
func validateMesh(m *mesh.Mesh) error {
	for _, cb := range m.Cells {
		et, ok := elementTypeByName(cb.Type)
		if !ok {
			return fmt.Errorf("unknown cell type %q", cb.Type)
		}
		for i, conn := range cb.Conn {
			if len(conn) != et.arity {
				return &ArityMismatchError{CellType: cb.Type, Want: et.arity, Got: len(conn), Cell: i}
			}
			for _, n := range conn {
				if n < 0 || n >= len(m.Points) {
					return &DanglingReferenceError{CellType: cb.Type, Index: n, NumPoints: len(m.Points)}
				}
			}
		}
	}
	for name, vals := range m.PointData {
		if len(vals) != len(m.Points) {
			return fmt.Errorf("point data %q has %d records, mesh has %d points", name, len(vals), len(m.Points))
		}
		if err := uniformWidth(name, vals); err != nil {
			return err
		}
	}
	for cellType, fields := range m.CellData {
		conn := m.CellsOfType(cellType)
		if conn == nil {
			return fmt.Errorf("cell data for absent cell type %q", cellType)
		}
		for name, vals := range fields {
			if len(vals) != len(conn) {
				return fmt.Errorf("cell data %q has %d records, mesh has %d %s cells",
					name, len(vals), len(conn), cellType)
			}
			if err := uniformWidth(name, vals); err != nil {
				return err
			}
		}
	}
	return nil
}

func uniformWidth(name string, vals [][]float64) error {
	if len(vals) == 0 {
		return nil
	}
	w := len(vals[0])
	if w == 0 {
		return fmt.Errorf("data field %q has empty records", name)
	}
	for i, v := range vals {
		if len(v) != w {
			return fmt.Errorf("data field %q record %d has width %d, want %d", name, i, len(v), w)
		}
	}
	return nil
}
