package msh

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/meshfmt/meshfmt/mesh"
)

// msh2Format is the legacy MSH2 layout: flat, globally id-indexed $Nodes and
// $Elements lists, with 2.x minor versions sharing one grammar. Node ids and
// all element record ints are C ints (4 bytes) in binary mode regardless of
// the header's data-size, which in 2.x declares the width of a double.
type msh2Format struct{}

func (msh2Format) read(r *reader, hdr header) (*mesh.Mesh, error) {
	b := newMeshBuilder()
	c := newCodec(hdr.dataSize)
	for {
		line, err := r.readLine()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		tag := strings.TrimSpace(line)
		if tag == "" {
			continue
		}
		switch tag {
		case "$PhysicalNames":
			err = readPhysicalNames(r, b)
		case "$Nodes":
			err = msh2ReadNodes(r, hdr, c, b)
		case "$Elements":
			err = msh2ReadElements(r, hdr, c, b)
		case "$NodeData":
			var name string
			var ncomp int
			var entries []dataEntry
			if name, ncomp, entries, err = readDataBlock(r, hdr, tag, c); err == nil {
				if derr := b.attachNodeData(name, ncomp, entries); derr != nil {
					err = &MalformedBodyError{Block: tag, Offset: r.offset(), Reason: derr.Error()}
				}
			}
		case "$ElementData":
			var name string
			var ncomp int
			var entries []dataEntry
			if name, ncomp, entries, err = readDataBlock(r, hdr, tag, c); err == nil {
				if derr := b.attachElemData(name, ncomp, entries); derr != nil {
					err = &MalformedBodyError{Block: tag, Offset: r.offset(), Reason: derr.Error()}
				}
			}
		default:
			err = &MalformedBodyError{Block: tag, Offset: r.offset(), Reason: "unexpected block tag"}
		}
		if err != nil {
			return nil, err
		}
	}
	return b.mesh(), nil
}

// expectSentinel consumes the $End... line closing a block, tolerating the
// newline a binary record section leaves in front of it.
func expectSentinel(r *reader, block, sentinel string) error {
	for {
		line, err := r.readLine()
		if err != nil {
			return &MalformedBodyError{Block: block, Offset: r.offset(), Reason: "missing " + sentinel + " sentinel"}
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if trimmed != sentinel {
			return &MalformedBodyError{Block: block, Offset: r.offset(),
				Reason: fmt.Sprintf("expected %s sentinel, got %q", sentinel, trimmed)}
		}
		return nil
	}
}

// readBlockCount reads the single-integer line that opens most blocks.
func readBlockCount(r *reader, block string) (int, error) {
	line, err := r.readLine()
	if err != nil {
		return 0, &MalformedBodyError{Block: block, Offset: r.offset(), Reason: "missing count line"}
	}
	n, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || n < 0 {
		return 0, &MalformedBodyError{Block: block, Offset: r.offset(),
			Reason: fmt.Sprintf("bad count %q", strings.TrimSpace(line))}
	}
	return n, nil
}

// readPhysicalNames parses the $PhysicalNames block, which is ASCII in every
// mode. Shared by all sub-formats: Gmsh never changed this grammar.
func readPhysicalNames(r *reader, b *meshBuilder) error {
	const block = "$PhysicalNames"
	n, err := readBlockCount(r, block)
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		line, err := r.readLine()
		if err != nil {
			return &MalformedBodyError{Block: block, Offset: r.offset(), Reason: "stream ended inside block"}
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			return &MalformedBodyError{Block: block, Offset: r.offset(),
				Reason: fmt.Sprintf("record has %d fields, want at least 3", len(fields))}
		}
		dim, err1 := strconv.Atoi(fields[0])
		tag, err2 := strconv.Atoi(fields[1])
		if err1 != nil || err2 != nil {
			return &MalformedBodyError{Block: block, Offset: r.offset(), Reason: "bad dimension or tag"}
		}
		// The name is quoted and may contain spaces.
		name := strings.Join(fields[2:], " ")
		if q := strings.Index(line, `"`); q >= 0 {
			name = strings.Trim(line[q:], `" `)
		}
		b.addFieldEntry(name, dim, tag)
	}
	return expectSentinel(r, block, "$EndPhysicalNames")
}

func msh2ReadNodes(r *reader, hdr header, c codec, b *meshBuilder) error {
	const block = "$Nodes"
	n, err := readBlockCount(r, block)
	if err != nil {
		return err
	}
	if hdr.isASCII {
		for i := 0; i < n; i++ {
			line, err := r.readLine()
			if err != nil {
				return &MalformedBodyError{Block: block, Offset: r.offset(), Reason: "stream ended inside node list"}
			}
			fields := strings.Fields(line)
			if len(fields) != 4 {
				return &MalformedBodyError{Block: block, Offset: r.offset(),
					Reason: fmt.Sprintf("node record has %d fields, want 4", len(fields))}
			}
			id, err := strconv.ParseInt(fields[0], 10, 64)
			if err != nil {
				return &MalformedBodyError{Block: block, Offset: r.offset(), Reason: fmt.Sprintf("bad node id %q", fields[0])}
			}
			var xyz [3]float64
			for j := 0; j < 3; j++ {
				if xyz[j], err = strconv.ParseFloat(fields[1+j], 64); err != nil {
					return &MalformedBodyError{Block: block, Offset: r.offset(), Reason: fmt.Sprintf("bad coordinate %q", fields[1+j])}
				}
			}
			if err = b.addNode(id, xyz[0], xyz[1], xyz[2]); err != nil {
				return &MalformedBodyError{Block: block, Offset: r.offset(), Reason: err.Error()}
			}
		}
	} else {
		for i := 0; i < n; i++ {
			id, err := c.readInt(r, 4)
			if err != nil {
				return err
			}
			var xyz [3]float64
			for j := 0; j < 3; j++ {
				if xyz[j], err = c.readFloat(r, 8); err != nil {
					return err
				}
			}
			if err = b.addNode(id, xyz[0], xyz[1], xyz[2]); err != nil {
				return &MalformedBodyError{Block: block, Offset: r.offset(), Reason: err.Error()}
			}
		}
	}
	return expectSentinel(r, block, "$EndNodes")
}

func msh2ReadElements(r *reader, hdr header, c codec, b *meshBuilder) error {
	const block = "$Elements"
	n, err := readBlockCount(r, block)
	if err != nil {
		return err
	}
	if hdr.isASCII {
		for i := 0; i < n; i++ {
			line, err := r.readLine()
			if err != nil {
				return &MalformedBodyError{Block: block, Offset: r.offset(), Reason: "stream ended inside element list"}
			}
			fields := strings.Fields(line)
			if len(fields) < 3 {
				return &MalformedBodyError{Block: block, Offset: r.offset(),
					Reason: fmt.Sprintf("element record has %d fields, want at least 3", len(fields))}
			}
			nums := make([]int64, len(fields))
			for j, f := range fields {
				if nums[j], err = strconv.ParseInt(f, 10, 64); err != nil {
					return &MalformedBodyError{Block: block, Offset: r.offset(), Reason: fmt.Sprintf("bad token %q", f)}
				}
			}
			id, code, ntags := nums[0], int(nums[1]), int(nums[2])
			et, ok := elementTypeByCode(code)
			if !ok {
				return &MalformedBodyError{Block: block, Offset: r.offset(), Reason: fmt.Sprintf("unknown element type %d", code)}
			}
			if len(fields) != 3+ntags+et.arity {
				return &MalformedBodyError{Block: block, Offset: r.offset(),
					Reason: fmt.Sprintf("%s record has %d fields, want %d", et.name, len(fields), 3+ntags+et.arity)}
			}
			// Physical/geometrical tags are consumed but not retained.
			if err = b.addCell(et.name, id, nums[3+ntags:]); err != nil {
				return &MalformedBodyError{Block: block, Offset: r.offset(), Reason: err.Error()}
			}
		}
	} else {
		// Binary elements come in runs: a 3-int header (type, run length,
		// tag count), then that many records.
		for read := 0; read < n; {
			var hdr3 [3]int64
			for j := range hdr3 {
				if hdr3[j], err = c.readInt(r, 4); err != nil {
					return err
				}
			}
			code, run, ntags := int(hdr3[0]), int(hdr3[1]), int(hdr3[2])
			et, ok := elementTypeByCode(code)
			if !ok {
				return &MalformedBodyError{Block: block, Offset: r.offset(), Reason: fmt.Sprintf("unknown element type %d", code)}
			}
			// Empty run groups are legal; only a negative or overflowing run is not.
			if run < 0 || read+run > n {
				return &MalformedBodyError{Block: block, Offset: r.offset(),
					Reason: fmt.Sprintf("element run of %d overflows declared count %d", run, n)}
			}
			for k := 0; k < run; k++ {
				id, err := c.readInt(r, 4)
				if err != nil {
					return err
				}
				for t := 0; t < ntags; t++ {
					if _, err = c.readInt(r, 4); err != nil {
						return err
					}
				}
				nodeTags := make([]int64, et.arity)
				for t := range nodeTags {
					if nodeTags[t], err = c.readInt(r, 4); err != nil {
						return err
					}
				}
				if err = b.addCell(et.name, id, nodeTags); err != nil {
					return &MalformedBodyError{Block: block, Offset: r.offset(), Reason: err.Error()}
				}
			}
			read += run
		}
	}
	return expectSentinel(r, block, "$EndElements")
}

func (msh2Format) write(w io.Writer, m *mesh.Mesh, binaryMode bool) (err error) {
	c := newCodec(4)
	if err = writeHeader(w, "2.2", binaryMode, 4); err != nil {
		return err
	}
	if err = writePhysicalNames(w, m); err != nil {
		return err
	}

	if _, err = fmt.Fprintf(w, "$Nodes\n%d\n", len(m.Points)); err != nil {
		return err
	}
	if binaryMode {
		for i, p := range m.Points {
			if err = c.writeInt(w, 4, int64(i+1)); err != nil {
				return err
			}
			for _, x := range p {
				if err = c.writeFloat(w, 8, x); err != nil {
					return err
				}
			}
		}
		if _, err = io.WriteString(w, "\n"); err != nil {
			return err
		}
	} else {
		for i, p := range m.Points {
			if _, err = fmt.Fprintf(w, "%d %s %s %s\n", i+1, ftoa(p[0]), ftoa(p[1]), ftoa(p[2])); err != nil {
				return err
			}
		}
	}
	if _, err = io.WriteString(w, "$EndNodes\n"); err != nil {
		return err
	}

	if _, err = fmt.Fprintf(w, "$Elements\n%d\n", m.NumCells()); err != nil {
		return err
	}
	id := int64(1)
	for _, cb := range m.Cells {
		et, _ := elementTypeByName(cb.Type)
		if binaryMode {
			hdr3 := []int64{int64(et.code), int64(len(cb.Conn)), 2}
			for _, v := range hdr3 {
				if err = c.writeInt(w, 4, v); err != nil {
					return err
				}
			}
			for _, conn := range cb.Conn {
				rec := make([]int64, 0, 3+len(conn))
				rec = append(rec, id, 0, 0)
				for _, n := range conn {
					rec = append(rec, int64(n+1))
				}
				for _, v := range rec {
					if err = c.writeInt(w, 4, v); err != nil {
						return err
					}
				}
				id++
			}
		} else {
			for _, conn := range cb.Conn {
				if _, err = fmt.Fprintf(w, "%d %d 2 0 0", id, et.code); err != nil {
					return err
				}
				for _, n := range conn {
					if _, err = fmt.Fprintf(w, " %d", n+1); err != nil {
						return err
					}
				}
				if _, err = io.WriteString(w, "\n"); err != nil {
					return err
				}
				id++
			}
		}
	}
	if binaryMode {
		if _, err = io.WriteString(w, "\n"); err != nil {
			return err
		}
	}
	if _, err = io.WriteString(w, "$EndElements\n"); err != nil {
		return err
	}

	return writeMeshData(w, m, binaryMode, c)
}

// writePhysicalNames emits the $PhysicalNames block when the mesh carries
// physical-group names. ASCII in every mode.
func writePhysicalNames(w io.Writer, m *mesh.Mesh) (err error) {
	if len(m.FieldData) == 0 {
		return nil
	}
	names := make([]string, 0, len(m.FieldData))
	for name := range m.FieldData {
		names = append(names, name)
	}
	sort.Strings(names)
	if _, err = fmt.Fprintf(w, "$PhysicalNames\n%d\n", len(names)); err != nil {
		return err
	}
	for _, name := range names {
		fe := m.FieldData[name]
		if _, err = fmt.Fprintf(w, "%d %d %q\n", fe.Dim, fe.Tag, name); err != nil {
			return err
		}
	}
	_, err = io.WriteString(w, "$EndPhysicalNames\n")
	return err
}

// writeMeshData emits the $NodeData and $ElementData blocks for every data
// field, in sorted name order so output is deterministic. Shared by all
// sub-format writers.
func writeMeshData(w io.Writer, m *mesh.Mesh, binaryMode bool, c codec) error {
	names := make([]string, 0, len(m.PointData))
	for name := range m.PointData {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := writeDataBlock(w, "$NodeData", name, m.PointData[name], 1, binaryMode, c); err != nil {
			return err
		}
	}
	for _, cb := range m.Cells {
		fields := m.CellData[cb.Type]
		if len(fields) == 0 {
			continue
		}
		fieldNames := make([]string, 0, len(fields))
		for name := range fields {
			fieldNames = append(fieldNames, name)
		}
		sort.Strings(fieldNames)
		base := elementTagBase(m, cb.Type)
		for _, name := range fieldNames {
			if err := writeDataBlock(w, "$ElementData", name, fields[name], base, binaryMode, c); err != nil {
				return err
			}
		}
	}
	return nil
}
