package msh

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/meshfmt/meshfmt/mesh"
)

// meshBuilder accumulates a Mesh while a sub-format reader walks its blocks.
// It owns the 1-based (and possibly sparse) file-id to 0-based index
// translation for both nodes and elements, which is identical across format
// versions even though the surrounding block grammars are not.
type meshBuilder struct {
	points    [][3]float64
	cells     []mesh.CellBlock
	blockIdx  map[string]int // cell type -> index into cells
	nodeIndex map[int64]int  // file node tag -> point index
	elemIndex map[int64]elemRef
	pointData map[string][][]float64
	cellData  map[string]map[string][][]float64
	fieldData map[string]mesh.FieldEntry
}

// elemRef locates one element inside the grouped cell blocks.
type elemRef struct {
	cellType string
	idx      int
}

func newMeshBuilder() *meshBuilder {
	return &meshBuilder{
		blockIdx:  make(map[string]int),
		nodeIndex: make(map[int64]int),
		elemIndex: make(map[int64]elemRef),
	}
}

func (b *meshBuilder) addNode(tag int64, x, y, z float64) error {
	if _, ok := b.nodeIndex[tag]; ok {
		return fmt.Errorf("duplicate node tag %d", tag)
	}
	b.nodeIndex[tag] = len(b.points)
	b.points = append(b.points, [3]float64{x, y, z})
	return nil
}

func (b *meshBuilder) addCell(cellType string, tag int64, nodeTags []int64) error {
	if _, ok := b.elemIndex[tag]; ok {
		return fmt.Errorf("duplicate element tag %d", tag)
	}
	conn := make([]int, len(nodeTags))
	for i, nt := range nodeTags {
		idx, ok := b.nodeIndex[nt]
		if !ok {
			return fmt.Errorf("element %d references unknown node tag %d", tag, nt)
		}
		conn[i] = idx
	}
	bi, ok := b.blockIdx[cellType]
	if !ok {
		bi = len(b.cells)
		b.blockIdx[cellType] = bi
		b.cells = append(b.cells, mesh.CellBlock{Type: cellType})
	}
	b.elemIndex[tag] = elemRef{cellType: cellType, idx: len(b.cells[bi].Conn)}
	b.cells[bi].Conn = append(b.cells[bi].Conn, conn)
	return nil
}

func (b *meshBuilder) addFieldEntry(name string, dim, tag int) {
	if b.fieldData == nil {
		b.fieldData = make(map[string]mesh.FieldEntry)
	}
	b.fieldData[name] = mesh.FieldEntry{Tag: tag, Dim: dim}
}

// attachNodeData stores one $NodeData field. Entries may arrive in any tag
// order; nodes absent from the block get a zero record so the field keeps a
// uniform shape.
func (b *meshBuilder) attachNodeData(name string, ncomp int, entries []dataEntry) error {
	vals := make([][]float64, len(b.points))
	for _, e := range entries {
		idx, ok := b.nodeIndex[e.tag]
		if !ok {
			return fmt.Errorf("data for unknown node tag %d", e.tag)
		}
		if len(e.vals) != ncomp {
			return fmt.Errorf("node %d has %d components, block declares %d", e.tag, len(e.vals), ncomp)
		}
		vals[idx] = e.vals
	}
	for i := range vals {
		if vals[i] == nil {
			vals[i] = make([]float64, ncomp)
		}
	}
	if b.pointData == nil {
		b.pointData = make(map[string][][]float64)
	}
	b.pointData[name] = vals
	return nil
}

// attachElemData stores one $ElementData field, splitting the flat
// tag-addressed records back out over the per-type cell blocks.
func (b *meshBuilder) attachElemData(name string, ncomp int, entries []dataEntry) error {
	byType := make(map[string][][]float64)
	for _, e := range entries {
		ref, ok := b.elemIndex[e.tag]
		if !ok {
			return fmt.Errorf("data for unknown element tag %d", e.tag)
		}
		if len(e.vals) != ncomp {
			return fmt.Errorf("element %d has %d components, block declares %d", e.tag, len(e.vals), ncomp)
		}
		vals, ok := byType[ref.cellType]
		if !ok {
			vals = make([][]float64, len(b.cells[b.blockIdx[ref.cellType]].Conn))
			byType[ref.cellType] = vals
		}
		vals[ref.idx] = e.vals
	}
	if b.cellData == nil {
		b.cellData = make(map[string]map[string][][]float64)
	}
	// Only cell types the block actually addressed get the field; within
	// those, elements the block skipped get a zero record.
	for cellType, vals := range byType {
		for i := range vals {
			if vals[i] == nil {
				vals[i] = make([]float64, ncomp)
			}
		}
		if b.cellData[cellType] == nil {
			b.cellData[cellType] = make(map[string][][]float64)
		}
		b.cellData[cellType][name] = vals
	}
	return nil
}

func (b *meshBuilder) mesh() *mesh.Mesh {
	return &mesh.Mesh{
		Points:    b.points,
		Cells:     b.cells,
		PointData: b.pointData,
		CellData:  b.cellData,
		FieldData: b.fieldData,
	}
}

// ftoa formats a coordinate or data value with the fewest digits that parse
// back to the identical float64, so ASCII files round-trip exactly.
func ftoa(x float64) string {
	return strconv.FormatFloat(x, 'g', -1, 64)
}

// maxFieldWidth bounds the per-record component count a data block may
// declare. Real fields are scalars or short vectors/tensors; anything wider
// is a corrupt count, not data.
const maxFieldWidth = 4096

// allocHint bounds a file-declared count before it sizes a preallocation.
// Counts are not trusted: the record loops detect the mismatch against the
// actual stream, so an overstated count only costs some growth via append.
func allocHint(n int64) int {
	const max = 1 << 16
	if n < 0 {
		return 0
	}
	if n > max {
		return max
	}
	return int(n)
}

// elementTagBase returns the first global element tag of the given cell
// type's block, under the dense block-order numbering every writer uses.
func elementTagBase(m *mesh.Mesh, cellType string) int64 {
	base := int64(1)
	for _, cb := range m.Cells {
		if cb.Type == cellType {
			break
		}
		base += int64(len(cb.Conn))
	}
	return base
}

// dataEntry is one record of a $NodeData or $ElementData block, addressed by
// its file tag.
type dataEntry struct {
	tag  int64
	vals []float64
}

// readDataBlock consumes a $NodeData or $ElementData body after its opening
// tag line. The grammar is shared by every msh version: string tags (first
// one is the field name), real tags, integer tags (timestep, component
// count, entry count), then the records.
func readDataBlock(r *reader, hdr header, block string, c codec) (name string, ncomp int, entries []dataEntry, err error) {
	bodyErr := func(reason string) error {
		return &MalformedBodyError{Block: block, Offset: r.offset(), Reason: reason}
	}
	readCount := func(what string) (int, error) {
		line, err := r.readLine()
		if err != nil {
			return 0, bodyErr("missing " + what)
		}
		n, err := strconv.Atoi(strings.TrimSpace(line))
		if err != nil {
			return 0, bodyErr(fmt.Sprintf("bad %s %q", what, strings.TrimSpace(line)))
		}
		return n, nil
	}

	nstr, err := readCount("string tag count")
	if err != nil {
		return "", 0, nil, err
	}
	for i := 0; i < nstr; i++ {
		line, err := r.readLine()
		if err != nil {
			return "", 0, nil, bodyErr("missing string tag")
		}
		if i == 0 {
			name = strings.Trim(strings.TrimSpace(line), `"`)
		}
	}
	nreal, err := readCount("real tag count")
	if err != nil {
		return "", 0, nil, err
	}
	for i := 0; i < nreal; i++ {
		if _, err = r.readLine(); err != nil {
			return "", 0, nil, bodyErr("missing real tag")
		}
	}
	nint, err := readCount("integer tag count")
	if err != nil {
		return "", 0, nil, err
	}
	if nint < 3 {
		return "", 0, nil, bodyErr(fmt.Sprintf("need at least 3 integer tags, got %d", nint))
	}
	var numEntries int
	for i := 0; i < nint; i++ {
		v, err := readCount("integer tag")
		if err != nil {
			return "", 0, nil, err
		}
		switch i {
		case 1:
			ncomp = v
		case 2:
			numEntries = v
		}
	}
	if ncomp < 1 || ncomp > maxFieldWidth {
		return "", 0, nil, bodyErr(fmt.Sprintf("bad component count %d", ncomp))
	}
	if numEntries < 0 {
		return "", 0, nil, bodyErr(fmt.Sprintf("bad entry count %d", numEntries))
	}

	entries = make([]dataEntry, 0, allocHint(int64(numEntries)))
	if hdr.isASCII {
		for i := 0; i < numEntries; i++ {
			line, err := r.readLine()
			if err != nil {
				return "", 0, nil, bodyErr("stream ended inside data records")
			}
			fields := strings.Fields(line)
			if len(fields) != 1+ncomp {
				return "", 0, nil, bodyErr(fmt.Sprintf("record has %d fields, want %d", len(fields), 1+ncomp))
			}
			tag, err := strconv.ParseInt(fields[0], 10, 64)
			if err != nil {
				return "", 0, nil, bodyErr(fmt.Sprintf("bad tag %q", fields[0]))
			}
			vals := make([]float64, ncomp)
			for j := 0; j < ncomp; j++ {
				if vals[j], err = strconv.ParseFloat(fields[1+j], 64); err != nil {
					return "", 0, nil, bodyErr(fmt.Sprintf("bad value %q", fields[1+j]))
				}
			}
			entries = append(entries, dataEntry{tag: tag, vals: vals})
		}
	} else {
		for i := 0; i < numEntries; i++ {
			tag, err := c.readInt(r, 4)
			if err != nil {
				return "", 0, nil, err
			}
			vals := make([]float64, ncomp)
			for j := 0; j < ncomp; j++ {
				if vals[j], err = c.readFloat(r, 8); err != nil {
					return "", 0, nil, err
				}
			}
			entries = append(entries, dataEntry{tag: tag, vals: vals})
		}
		if _, err = r.readLine(); err != nil {
			return "", 0, nil, bodyErr("missing newline after binary records")
		}
	}

	line, err := r.readLine()
	if err != nil || strings.TrimSpace(line) != "$End"+strings.TrimPrefix(block, "$") {
		return "", 0, nil, bodyErr("missing $End" + strings.TrimPrefix(block, "$") + " sentinel")
	}
	return name, ncomp, entries, nil
}

// writeDataBlock emits one $NodeData or $ElementData block. Records carry
// dense tags in slice order starting at firstTag, which lets an element
// data block line up with the global element numbering the topology writer
// produced.
func writeDataBlock(w io.Writer, block, name string, vals [][]float64, firstTag int64, binaryMode bool, c codec) (err error) {
	ncomp := 1
	if len(vals) > 0 {
		ncomp = len(vals[0])
	}
	if _, err = fmt.Fprintf(w, "%s\n1\n%q\n1\n0.0\n3\n0\n%d\n%d\n", block, name, ncomp, len(vals)); err != nil {
		return err
	}
	if binaryMode {
		for i, v := range vals {
			if err = c.writeInt(w, 4, firstTag+int64(i)); err != nil {
				return err
			}
			for _, x := range v {
				if err = c.writeFloat(w, 8, x); err != nil {
					return err
				}
			}
		}
		if _, err = io.WriteString(w, "\n"); err != nil {
			return err
		}
	} else {
		for i, v := range vals {
			if _, err = fmt.Fprintf(w, "%d", firstTag+int64(i)); err != nil {
				return err
			}
			for _, x := range v {
				if _, err = fmt.Fprintf(w, " %g", x); err != nil {
					return err
				}
			}
			if _, err = io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
	}
	_, err = fmt.Fprintf(w, "$End%s\n", strings.TrimPrefix(block, "$"))
	return err
}
