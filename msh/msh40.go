package msh

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/meshfmt/meshfmt/mesh"
)

// msh40Format is the first entity-grouped layout: nodes and elements are
// partitioned into blocks tagged with a geometric entity, and the $Entities
// section declares those entities up front. Counts declared size_t in the
// format reference use the header's data-size width in binary mode; entity
// and block tags stay C ints.
type msh40Format struct{}

func (msh40Format) read(r *reader, hdr header) (*mesh.Mesh, error) {
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
		case "$Entities":
			err = msh40ReadEntities(r, hdr, c)
		case "$Nodes":
			err = msh40ReadNodes(r, hdr, c, b)
		case "$Elements":
			err = msh40ReadElements(r, hdr, c, b)
		case "$PhysicalNames":
			err = readPhysicalNames(r, b)
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

// readCountsLine reads a line of exactly n integers.
func readCountsLine(r *reader, block string, n int) ([]int64, error) {
	line, err := r.readLine()
	if err != nil {
		return nil, &MalformedBodyError{Block: block, Offset: r.offset(), Reason: "missing count line"}
	}
	fields := strings.Fields(line)
	if len(fields) != n {
		return nil, &MalformedBodyError{Block: block, Offset: r.offset(),
			Reason: fmt.Sprintf("count line has %d fields, want %d", len(fields), n)}
	}
	counts := make([]int64, n)
	for i, f := range fields {
		if counts[i], err = strconv.ParseInt(f, 10, 64); err != nil {
			return nil, &MalformedBodyError{Block: block, Offset: r.offset(), Reason: fmt.Sprintf("bad count %q", f)}
		}
	}
	return counts, nil
}

// msh40ReadEntities consumes the $Entities section. The geometric model is
// not part of the mesh contract, so entities are validated and discarded.
// In 4.0 every entity, points included, carries a 6-value bounding box.
func msh40ReadEntities(r *reader, hdr header, c codec) error {
	const block = "$Entities"
	var counts []int64
	var err error
	if hdr.isASCII {
		if counts, err = readCountsLine(r, block, 4); err != nil {
			return err
		}
	} else {
		counts = make([]int64, 4)
		for i := range counts {
			if counts[i], err = c.readSize(r); err != nil {
				return err
			}
		}
	}
	for dim := 0; dim < 4; dim++ {
		if counts[dim] < 0 {
			return &MalformedBodyError{Block: block, Offset: r.offset(), Reason: fmt.Sprintf("bad entity count %d", counts[dim])}
		}
		for i := int64(0); i < counts[dim]; i++ {
			if hdr.isASCII {
				line, err := r.readLine()
				if err != nil {
					return &MalformedBodyError{Block: block, Offset: r.offset(), Reason: "stream ended inside entity list"}
				}
				if err = checkEntityRecord(line, dim, true); err != nil {
					return &MalformedBodyError{Block: block, Offset: r.offset(), Reason: err.Error()}
				}
			} else {
				if _, err = c.readInt(r, 4); err != nil { // tag
					return err
				}
				for j := 0; j < 6; j++ { // bounding box
					if _, err = c.readFloat(r, 8); err != nil {
						return err
					}
				}
				if err = skipTagList(r, c); err != nil { // physical tags
					return err
				}
				if dim > 0 {
					if err = skipTagList(r, c); err != nil { // bounding entities
						return err
					}
				}
			}
		}
	}
	return expectSentinel(r, block, "$EndEntities")
}

// checkEntityRecord validates the token structure of one ASCII entity line:
// tag, bounding coordinates, then the counted physical and (dim > 0)
// bounding-entity tag lists. bbox6 selects the 4.0 convention where points
// carry a full box rather than a single coordinate triple.
func checkEntityRecord(line string, dim int, bbox6 bool) error {
	fields := strings.Fields(line)
	ncoord := 3
	if bbox6 || dim > 0 {
		ncoord = 6
	}
	pos := 1 + ncoord // tag + coordinates
	if len(fields) < pos+1 {
		return fmt.Errorf("entity record has %d fields, want at least %d", len(fields), pos+1)
	}
	nphys, err := strconv.Atoi(fields[pos])
	if err != nil || nphys < 0 {
		return fmt.Errorf("bad physical tag count %q", fields[pos])
	}
	pos += 1 + nphys
	if dim > 0 {
		if len(fields) < pos+1 {
			return fmt.Errorf("entity record has %d fields, want at least %d", len(fields), pos+1)
		}
		nbnd, err := strconv.Atoi(fields[pos])
		if err != nil || nbnd < 0 {
			return fmt.Errorf("bad bounding entity count %q", fields[pos])
		}
		pos += 1 + nbnd
	}
	if len(fields) != pos {
		return fmt.Errorf("entity record has %d fields, want %d", len(fields), pos)
	}
	return nil
}

// skipTagList consumes a size_t count followed by that many int tags.
func skipTagList(r *reader, c codec) error {
	n, err := c.readSize(r)
	if err != nil {
		return err
	}
	for i := int64(0); i < n; i++ {
		if _, err = c.readInt(r, 4); err != nil {
			return err
		}
	}
	return nil
}

func msh40ReadNodes(r *reader, hdr header, c codec, b *meshBuilder) error {
	const block = "$Nodes"
	var numBlocks, numNodes int64
	var err error
	if hdr.isASCII {
		counts, err := readCountsLine(r, block, 2)
		if err != nil {
			return err
		}
		numBlocks, numNodes = counts[0], counts[1]
	} else {
		if numBlocks, err = c.readSize(r); err != nil {
			return err
		}
		if numNodes, err = c.readSize(r); err != nil {
			return err
		}
	}
	if numBlocks < 0 || numNodes < 0 {
		return &MalformedBodyError{Block: block, Offset: r.offset(),
			Reason: fmt.Sprintf("bad node counts %d %d", numBlocks, numNodes)}
	}
	var seen int64
	for bi := int64(0); bi < numBlocks; bi++ {
		// Block header: entity tag, entity dim, parametric flag, node count.
		var cnt int64
		if hdr.isASCII {
			counts, err := readCountsLine(r, block, 4)
			if err != nil {
				return err
			}
			cnt = counts[3]
		} else {
			for j := 0; j < 3; j++ {
				if _, err = c.readInt(r, 4); err != nil {
					return err
				}
			}
			if cnt, err = c.readSize(r); err != nil {
				return err
			}
		}
		if cnt < 0 {
			return &MalformedBodyError{Block: block, Offset: r.offset(), Reason: fmt.Sprintf("bad node count %d", cnt)}
		}
		for i := int64(0); i < cnt; i++ {
			var id int64
			var xyz [3]float64
			if hdr.isASCII {
				line, err := r.readLine()
				if err != nil {
					return &MalformedBodyError{Block: block, Offset: r.offset(), Reason: "stream ended inside node block"}
				}
				fields := strings.Fields(line)
				if len(fields) != 4 {
					return &MalformedBodyError{Block: block, Offset: r.offset(),
						Reason: fmt.Sprintf("node record has %d fields, want 4", len(fields))}
				}
				if id, err = strconv.ParseInt(fields[0], 10, 64); err != nil {
					return &MalformedBodyError{Block: block, Offset: r.offset(), Reason: fmt.Sprintf("bad node tag %q", fields[0])}
				}
				for j := 0; j < 3; j++ {
					if xyz[j], err = strconv.ParseFloat(fields[1+j], 64); err != nil {
						return &MalformedBodyError{Block: block, Offset: r.offset(), Reason: fmt.Sprintf("bad coordinate %q", fields[1+j])}
					}
				}
			} else {
				if id, err = c.readSize(r); err != nil {
					return err
				}
				for j := 0; j < 3; j++ {
					if xyz[j], err = c.readFloat(r, 8); err != nil {
						return err
					}
				}
			}
			if err = b.addNode(id, xyz[0], xyz[1], xyz[2]); err != nil {
				return &MalformedBodyError{Block: block, Offset: r.offset(), Reason: err.Error()}
			}
		}
		seen += cnt
	}
	if seen != numNodes {
		return &MalformedBodyError{Block: block, Offset: r.offset(),
			Reason: fmt.Sprintf("blocks hold %d nodes, header declares %d", seen, numNodes)}
	}
	return expectSentinel(r, block, "$EndNodes")
}

func msh40ReadElements(r *reader, hdr header, c codec, b *meshBuilder) error {
	const block = "$Elements"
	var numBlocks, numElements int64
	var err error
	if hdr.isASCII {
		counts, err := readCountsLine(r, block, 2)
		if err != nil {
			return err
		}
		numBlocks, numElements = counts[0], counts[1]
	} else {
		if numBlocks, err = c.readSize(r); err != nil {
			return err
		}
		if numElements, err = c.readSize(r); err != nil {
			return err
		}
	}
	if numBlocks < 0 || numElements < 0 {
		return &MalformedBodyError{Block: block, Offset: r.offset(),
			Reason: fmt.Sprintf("bad element counts %d %d", numBlocks, numElements)}
	}
	var seen int64
	for bi := int64(0); bi < numBlocks; bi++ {
		// Block header: entity tag, entity dim, element type, count.
		var code int
		var cnt int64
		if hdr.isASCII {
			counts, err := readCountsLine(r, block, 4)
			if err != nil {
				return err
			}
			code, cnt = int(counts[2]), counts[3]
		} else {
			for j := 0; j < 2; j++ {
				if _, err = c.readInt(r, 4); err != nil {
					return err
				}
			}
			var code64 int64
			if code64, err = c.readInt(r, 4); err != nil {
				return err
			}
			code = int(code64)
			if cnt, err = c.readSize(r); err != nil {
				return err
			}
		}
		et, ok := elementTypeByCode(code)
		if !ok {
			return &MalformedBodyError{Block: block, Offset: r.offset(), Reason: fmt.Sprintf("unknown element type %d", code)}
		}
		if cnt < 0 {
			return &MalformedBodyError{Block: block, Offset: r.offset(), Reason: fmt.Sprintf("bad element count %d", cnt)}
		}
		for i := int64(0); i < cnt; i++ {
			var id int64
			nodeTags := make([]int64, et.arity)
			if hdr.isASCII {
				line, err := r.readLine()
				if err != nil {
					return &MalformedBodyError{Block: block, Offset: r.offset(), Reason: "stream ended inside element block"}
				}
				fields := strings.Fields(line)
				if len(fields) != 1+et.arity {
					return &MalformedBodyError{Block: block, Offset: r.offset(),
						Reason: fmt.Sprintf("%s record has %d fields, want %d", et.name, len(fields), 1+et.arity)}
				}
				if id, err = strconv.ParseInt(fields[0], 10, 64); err != nil {
					return &MalformedBodyError{Block: block, Offset: r.offset(), Reason: fmt.Sprintf("bad element tag %q", fields[0])}
				}
				for j := range nodeTags {
					if nodeTags[j], err = strconv.ParseInt(fields[1+j], 10, 64); err != nil {
						return &MalformedBodyError{Block: block, Offset: r.offset(), Reason: fmt.Sprintf("bad node tag %q", fields[1+j])}
					}
				}
			} else {
				if id, err = c.readSize(r); err != nil {
					return err
				}
				for j := range nodeTags {
					if nodeTags[j], err = c.readSize(r); err != nil {
						return err
					}
				}
			}
			if err = b.addCell(et.name, id, nodeTags); err != nil {
				return &MalformedBodyError{Block: block, Offset: r.offset(), Reason: err.Error()}
			}
		}
		seen += cnt
	}
	if seen != numElements {
		return &MalformedBodyError{Block: block, Offset: r.offset(),
			Reason: fmt.Sprintf("blocks hold %d elements, header declares %d", seen, numElements)}
	}
	return expectSentinel(r, block, "$EndElements")
}

// entityLayout is the synthetic geometric model a 4.x writer emits: one
// point entity holding every node, one entity per cell block. Tags start at
// 2 for cell entities so a dim-0 cell block cannot collide with the node
// entity (0, 1).
type entityLayout struct {
	nodeTag  int
	cellTags []int
	cellDims []int
}

func layoutEntities(m *mesh.Mesh) entityLayout {
	lay := entityLayout{nodeTag: 1}
	lay.cellTags = make([]int, len(m.Cells))
	lay.cellDims = make([]int, len(m.Cells))
	for i, cb := range m.Cells {
		et, _ := elementTypeByName(cb.Type)
		lay.cellTags[i] = i + 2
		lay.cellDims[i] = et.dim
	}
	return lay
}

func (lay entityLayout) countsByDim() (counts [4]int64) {
	counts[0] = 1 // the node entity
	for _, d := range lay.cellDims {
		counts[d]++
	}
	return
}

func (msh40Format) write(w io.Writer, m *mesh.Mesh, binaryMode bool) (err error) {
	c := newCodec(8)
	if err = writeHeader(w, "4.0", binaryMode, 8); err != nil {
		return err
	}
	lay := layoutEntities(m)
	if err = msh40WriteEntities(w, lay, binaryMode, c); err != nil {
		return err
	}
	if err = writePhysicalNames(w, m); err != nil {
		return err
	}

	// $Nodes: a single block under the node entity.
	if _, err = io.WriteString(w, "$Nodes\n"); err != nil {
		return err
	}
	n := int64(len(m.Points))
	if binaryMode {
		for _, v := range []int64{1, n} {
			if err = c.writeSize(w, v); err != nil {
				return err
			}
		}
		for _, v := range []int64{int64(lay.nodeTag), 0, 0} {
			if err = c.writeInt(w, 4, v); err != nil {
				return err
			}
		}
		if err = c.writeSize(w, n); err != nil {
			return err
		}
		for i, p := range m.Points {
			if err = c.writeSize(w, int64(i+1)); err != nil {
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
		if _, err = fmt.Fprintf(w, "1 %d\n%d 0 0 %d\n", n, lay.nodeTag, n); err != nil {
			return err
		}
		for i, p := range m.Points {
			if _, err = fmt.Fprintf(w, "%d %s %s %s\n", i+1, ftoa(p[0]), ftoa(p[1]), ftoa(p[2])); err != nil {
				return err
			}
		}
	}
	if _, err = io.WriteString(w, "$EndNodes\n"); err != nil {
		return err
	}

	// $Elements: one block per cell type under its entity.
	if _, err = io.WriteString(w, "$Elements\n"); err != nil {
		return err
	}
	total := int64(m.NumCells())
	if binaryMode {
		for _, v := range []int64{int64(len(m.Cells)), total} {
			if err = c.writeSize(w, v); err != nil {
				return err
			}
		}
	} else {
		if _, err = fmt.Fprintf(w, "%d %d\n", len(m.Cells), total); err != nil {
			return err
		}
	}
	id := int64(1)
	for i, cb := range m.Cells {
		et, _ := elementTypeByName(cb.Type)
		if binaryMode {
			for _, v := range []int64{int64(lay.cellTags[i]), int64(et.dim), int64(et.code)} {
				if err = c.writeInt(w, 4, v); err != nil {
					return err
				}
			}
			if err = c.writeSize(w, int64(len(cb.Conn))); err != nil {
				return err
			}
			for _, conn := range cb.Conn {
				if err = c.writeSize(w, id); err != nil {
					return err
				}
				for _, nd := range conn {
					if err = c.writeSize(w, int64(nd+1)); err != nil {
						return err
					}
				}
				id++
			}
		} else {
			if _, err = fmt.Fprintf(w, "%d %d %d %d\n", lay.cellTags[i], et.dim, et.code, len(cb.Conn)); err != nil {
				return err
			}
			for _, conn := range cb.Conn {
				if _, err = fmt.Fprintf(w, "%d", id); err != nil {
					return err
				}
				for _, nd := range conn {
					if _, err = fmt.Fprintf(w, " %d", nd+1); err != nil {
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

// msh40WriteEntities emits the minimal $Entities section for the synthetic
// layout, 4.0 style: every entity carries a zero bounding box and empty
// physical and bounding-entity tag lists.
func msh40WriteEntities(w io.Writer, lay entityLayout, binaryMode bool, c codec) (err error) {
	if _, err = io.WriteString(w, "$Entities\n"); err != nil {
		return err
	}
	counts := lay.countsByDim()
	writeOne := func(tag, dim int) error {
		if binaryMode {
			if err := c.writeInt(w, 4, int64(tag)); err != nil {
				return err
			}
			for j := 0; j < 6; j++ {
				if err := c.writeFloat(w, 8, 0); err != nil {
					return err
				}
			}
			if err := c.writeSize(w, 0); err != nil {
				return err
			}
			if dim > 0 {
				if err := c.writeSize(w, 0); err != nil {
					return err
				}
			}
			return nil
		}
		if dim > 0 {
			_, err := fmt.Fprintf(w, "%d 0 0 0 0 0 0 0 0\n", tag)
			return err
		}
		_, err := fmt.Fprintf(w, "%d 0 0 0 0 0 0 0\n", tag)
		return err
	}
	if binaryMode {
		for _, v := range counts {
			if err = c.writeSize(w, v); err != nil {
				return err
			}
		}
	} else {
		if _, err = fmt.Fprintf(w, "%d %d %d %d\n", counts[0], counts[1], counts[2], counts[3]); err != nil {
			return err
		}
	}
	for dim := 0; dim < 4; dim++ {
		if dim == 0 {
			if err = writeOne(lay.nodeTag, 0); err != nil {
				return err
			}
		}
		for i, d := range lay.cellDims {
			if d == dim {
				if err = writeOne(lay.cellTags[i], dim); err != nil {
					return err
				}
			}
		}
	}
	if binaryMode {
		if _, err = io.WriteString(w, "\n"); err != nil {
			return err
		}
	}
	_, err = io.WriteString(w, "$EndEntities\n")
	return err
}
