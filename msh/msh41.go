package msh

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/meshfmt/meshfmt/mesh"
)

// msh41Format refines MSH4.0: block headers put the entity dimension before
// the entity tag, $Nodes and $Elements headers gain min/max tag fields, a
// node block lists all tags before all coordinates, and point entities carry
// a plain coordinate triple instead of a bounding box.
type msh41Format struct{}

func (msh41Format) read(r *reader, hdr header) (*mesh.Mesh, error) {
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
			err = msh41ReadEntities(r, hdr, c)
		case "$Nodes":
			err = msh41ReadNodes(r, hdr, c, b)
		case "$Elements":
			err = msh41ReadElements(r, hdr, c, b)
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

func msh41ReadEntities(r *reader, hdr header, c codec) error {
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
				if err = checkEntityRecord(line, dim, false); err != nil {
					return &MalformedBodyError{Block: block, Offset: r.offset(), Reason: err.Error()}
				}
			} else {
				if _, err = c.readInt(r, 4); err != nil { // tag
					return err
				}
				ncoord := 3 // points carry x y z only
				if dim > 0 {
					ncoord = 6
				}
				for j := 0; j < ncoord; j++ {
					if _, err = c.readFloat(r, 8); err != nil {
						return err
					}
				}
				if err = skipTagList(r, c); err != nil {
					return err
				}
				if dim > 0 {
					if err = skipTagList(r, c); err != nil {
						return err
					}
				}
			}
		}
	}
	return expectSentinel(r, block, "$EndEntities")
}

func msh41ReadNodes(r *reader, hdr header, c codec, b *meshBuilder) error {
	const block = "$Nodes"
	// Header: numBlocks, numNodes, minTag, maxTag.
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
	numBlocks, numNodes := counts[0], counts[1]
	if numBlocks < 0 || numNodes < 0 {
		return &MalformedBodyError{Block: block, Offset: r.offset(),
			Reason: fmt.Sprintf("bad node counts %d %d", numBlocks, numNodes)}
	}
	var seen int64
	for bi := int64(0); bi < numBlocks; bi++ {
		// Block header: entity dim, entity tag, parametric flag, count.
		var cnt int64
		if hdr.isASCII {
			bc, err := readCountsLine(r, block, 4)
			if err != nil {
				return err
			}
			cnt = bc[3]
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
		// All tags first, then all coordinate triples.
		tags := make([]int64, 0, allocHint(cnt))
		for i := int64(0); i < cnt; i++ {
			var tag int64
			if hdr.isASCII {
				line, err := r.readLine()
				if err != nil {
					return &MalformedBodyError{Block: block, Offset: r.offset(), Reason: "stream ended inside node tags"}
				}
				if tag, err = strconv.ParseInt(strings.TrimSpace(line), 10, 64); err != nil {
					return &MalformedBodyError{Block: block, Offset: r.offset(),
						Reason: fmt.Sprintf("bad node tag %q", strings.TrimSpace(line))}
				}
			} else {
				if tag, err = c.readSize(r); err != nil {
					return err
				}
			}
			tags = append(tags, tag)
		}
		for i := int64(0); i < cnt; i++ {
			var xyz [3]float64
			if hdr.isASCII {
				line, err := r.readLine()
				if err != nil {
					return &MalformedBodyError{Block: block, Offset: r.offset(), Reason: "stream ended inside node coordinates"}
				}
				fields := strings.Fields(line)
				if len(fields) != 3 {
					return &MalformedBodyError{Block: block, Offset: r.offset(),
						Reason: fmt.Sprintf("coordinate record has %d fields, want 3", len(fields))}
				}
				for j := 0; j < 3; j++ {
					if xyz[j], err = strconv.ParseFloat(fields[j], 64); err != nil {
						return &MalformedBodyError{Block: block, Offset: r.offset(), Reason: fmt.Sprintf("bad coordinate %q", fields[j])}
					}
				}
			} else {
				for j := 0; j < 3; j++ {
					if xyz[j], err = c.readFloat(r, 8); err != nil {
						return err
					}
				}
			}
			if err = b.addNode(tags[i], xyz[0], xyz[1], xyz[2]); err != nil {
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

func msh41ReadElements(r *reader, hdr header, c codec, b *meshBuilder) error {
	const block = "$Elements"
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
	numBlocks, numElements := counts[0], counts[1]
	if numBlocks < 0 || numElements < 0 {
		return &MalformedBodyError{Block: block, Offset: r.offset(),
			Reason: fmt.Sprintf("bad element counts %d %d", numBlocks, numElements)}
	}
	var seen int64
	for bi := int64(0); bi < numBlocks; bi++ {
		// Block header: entity dim, entity tag, element type, count.
		var code int
		var cnt int64
		if hdr.isASCII {
			bc, err := readCountsLine(r, block, 4)
			if err != nil {
				return err
			}
			code, cnt = int(bc[2]), bc[3]
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

func (msh41Format) write(w io.Writer, m *mesh.Mesh, binaryMode bool) (err error) {
	c := newCodec(8)
	if err = writeHeader(w, "4.1", binaryMode, 8); err != nil {
		return err
	}
	lay := layoutEntities(m)
	if err = msh41WriteEntities(w, lay, binaryMode, c); err != nil {
		return err
	}
	if err = writePhysicalNames(w, m); err != nil {
		return err
	}

	// $Nodes: one block, dense tags 1..n, min/max tags in the header.
	if _, err = io.WriteString(w, "$Nodes\n"); err != nil {
		return err
	}
	n := int64(len(m.Points))
	minTag, maxTag := int64(1), n
	if n == 0 {
		minTag = 0
	}
	if binaryMode {
		for _, v := range []int64{1, n, minTag, maxTag} {
			if err = c.writeSize(w, v); err != nil {
				return err
			}
		}
		for _, v := range []int64{0, int64(lay.nodeTag), 0} {
			if err = c.writeInt(w, 4, v); err != nil {
				return err
			}
		}
		if err = c.writeSize(w, n); err != nil {
			return err
		}
		for i := int64(0); i < n; i++ {
			if err = c.writeSize(w, i+1); err != nil {
				return err
			}
		}
		for _, p := range m.Points {
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
		if _, err = fmt.Fprintf(w, "1 %d %d %d\n0 %d 0 %d\n", n, minTag, maxTag, lay.nodeTag, n); err != nil {
			return err
		}
		for i := int64(0); i < n; i++ {
			if _, err = fmt.Fprintf(w, "%d\n", i+1); err != nil {
				return err
			}
		}
		for _, p := range m.Points {
			if _, err = fmt.Fprintf(w, "%s %s %s\n", ftoa(p[0]), ftoa(p[1]), ftoa(p[2])); err != nil {
				return err
			}
		}
	}
	if _, err = io.WriteString(w, "$EndNodes\n"); err != nil {
		return err
	}

	// $Elements: one block per cell type, dense tags across blocks.
	if _, err = io.WriteString(w, "$Elements\n"); err != nil {
		return err
	}
	total := int64(m.NumCells())
	minTag, maxTag = int64(1), total
	if total == 0 {
		minTag = 0
	}
	if binaryMode {
		for _, v := range []int64{int64(len(m.Cells)), total, minTag, maxTag} {
			if err = c.writeSize(w, v); err != nil {
				return err
			}
		}
	} else {
		if _, err = fmt.Fprintf(w, "%d %d %d %d\n", len(m.Cells), total, minTag, maxTag); err != nil {
			return err
		}
	}
	id := int64(1)
	for i, cb := range m.Cells {
		et, _ := elementTypeByName(cb.Type)
		if binaryMode {
			for _, v := range []int64{int64(et.dim), int64(lay.cellTags[i]), int64(et.code)} {
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
			if _, err = fmt.Fprintf(w, "%d %d %d %d\n", et.dim, lay.cellTags[i], et.code, len(cb.Conn)); err != nil {
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

// msh41WriteEntities emits the minimal $Entities section in the 4.1 shape:
// point entities carry a coordinate triple, higher dimensions a bounding
// box, all zeroed.
func msh41WriteEntities(w io.Writer, lay entityLayout, binaryMode bool, c codec) (err error) {
	if _, err = io.WriteString(w, "$Entities\n"); err != nil {
		return err
	}
	counts := lay.countsByDim()
	writeOne := func(tag, dim int) error {
		ncoord := 3
		if dim > 0 {
			ncoord = 6
		}
		if binaryMode {
			if err := c.writeInt(w, 4, int64(tag)); err != nil {
				return err
			}
			for j := 0; j < ncoord; j++ {
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
		_, err := fmt.Fprintf(w, "%d 0 0 0 0\n", tag)
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
