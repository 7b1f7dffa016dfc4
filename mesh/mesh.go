// Package mesh holds the in-memory mesh representation shared by every
// file-format reader and writer: node coordinates, cell connectivity grouped
// by cell type, and named data fields attached to nodes or cells.
package mesh

// CellBlock is the connectivity of all cells of a single type. Each entry in
// Conn lists 0-based node indices into Mesh.Points; all entries of one block
// have the arity of the block's cell type.
type CellBlock struct {
	Type string
	Conn [][]int
}

// FieldEntry identifies a named physical group: its integer tag and the
// dimension of the entities it labels.
type FieldEntry struct {
	Tag int
	Dim int
}

// Mesh is the transfer object exchanged between callers and format
// components. Readers build a fresh Mesh from a stream; writers consume one.
// It carries no mutation API of its own.
//
// Cells is a slice rather than a map so that the order cell blocks were
// inserted survives a write/read cycle.
type Mesh struct {
	Points [][3]float64
	Cells  []CellBlock

	// PointData maps a field name to one record per node. Records are
	// width-1 slices for scalar fields, width-k for fixed k-vectors.
	PointData map[string][][]float64

	// CellData maps cell type -> field name -> one record per cell of that
	// type, in CellBlock order.
	CellData map[string]map[string][][]float64

	// FieldData carries physical-group names. Optional; not every format
	// has a place for it.
	FieldData map[string]FieldEntry
}

// CellsOfType returns the connectivity block for the given cell type, or nil
// if the mesh has no cells of that type.
func (m *Mesh) CellsOfType(cellType string) [][]int {
	for _, cb := range m.Cells {
		if cb.Type == cellType {
			return cb.Conn
		}
	}
	return nil
}

// NumCells counts cells across all blocks.
func (m *Mesh) NumCells() (total int) {
	for _, cb := range m.Cells {
		total += len(cb.Conn)
	}
	return
}

// CellTypes lists the cell types present, in block order.
func (m *Mesh) CellTypes() (types []string) {
	types = make([]string, len(m.Cells))
	for i, cb := range m.Cells {
		types[i] = cb.Type
	}
	return
}
