package mesh

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMesh(t *testing.T) {
	m := &Mesh{
		Points: [][3]float64{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {1, 1, 0}},
		Cells: []CellBlock{
			{Type: "triangle", Conn: [][]int{{0, 1, 2}, {1, 3, 2}}},
			{Type: "line", Conn: [][]int{{0, 1}}},
		},
	}

	assert.Equal(t, 3, m.NumCells())
	assert.Equal(t, []string{"triangle", "line"}, m.CellTypes())
	assert.Equal(t, [][]int{{0, 1}}, m.CellsOfType("line"))
	assert.Nil(t, m.CellsOfType("tetra"))

	empty := &Mesh{}
	assert.Equal(t, 0, empty.NumCells())
	assert.Empty(t, empty.CellTypes())
}
