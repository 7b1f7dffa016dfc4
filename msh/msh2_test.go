package msh

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshfmt/meshfmt/mesh"
)

func TestReadMSH2ASCII(t *testing.T) {
	m, err := Read(bytes.NewReader(msh2File))
	require.NoError(t, err)

	{ // Nodes translate from 1-based file ids to 0-based indices
		assert.Equal(t, 4, len(m.Points))
		assert.Equal(t, [3]float64{0, 0, 0}, m.Points[0])
		assert.Equal(t, [3]float64{1, 1, 0}, m.Points[3])
	}
	{ // Elements group by cell type in first-encounter order
		require.Equal(t, []string{"triangle", "line"}, m.CellTypes())
		assert.Equal(t, [][]int{{0, 1, 2}, {1, 3, 2}}, m.CellsOfType("triangle"))
		assert.Equal(t, [][]int{{0, 1}}, m.CellsOfType("line"))
	}
	{ // Physical names land in field data
		require.Len(t, m.FieldData, 2)
		assert.Equal(t, mesh.FieldEntry{Tag: 7, Dim: 1}, m.FieldData["inlet"])
		assert.Equal(t, mesh.FieldEntry{Tag: 8, Dim: 2}, m.FieldData["wall region"])
	}
	{ // Node and element data attach to the right records
		require.Contains(t, m.PointData, "temperature")
		assert.Equal(t, [][]float64{{1.5}, {2.5}, {3.5}, {4.5}}, m.PointData["temperature"])
		require.Contains(t, m.CellData, "triangle")
		assert.Equal(t, [][]float64{{0.9}, {0.8}}, m.CellData["triangle"]["quality"])
		// The line element never appears in the $ElementData block
		_, ok := m.CellData["line"]
		assert.False(t, ok)
	}
}

func TestReadMSH2Malformed(t *testing.T) {
	var mbe *MalformedBodyError
	{ // Unknown top-level block tag
		in := append(bytes.Clone(msh2Header), []byte("$Bogus\n1\n$EndBogus\n")...)
		_, err := Read(bytes.NewReader(in))
		require.ErrorAs(t, err, &mbe)
		assert.Equal(t, "$Bogus", mbe.Block)
		assert.Greater(t, mbe.Offset, int64(0))
	}
	{ // Node record with too few fields
		in := append(bytes.Clone(msh2Header), []byte("$Nodes\n1\n1 0 0\n$EndNodes\n")...)
		_, err := Read(bytes.NewReader(in))
		require.ErrorAs(t, err, &mbe)
		assert.Equal(t, "$Nodes", mbe.Block)
	}
	{ // Element referencing a node the file never declared
		in := append(bytes.Clone(msh2Header),
			[]byte("$Nodes\n1\n1 0 0 0\n$EndNodes\n$Elements\n1\n1 15 2 0 0 9\n$EndElements\n")...)
		_, err := Read(bytes.NewReader(in))
		require.ErrorAs(t, err, &mbe)
		assert.Equal(t, "$Elements", mbe.Block)
		assert.Contains(t, mbe.Reason, "unknown node tag")
	}
	{ // Unknown element type code
		in := append(bytes.Clone(msh2Header),
			[]byte("$Nodes\n1\n1 0 0 0\n$EndNodes\n$Elements\n1\n1 99 2 0 0 1\n$EndElements\n")...)
		_, err := Read(bytes.NewReader(in))
		require.ErrorAs(t, err, &mbe)
		assert.Contains(t, mbe.Reason, "unknown element type")
	}
	{ // Declared count larger than the records present
		in := append(bytes.Clone(msh2Header), []byte("$Nodes\n3\n1 0 0 0\n$EndNodes\n")...)
		_, err := Read(bytes.NewReader(in))
		require.ErrorAs(t, err, &mbe)
	}
}

func TestReadMSH2HostileCounts(t *testing.T) {
	var mbe *MalformedBodyError
	{ // Negative node count
		in := append(bytes.Clone(msh2Header), []byte("$Nodes\n-3\n$EndNodes\n")...)
		_, err := Read(bytes.NewReader(in))
		require.ErrorAs(t, err, &mbe)
		assert.Equal(t, "$Nodes", mbe.Block)
	}
	{ // Negative entry count in $NodeData
		in := append(bytes.Clone(msh2Header),
			[]byte("$Nodes\n1\n1 0 0 0\n$EndNodes\n$NodeData\n1\n\"t\"\n1\n0.0\n3\n0\n1\n-1\n$EndNodeData\n")...)
		_, err := Read(bytes.NewReader(in))
		require.ErrorAs(t, err, &mbe)
		assert.Equal(t, "$NodeData", mbe.Block)
		assert.Contains(t, mbe.Reason, "entry count")
	}
	{ // Entry count absurdly beyond the stream's length
		in := append(bytes.Clone(msh2Header),
			[]byte("$Nodes\n1\n1 0 0 0\n$EndNodes\n$NodeData\n1\n\"t\"\n1\n0.0\n3\n0\n1\n4611686018427387904\n1 1.5\n$EndNodeData\n")...)
		_, err := Read(bytes.NewReader(in))
		require.ErrorAs(t, err, &mbe)
		assert.Equal(t, "$NodeData", mbe.Block)
	}
	{ // Component count wider than any record could be
		in := append(bytes.Clone(msh2Header),
			[]byte("$Nodes\n1\n1 0 0 0\n$EndNodes\n$NodeData\n1\n\"t\"\n1\n0.0\n3\n0\n4611686018427387904\n1\n1 1.5\n$EndNodeData\n")...)
		_, err := Read(bytes.NewReader(in))
		require.ErrorAs(t, err, &mbe)
		assert.Contains(t, mbe.Reason, "component count")
	}
	{ // Integer tag count that would swallow the rest of the file
		in := append(bytes.Clone(msh2Header),
			[]byte("$Nodes\n1\n1 0 0 0\n$EndNodes\n$NodeData\n1\n\"t\"\n1\n0.0\n4611686018427387904\n0\n1\n1\n1 1.5\n$EndNodeData\n")...)
		_, err := Read(bytes.NewReader(in))
		require.ErrorAs(t, err, &mbe)
	}
}

func TestMSH2BinaryEmptyRunGroup(t *testing.T) {
	// Some writers emit a zero-length run per entity; the reader must step
	// over it and still land on the following group.
	c := newCodec(4)
	var buf bytes.Buffer
	require.NoError(t, writeHeader(&buf, "2.2", true, 4))
	buf.WriteString("$Nodes\n1\n")
	require.NoError(t, c.writeInt(&buf, 4, 1))
	for j := 0; j < 3; j++ {
		require.NoError(t, c.writeFloat(&buf, 8, 0))
	}
	buf.WriteString("\n$EndNodes\n$Elements\n1\n")
	for _, v := range []int64{15, 0, 0} { // vertex group with no records
		require.NoError(t, c.writeInt(&buf, 4, v))
	}
	for _, v := range []int64{15, 1, 0, 1, 1} { // vertex group holding element 1
		require.NoError(t, c.writeInt(&buf, 4, v))
	}
	buf.WriteString("\n$EndElements\n")

	m, err := Read(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, [][]int{{0}}, m.CellsOfType("vertex"))
}

func TestMSH2BinaryTruncation(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, triangleMesh(), "2", true))
	data := buf.Bytes()

	// Cut the stream at every offset inside the $Nodes and $Elements bodies;
	// no cut may yield a partial mesh without error.
	spans := [][2]int{
		{bytes.Index(data, []byte("$Nodes")) + len("$Nodes\n"), bytes.Index(data, []byte("$EndNodes"))},
		{bytes.Index(data, []byte("$Elements")) + len("$Elements\n"), bytes.Index(data, []byte("$EndElements"))},
	}
	for _, span := range spans {
		require.Greater(t, span[1], span[0])
		for cut := span[0]; cut < span[1]; cut++ {
			_, err := Read(bytes.NewReader(data[:cut]))
			assert.Error(t, err, "cut at %d parsed successfully", cut)
		}
	}
}

var msh2Header = []byte(`$MeshFormat
2.2 0 8
$EndMeshFormat
`)

var msh2File = []byte(`$MeshFormat
2.2 0 8
$EndMeshFormat
$PhysicalNames
2
1 7 "inlet"
2 8 "wall region"
$EndPhysicalNames
$Nodes
4
1 0 0 0
2 1 0 0
3 0 1 0
4 1 1 0
$EndNodes
$Elements
3
1 2 2 7 0 1 2 3
2 2 2 8 0 2 4 3
3 1 2 7 0 1 2
$EndElements
$NodeData
1
"temperature"
1
0.0
3
0
1
4
1 1.5
2 2.5
3 3.5
4 4.5
$EndNodeData
$ElementData
1
"quality"
1
0.0
3
0
1
2
1 0.9
2 0.8
$EndElementData
`)
