package msh

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadMSH40ASCII(t *testing.T) {
	m, err := Read(bytes.NewReader(msh40File))
	require.NoError(t, err)

	assert.Equal(t, 3, len(m.Points))
	assert.Equal(t, [3]float64{0, 1, 0}, m.Points[2])
	require.Equal(t, []string{"triangle"}, m.CellTypes())
	assert.Equal(t, [][]int{{0, 1, 2}}, m.CellsOfType("triangle"))
}

func TestReadMSH41ASCII(t *testing.T) {
	m, err := Read(bytes.NewReader(msh41File))
	require.NoError(t, err)

	{ // Sparse node tags are renumbered but referential integrity holds
		assert.Equal(t, 3, len(m.Points))
		require.Equal(t, []string{"triangle"}, m.CellTypes())
		tri := m.CellsOfType("triangle")[0]
		seen := map[int]bool{}
		for _, n := range tri {
			assert.GreaterOrEqual(t, n, 0)
			assert.Less(t, n, 3)
			seen[n] = true
		}
		assert.Len(t, seen, 3)
	}
}

func TestReadMSH4Malformed(t *testing.T) {
	var mbe *MalformedBodyError
	{ // 4.0 node blocks must add up to the declared total
		in := []byte("$MeshFormat\n4.0 0 8\n$EndMeshFormat\n" +
			"$Nodes\n1 5\n1 0 0 1\n1 0 0 0\n$EndNodes\n")
		_, err := Read(bytes.NewReader(in))
		require.ErrorAs(t, err, &mbe)
		assert.Equal(t, "$Nodes", mbe.Block)
		assert.Contains(t, mbe.Reason, "declares")
	}
	{ // 4.1 element record with the wrong arity
		in := []byte("$MeshFormat\n4.1 0 8\n$EndMeshFormat\n" +
			"$Nodes\n1 3 1 3\n2 1 0 3\n1\n2\n3\n0 0 0\n1 0 0\n0 1 0\n$EndNodes\n" +
			"$Elements\n1 1 1 1\n2 1 2 1\n1 1 2\n$EndElements\n")
		_, err := Read(bytes.NewReader(in))
		require.ErrorAs(t, err, &mbe)
		assert.Equal(t, "$Elements", mbe.Block)
	}
	{ // Entity record with a dangling physical tag count
		in := []byte("$MeshFormat\n4.1 0 8\n$EndMeshFormat\n" +
			"$Entities\n1 0 0 0\n1 0 0 0 2 5\n$EndEntities\n")
		_, err := Read(bytes.NewReader(in))
		require.ErrorAs(t, err, &mbe)
		assert.Equal(t, "$Entities", mbe.Block)
	}
}

func TestReadMSH4HostileCounts(t *testing.T) {
	var mbe *MalformedBodyError
	{ // Negative node count in a 4.1 block header
		in := []byte("$MeshFormat\n4.1 0 8\n$EndMeshFormat\n" +
			"$Nodes\n1 1 1 1\n0 1 0 -5\n$EndNodes\n")
		_, err := Read(bytes.NewReader(in))
		require.ErrorAs(t, err, &mbe)
		assert.Equal(t, "$Nodes", mbe.Block)
		assert.Contains(t, mbe.Reason, "bad node count")
	}
	{ // Node count far beyond anything the stream could hold
		in := []byte("$MeshFormat\n4.1 0 8\n$EndMeshFormat\n" +
			"$Nodes\n1 1 1 1\n0 1 0 4611686018427387904\n$EndNodes\n")
		_, err := Read(bytes.NewReader(in))
		require.ErrorAs(t, err, &mbe)
		assert.Equal(t, "$Nodes", mbe.Block)
	}
	{ // Negative totals in the 4.0 $Nodes header
		in := []byte("$MeshFormat\n4.0 0 8\n$EndMeshFormat\n$Nodes\n-1 -1\n$EndNodes\n")
		_, err := Read(bytes.NewReader(in))
		require.ErrorAs(t, err, &mbe)
		assert.Equal(t, "$Nodes", mbe.Block)
	}
	{ // Negative element count in a 4.0 block header
		in := []byte("$MeshFormat\n4.0 0 8\n$EndMeshFormat\n" +
			"$Elements\n1 1\n1 2 2 -1\n$EndElements\n")
		_, err := Read(bytes.NewReader(in))
		require.ErrorAs(t, err, &mbe)
		assert.Equal(t, "$Elements", mbe.Block)
		assert.Contains(t, mbe.Reason, "bad element count")
	}
	{ // Negative entity count
		in := []byte("$MeshFormat\n4.1 0 8\n$EndMeshFormat\n" +
			"$Entities\n-1 0 0 0\n$EndEntities\n")
		_, err := Read(bytes.NewReader(in))
		require.ErrorAs(t, err, &mbe)
		assert.Equal(t, "$Entities", mbe.Block)
	}
}

func TestMSH4BinaryRoundTrip(t *testing.T) {
	// The 4.x binary layouts carry their counts at the header data-size
	// width; make sure a full write/read cycle holds together in both.
	for _, version := range []string{"4", "4.1"} {
		var buf bytes.Buffer
		m := triangleMesh()
		require.NoError(t, Write(&buf, m, version, true))
		got, err := Read(bytes.NewReader(buf.Bytes()))
		require.NoError(t, err, "version %s", version)
		assert.Equal(t, m, got, "version %s", version)
	}
}

var msh40File = []byte(`$MeshFormat
4.0 0 8
$EndMeshFormat
$Entities
1 0 1 0
1 0 0 0 0 0 0 0
2 0 0 0 1 1 0 0 0
$EndEntities
$Nodes
1 3
2 2 0 3
1 0 0 0
2 1 0 0
3 0 1 0
$EndNodes
$Elements
1 1
2 2 2 1
1 1 2 3
$EndElements
`)

var msh41File = []byte(`$MeshFormat
4.1 0 8
$EndMeshFormat
$Entities
1 0 1 0
1 0 0 0 0
2 0 0 0 0 0 0 0 0
$EndEntities
$Nodes
1 3 11 17
2 2 0 3
11
14
17
0 0 0
1 0 0
0 1 0
$EndNodes
$Elements
1 1 1 1
2 2 2 1
1 14 17 11
$EndElements
`)
