package cmd

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshfmt/meshfmt/mesh"
	"github.com/meshfmt/meshfmt/msh"
	"github.com/meshfmt/meshfmt/params"
)

func TestRunConvert(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.msh")
	out := filepath.Join(dir, "out.msh")

	m := &mesh.Mesh{
		Points: [][3]float64{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Cells:  []mesh.CellBlock{{Type: "triangle", Conn: [][]int{{0, 1, 2}}}},
	}
	require.NoError(t, msh.WriteFile(in, m, "2", true))

	RunConvert(&params.ConvertParameters{
		InputFile:     in,
		OutputFile:    out,
		OutputVersion: "4.1",
	})

	got, err := msh.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, m, got)

	PrintInfo(out, got)
}
