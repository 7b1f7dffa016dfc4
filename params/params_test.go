package params

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertParametersParse(t *testing.T) {
	deck := []byte(`
Title: "Coarse airfoil mesh to 4.1"
InputFile: "naca12.msh"
OutputFile: "naca12_41.msh"
OutputVersion: "4.1"
Binary: true
`)
	cp := &ConvertParameters{}
	require.NoError(t, cp.Parse(deck))
	assert.Equal(t, "Coarse airfoil mesh to 4.1", cp.Title)
	assert.Equal(t, "naca12.msh", cp.InputFile)
	assert.Equal(t, "naca12_41.msh", cp.OutputFile)
	assert.Equal(t, "4.1", cp.OutputVersion)
	assert.True(t, cp.Binary)

	// Unknown keys are tolerated, missing keys zero-valued
	cp = &ConvertParameters{}
	require.NoError(t, cp.Parse([]byte("Title: \"x\"\nExtra: 1\n")))
	assert.Equal(t, "x", cp.Title)
	assert.False(t, cp.Binary)
}
