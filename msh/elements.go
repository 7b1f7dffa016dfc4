package msh

// Gmsh element type codes, shared by every version of the format. The code
// appears in element block headers; arity is the fixed node count per cell
// and dim the topological dimension, used when synthesizing entity blocks.
//
// From https://gmsh.info/doc/texinfo/gmsh.html#MSH-file-format
type elementType struct {
	code  int
	name  string
	arity int
	dim   int
}

var elementTypes = []elementType{
	{1, "line", 2, 1},
	{2, "triangle", 3, 2},
	{3, "quad", 4, 2},
	{4, "tetra", 4, 3},
	{5, "hexahedron", 8, 3},
	{6, "wedge", 6, 3},
	{7, "pyramid", 5, 3},
	{8, "line3", 3, 1},
	{9, "triangle6", 6, 2},
	{10, "quad9", 9, 2},
	{11, "tetra10", 10, 3},
	{15, "vertex", 1, 0},
}

func elementTypeByCode(code int) (elementType, bool) {
	for _, et := range elementTypes {
		if et.code == code {
			return et, true
		}
	}
	return elementType{}, false
}

func elementTypeByName(name string) (elementType, bool) {
	for _, et := range elementTypes {
		if et.name == name {
			return et, true
		}
	}
	return elementType{}, false
}
