/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/meshfmt/meshfmt/mesh"
	"github.com/meshfmt/meshfmt/msh"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"
)

// InfoCmd represents the info command
var InfoCmd = &cobra.Command{
	Use:   "info [file]",
	Short: "Print a summary of a msh mesh file",
	Long: `
Reads a Gmsh msh file and prints node and cell counts, the cell types
present, attached data fields and the mesh bounding box.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		m, err := msh.ReadFile(args[0])
		if err != nil {
			fmt.Printf("error reading %s: %s\n", args[0], err.Error())
			os.Exit(1)
		}
		PrintInfo(args[0], m)
	},
}

func PrintInfo(name string, m *mesh.Mesh) {
	fmt.Printf("%s:\n", name)
	fmt.Printf("Nv = %d, K = %d\n", len(m.Points), m.NumCells())
	for _, cb := range m.Cells {
		fmt.Printf("  %-12s %d\n", cb.Type, len(cb.Conn))
	}
	if len(m.PointData) != 0 {
		names := make([]string, 0, len(m.PointData))
		for fname := range m.PointData {
			names = append(names, fname)
		}
		sort.Strings(names)
		for _, fname := range names {
			fmt.Printf("  point data %q, width %d\n", fname, width(m.PointData[fname]))
		}
	}
	for _, cb := range m.Cells {
		fields := m.CellData[cb.Type]
		names := make([]string, 0, len(fields))
		for fname := range fields {
			names = append(names, fname)
		}
		sort.Strings(names)
		for _, fname := range names {
			fmt.Printf("  cell data %q on %s, width %d\n", fname, cb.Type, width(fields[fname]))
		}
	}
	if len(m.Points) != 0 {
		x := make([]float64, len(m.Points))
		y := make([]float64, len(m.Points))
		z := make([]float64, len(m.Points))
		for i, p := range m.Points {
			x[i], y[i], z[i] = p[0], p[1], p[2]
		}
		fmt.Printf("Bounding Box:\nXMin/XMax = %5.3f, %5.3f\nYMin/YMax = %5.3f, %5.3f\nZMin/ZMax = %5.3f, %5.3f\n",
			floats.Min(x), floats.Max(x), floats.Min(y), floats.Max(y), floats.Min(z), floats.Max(z))
	}
}

func width(vals [][]float64) int {
	if len(vals) == 0 {
		return 0
	}
	return len(vals[0])
}

func init() {
	rootCmd.AddCommand(InfoCmd)
}
