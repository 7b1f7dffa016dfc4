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

	"github.com/meshfmt/meshfmt/msh"
	"github.com/meshfmt/meshfmt/params"
	"github.com/spf13/cobra"
)

// ConvertCmd represents the convert command
var ConvertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Rewrite a mesh file in another msh version or encoding",
	Long: `
Reads a Gmsh msh file (any supported version, ASCII or binary) and writes
it back out in the requested version and encoding.

meshfmt convert -i mesh.msh -o out.msh -v 4.1`,
	Run: func(cmd *cobra.Command, args []string) {
		cp := &params.ConvertParameters{}
		if deckFile, _ := cmd.Flags().GetString("paramsFile"); len(deckFile) != 0 {
			data, err := os.ReadFile(deckFile)
			if err != nil {
				fmt.Printf("error: %s\n", err.Error())
				os.Exit(1)
			}
			if err = cp.Parse(data); err != nil {
				fmt.Printf("error: %s\n", err.Error())
				os.Exit(1)
			}
		}
		if f, _ := cmd.Flags().GetString("inputFile"); len(f) != 0 {
			cp.InputFile = f
		}
		if f, _ := cmd.Flags().GetString("outputFile"); len(f) != 0 {
			cp.OutputFile = f
		}
		if v, _ := cmd.Flags().GetString("outputVersion"); len(v) != 0 {
			cp.OutputVersion = v
		}
		if cmd.Flags().Changed("binary") {
			cp.Binary, _ = cmd.Flags().GetBool("binary")
		}
		RunConvert(cp)
	},
}

func RunConvert(cp *params.ConvertParameters) {
	var willExit bool
	if len(cp.InputFile) == 0 {
		fmt.Printf("error: must supply an input file (-i, --inputFile) in msh format\n")
		willExit = true
	}
	if len(cp.OutputFile) == 0 {
		fmt.Printf("error: must supply an output file (-o, --outputFile)\n")
		willExit = true
	}
	if willExit {
		exampleFile := `
########################################
Title: "Coarse airfoil mesh to 4.1"
InputFile: "naca12.msh"
OutputFile: "naca12_41.msh"
OutputVersion: "4.1"
Binary: false
########################################
`
		fmt.Printf("example parameters file (-p, --paramsFile):%s", exampleFile)
		os.Exit(1)
	}
	if len(cp.OutputVersion) == 0 {
		cp.OutputVersion = "4"
	}
	cp.Print()

	m, err := msh.ReadFile(cp.InputFile)
	if err != nil {
		fmt.Printf("error reading %s: %s\n", cp.InputFile, err.Error())
		os.Exit(1)
	}
	if err = msh.WriteFile(cp.OutputFile, m, cp.OutputVersion, cp.Binary); err != nil {
		fmt.Printf("error writing %s: %s\n", cp.OutputFile, err.Error())
		os.Exit(1)
	}
	fmt.Printf("wrote %s: %d points, %d cells\n", cp.OutputFile, len(m.Points), m.NumCells())
}

func init() {
	rootCmd.AddCommand(ConvertCmd)
	ConvertCmd.Flags().StringP("inputFile", "i", "", "input mesh file in msh format")
	ConvertCmd.Flags().StringP("outputFile", "o", "", "output mesh file")
	ConvertCmd.Flags().StringP("outputVersion", "v", "", "output msh version: 2, 4 or 4.1")
	ConvertCmd.Flags().BoolP("binary", "b", false, "write binary mode instead of ASCII")
	ConvertCmd.Flags().StringP("paramsFile", "p", "", "YAML conversion parameters file")
}
