package params

import (
	"fmt"

	"github.com/ghodss/yaml"
)

// Parameters obtained from the YAML conversion deck
type ConvertParameters struct {
	Title         string `yaml:"Title"`
	InputFile     string `yaml:"InputFile"`
	OutputFile    string `yaml:"OutputFile"`
	OutputVersion string `yaml:"OutputVersion"` // "2", "4" or "4.1"
	Binary        bool   `yaml:"Binary"`
}

func (cp *ConvertParameters) Parse(data []byte) error {
	return yaml.Unmarshal(data, cp)
}

func (cp *ConvertParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", cp.Title)
	fmt.Printf("[%s]\t\t= Input File\n", cp.InputFile)
	fmt.Printf("[%s]\t\t= Output File\n", cp.OutputFile)
	fmt.Printf("[%s]\t\t\t= Output Version\n", cp.OutputVersion)
	fmt.Printf("[%v]\t\t\t= Binary\n", cp.Binary)
}
