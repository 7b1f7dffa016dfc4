package main

import "github.com/meshfmt/meshfmt/cmd"

func main() {
	cmd.Execute()
}
