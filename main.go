// The main package for the coverletter executable.
package main

import (
	"github.com/JakeFAU/coverletter/cmd"
)

// main defers all execution to the Cobra CLI.
func main() {
	cmd.Execute()
}
