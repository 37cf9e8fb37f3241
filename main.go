// The main package for the tender-acquirer executable.
package main

import (
	"github.com/JakeFAU/tender-acquirer/cmd"
)

// main defers all execution to the Cobra CLI.
func main() {
	cmd.Execute()
}
