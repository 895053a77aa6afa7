// The main package for the competiscan executable.
package main

import (
	"github.com/competiscan/competiscan/cmd"
)

func main() {
	cmd.Execute()
}
