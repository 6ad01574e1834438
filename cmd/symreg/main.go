// Command symreg interns names into a persistent symbol registry.
package main

import (
	"os"

	"github.com/roach88/symreg/internal/cli"
)

func main() {
	os.Exit(cli.Execute(cli.NewRootCommand()))
}
