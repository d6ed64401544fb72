// Command kineticcore generates and imports kinetic laws for stored models.
package main

import (
	"fmt"
	"os"

	"kineticcore/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
