// Command server runs the docuproof HTTP API. It is equivalent to
// "docuproof serve".
package main

import (
	"fmt"
	"os"

	"github.com/dgallion1/docuproof/internal/cli"
)

func main() {
	if err := cli.Serve(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
