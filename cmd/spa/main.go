// Command spa renders, previews and scaffolds spa projects.
package main

import (
	"fmt"
	"os"

	"github.com/go-drift/spa/cmd/spa/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
