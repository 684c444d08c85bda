package main

import (
	"fmt"
	"os"

	"github.com/edupipe/pdf-image-extractor/cmd/pdf-image-extractor/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
