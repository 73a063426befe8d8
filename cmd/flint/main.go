package main

import (
	"os"

	"github.com/go-flint/flint/cmd/flint/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
