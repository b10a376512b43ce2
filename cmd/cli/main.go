package main

import (
	"os"

	"github.com/donezo-dev/donezo/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
