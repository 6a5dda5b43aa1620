package main

import (
	"os"

	"github.com/mkarrett/codescope/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
