package main

import (
	"os"

	"github.com/spigell/ta-nexus/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
