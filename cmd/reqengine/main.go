package main

import (
	"fmt"
	"os"

	"github.com/gaborage/reqengine/internal/commands"
)

var version = "dev" // Set during build

func main() {
	if err := commands.NewRootCommand(version).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
