package main

import (
	"os"

	"qualsight/cmd/qualsight/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
