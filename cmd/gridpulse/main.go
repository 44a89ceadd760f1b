package main

import (
	"os"

	"github.com/ewanb/gridpulse/cmd/gridpulse/commands"
)

// main is the entry point for the gridpulse CLI
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
