package main

import (
	"os"

	"github.com/DiligentDeer/crvhealth/cmd/crvhealth/commands"
)

// main is the entry point for the crvhealth CLI:
// go run ./cmd/crvhealth [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
