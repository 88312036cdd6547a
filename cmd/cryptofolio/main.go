package main

import (
	"os"

	"github.com/cryptofolio/backend/cmd/cryptofolio/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
