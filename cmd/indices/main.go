package main

import (
	"os"

	"github.com/futureeconomy/indices/cmd/indices/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
