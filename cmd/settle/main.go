package main

import (
	"os"

	"github.com/mmynk/receiptsplit/cmd/settle/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
