package main

import (
	"os"

	"github.com/sampark/sampark/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
