package main

import (
	"os"

	"github.com/Rana718/pizzaseed/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
