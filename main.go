package main

import (
	"os"

	"github.com/moratsam/sbox-analysis/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
