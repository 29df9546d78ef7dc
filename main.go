package main

import (
	"os"

	"github.com/northbound-labs/compass/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
