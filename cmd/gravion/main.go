package main

import (
	"os"

	"gravion/cmd/gravion/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
