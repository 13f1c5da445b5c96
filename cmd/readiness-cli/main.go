package main

import (
	"os"

	"readiness-workers/cmd/readiness-cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
