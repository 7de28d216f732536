package main

import (
	"os"

	"github.com/dalemusser/mentorhub/internal/app/cli"
)

func main() {
	if err := cli.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
