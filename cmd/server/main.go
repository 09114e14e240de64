package main

import (
	"os"

	"github.com/iliyamo/hotel-reservation/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
