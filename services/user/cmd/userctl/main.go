package main

import (
	"os"

	"github.com/mosgim/platform/services/user/cmd/userctl/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
