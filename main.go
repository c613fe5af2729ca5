package main

import (
	"os"

	"github.com/xdevkit/xdevkit-cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(cmd.ExitCode(err))
	}
}
