package main

import (
	"fmt"
	"os"

	"github.com/user/alsamixer-volume/internal/cli"
	"github.com/user/alsamixer-volume/internal/config"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "alsamixer-volume: %v\n", err)
		if cli.IsUsage(err) {
			fmt.Fprintf(os.Stderr, "usage:\n%s", config.HelpText())
		}
		os.Exit(cli.ExitCode(err))
	}
}
