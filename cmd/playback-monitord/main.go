package main

import (
	"os"

	"github.com/pfrederiksen/playback-monitor/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
