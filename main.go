package main

import (
	"os"

	"github.com/ABFCode/Librium-sub000/internal/cli"
	"github.com/ABFCode/Librium-sub000/internal/config"
	"github.com/ABFCode/Librium-sub000/internal/entrypoint"
)

// Version information - set at build time via ldflags
var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	cfg := config.NewConfig()
	root := cli.NewRootCommand(cfg, Version+" ("+Commit+")", func() error {
		return entrypoint.Run(cfg, Version)
	})
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
