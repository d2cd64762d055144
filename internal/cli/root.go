// Package cli holds the librium command line. Without a subcommand the
// binary serves the HTTP API; the other commands work directly against the
// configured database and blob store as the local-dev user.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/ABFCode/Librium-sub000/internal/config"
	"github.com/ABFCode/Librium-sub000/internal/logging"
)

// ServeFunc starts the HTTP server and blocks until shutdown.
type ServeFunc func() error

func NewRootCommand(cfg *config.Config, version string, serve ServeFunc) *cobra.Command {
	root := &cobra.Command{
		Use:           "librium",
		Short:         "EPUB library and reader backend",
		Version:       version,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}

	offline := []*cobra.Command{
		NewImportCommand(cfg),
		NewJobsCommand(cfg),
		NewRetryCommand(cfg),
	}
	for _, cmd := range offline {
		cmd.PreRun = func(cmd *cobra.Command, args []string) {
			logging.Init(cfg.Logging)
		}
		cmd.PostRun = func(cmd *cobra.Command, args []string) {
			logging.Sync()
		}
	}

	root.AddCommand(serveCmd)
	root.AddCommand(offline...)
	return root
}
