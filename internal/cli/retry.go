package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ABFCode/Librium-sub000/internal/config"
	"github.com/ABFCode/Librium-sub000/internal/entrypoint"
	"github.com/ABFCode/Librium-sub000/internal/importers"
)

func NewRetryCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "retry <jobId>",
		Short: "Retry a failed import job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil || id == 0 {
				return fmt.Errorf("invalid job id %q", args[0])
			}

			core, err := entrypoint.OpenCore(cfg, nil)
			if err != nil {
				return err
			}
			defer core.Close()

			owner, err := core.Users.EnsureLocalDevUser()
			if err != nil {
				return fmt.Errorf("failed to resolve local user: %w", err)
			}

			job, err := core.Pipeline.Retry(cmd.Context(), uint(id), owner.ID)
			if errors.Is(err, importers.ErrNotRetryable) {
				return fmt.Errorf("job %d is not failed and cannot be retried", id)
			}
			if err != nil {
				return err
			}
			job, err = core.Pipeline.Status(job.ID, owner.ID)
			if err != nil {
				return err
			}
			return reportJob(cmd, job)
		},
	}
}
