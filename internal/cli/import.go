package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ABFCode/Librium-sub000/internal/config"
	"github.com/ABFCode/Librium-sub000/internal/entities"
	"github.com/ABFCode/Librium-sub000/internal/entrypoint"
)

// ImportCommand imports an EPUB file from disk into the local library,
// running the whole pipeline before it returns.
type ImportCommand struct {
	cfg      *config.Config
	FileName string
}

func NewImportCommand(cfg *config.Config) *cobra.Command {
	ic := &ImportCommand{cfg: cfg}
	cmd := &cobra.Command{
		Use:   "import <file.epub>",
		Short: "Import an EPUB file into the library",
		Long: `Stores the file, sends it to the parser service and ingests the result
as the local-dev user. The parser service must be reachable at PARSER_URL.`,
		Example: `  librium import "Pride and Prejudice.epub"
  librium import book.epub --name "Custom name.epub"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ic.Run(cmd, args[0])
		},
	}
	cmd.Flags().StringVar(&ic.FileName, "name", "", "file name recorded on the job (defaults to the base name of the path)")
	return cmd
}

func (ic *ImportCommand) Run(cmd *cobra.Command, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	name := ic.FileName
	if name == "" {
		name = filepath.Base(path)
	}

	core, err := entrypoint.OpenCore(ic.cfg, nil)
	if err != nil {
		return err
	}
	defer core.Close()

	owner, err := core.Users.EnsureLocalDevUser()
	if err != nil {
		return fmt.Errorf("failed to resolve local user: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Importing %s...\n", name)

	job, err := core.Pipeline.Submit(cmd.Context(), owner.ID, name, file)
	if err != nil {
		return err
	}
	// Without a dispatcher the pass has already run; reload the final state.
	job, err = core.Pipeline.Status(job.ID, owner.ID)
	if err != nil {
		return err
	}
	return reportJob(cmd, job)
}

func reportJob(cmd *cobra.Command, job *entities.ImportJob) error {
	out := cmd.OutOrStdout()
	switch job.Status {
	case entities.ImportStatusCompleted:
		fmt.Fprintf(out, "Job %d completed (attempt %d), book id %d\n", job.ID, job.Attempt, derefID(job.BookID))
		return nil
	case entities.ImportStatusFailed:
		return fmt.Errorf("job %d failed: %s (run 'retry %d' to try again)", job.ID, job.ErrorMessage, job.ID)
	default:
		fmt.Fprintf(out, "Job %d is %s\n", job.ID, job.Status)
		return nil
	}
}

func derefID(id *uint) uint {
	if id == nil {
		return 0
	}
	return *id
}
