package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ABFCode/Librium-sub000/internal/config"
	"github.com/ABFCode/Librium-sub000/internal/entities"
	"github.com/ABFCode/Librium-sub000/internal/entrypoint"
)

// Output formats accepted by --output.
const (
	OutputTable = "table"
	OutputJSON  = "json"
	OutputYAML  = "yaml"
)

type jobRecord struct {
	ID       uint                  `json:"id" yaml:"id"`
	FileName string                `json:"fileName" yaml:"fileName"`
	Status   entities.ImportStatus `json:"status" yaml:"status"`
	Attempt  int                   `json:"attempt" yaml:"attempt"`
	BookID   *uint                 `json:"bookId,omitempty" yaml:"bookId,omitempty"`
	Error    string                `json:"error,omitempty" yaml:"error,omitempty"`
	Created  time.Time             `json:"createdAt" yaml:"createdAt"`
}

func NewJobsCommand(cfg *config.Config) *cobra.Command {
	var (
		output string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List recent import jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			core, err := entrypoint.OpenCore(cfg, nil)
			if err != nil {
				return err
			}
			defer core.Close()

			owner, err := core.Users.EnsureLocalDevUser()
			if err != nil {
				return fmt.Errorf("failed to resolve local user: %w", err)
			}
			jobs, err := core.Pipeline.List(owner.ID, limit)
			if err != nil {
				return err
			}
			return writeJobs(cmd.OutOrStdout(), jobs, output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", OutputTable, "output format: table, json or yaml")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of jobs to show")
	return cmd
}

func writeJobs(w io.Writer, jobs []entities.ImportJob, format string) error {
	records := make([]jobRecord, 0, len(jobs))
	for _, j := range jobs {
		records = append(records, jobRecord{
			ID:       j.ID,
			FileName: j.FileName,
			Status:   j.Status,
			Attempt:  j.Attempt,
			BookID:   j.BookID,
			Error:    j.ErrorMessage,
			Created:  j.CreatedAt,
		})
	}

	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	case OutputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(records); err != nil {
			return err
		}
		return enc.Close()
	case OutputTable, "":
		if len(records) == 0 {
			_, err := fmt.Fprintln(w, "No import jobs.")
			return err
		}
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tSTATUS\tATTEMPT\tFILE\tERROR")
		for _, r := range records {
			fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\n", r.ID, r.Status, r.Attempt, r.FileName, r.Error)
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
