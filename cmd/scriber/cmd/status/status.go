package status

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MyButtermilk/Scriber-sub000/internal/app"
	apperrors "github.com/MyButtermilk/Scriber-sub000/internal/app/errors"
	"github.com/MyButtermilk/Scriber-sub000/internal/config"
)

var (
	jobID        string
	transcriptID string
	pending      bool
	limit        int
)

// Cmd represents the status command
var Cmd = &cobra.Command{
	Use:   "status",
	Short: "Inspect jobs in the ledger",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Resolve()
		if err != nil {
			return err
		}
		application, cleanup, err := app.InitializeApplication(cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		switch {
		case jobID != "":
			job, err := application.Ledger.Get(jobID)
			if err != nil {
				return err
			}
			if job == nil {
				return apperrors.Wrapf(apperrors.ErrJobNotFound, "job %s", jobID)
			}
			return printJSON(job)
		case transcriptID != "":
			job, err := application.Ledger.GetByTranscriptID(transcriptID)
			if err != nil {
				return err
			}
			if job == nil {
				return apperrors.Wrapf(apperrors.ErrJobNotFound, "transcript %s", transcriptID)
			}
			return printJSON(job)
		case pending:
			jobs, err := application.Ledger.ListPending(limit)
			if err != nil {
				return err
			}
			return printJSON(jobs)
		default:
			return apperrors.New("one of --job, --transcript or --pending is required")
		}
	},
}

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func init() {
	Cmd.Flags().StringVarP(&jobID, "job", "j", "", "job ID to look up")
	Cmd.Flags().StringVarP(&transcriptID, "transcript", "t", "", "transcript ID to look up")
	Cmd.Flags().BoolVarP(&pending, "pending", "p", false, "list pending jobs")
	Cmd.Flags().IntVar(&limit, "limit", 50, "maximum pending jobs to list")
}
