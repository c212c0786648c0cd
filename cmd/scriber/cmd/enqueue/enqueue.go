package enqueue

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MyButtermilk/Scriber-sub000/internal/app"
	apperrors "github.com/MyButtermilk/Scriber-sub000/internal/app/errors"
	"github.com/MyButtermilk/Scriber-sub000/internal/app/model"
	"github.com/MyButtermilk/Scriber-sub000/internal/config"
)

var (
	transcriptID string
	jobType      string
	filePath     string
	url          string
	language     string
	jobID        string
)

// Cmd represents the enqueue command
var Cmd = &cobra.Command{
	Use:   "enqueue",
	Short: "Add a transcription job to the ledger",
	Long: `Persists a new job in the durable ledger. A running serve process
picks it up on its next poll; otherwise the job waits until one starts.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		payload := map[string]string{}
		switch model.JobType(jobType) {
		case model.JobTypeFile:
			if filePath == "" {
				return apperrors.New("--file is required for file jobs")
			}
			payload["file_path"] = filePath
		case model.JobTypeYouTube:
			if url == "" {
				return apperrors.New("--url is required for youtube jobs")
			}
			payload["url"] = url
		default:
			return apperrors.Newf("unknown job type %q", jobType)
		}
		if language != "" {
			payload["language"] = language
		}

		cfg, err := config.Resolve()
		if err != nil {
			return err
		}
		application, cleanup, err := app.InitializeApplication(cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		job, err := application.Ledger.Enqueue(transcriptID, model.JobType(jobType), payload, jobID)
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(job, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	Cmd.Flags().StringVarP(&transcriptID, "transcript", "t", "", "transcript ID the job belongs to")
	Cmd.Flags().StringVar(&jobType, "type", "file", "job type: file or youtube")
	Cmd.Flags().StringVarP(&filePath, "file", "f", "", "audio file to transcribe")
	Cmd.Flags().StringVarP(&url, "url", "u", "", "video URL to transcribe")
	Cmd.Flags().StringVarP(&language, "language", "l", "", "spoken language hint")
	Cmd.Flags().StringVar(&jobID, "id", "", "explicit job ID, re-enqueues when it already exists")
	_ = Cmd.MarkFlagRequired("transcript")
}
