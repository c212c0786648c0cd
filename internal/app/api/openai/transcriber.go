// Package openai provides a transcriber for OpenAI-compatible speech-to-text
// endpoints. Several hosted vendors expose the same audio API shape, so one
// adapter configured with a base URL covers them.
package openai

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/MyButtermilk/Scriber-sub000/internal/app/model"
)

// Config configures one OpenAI-compatible transcription endpoint.
type Config struct {
	APIKey  string
	BaseURL string // empty means the official OpenAI endpoint
	Model   string // empty means whisper-1
}

// Transcriber calls an OpenAI-compatible transcription API.
type Transcriber struct {
	client *openai.Client
	model  string
}

// NewTranscriber creates a transcriber for the configured endpoint.
func NewTranscriber(config Config) *Transcriber {
	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	modelName := config.Model
	if modelName == "" {
		modelName = openai.Whisper1
	}
	return &Transcriber{
		client: openai.NewClientWithConfig(clientConfig),
		model:  modelName,
	}
}

// Transcribe uploads the job's audio file and returns the transcription
// text. The vendor's error text is passed through for classification.
func (t *Transcriber) Transcribe(ctx context.Context, job *model.Job) (string, error) {
	filePath := job.Payload["file_path"]
	if filePath == "" {
		return "", fmt.Errorf("invalid configuration: job %s has no file_path in payload", job.ID)
	}

	req := openai.AudioRequest{
		Model:    t.model,
		FilePath: filePath,
		Language: job.Payload["language"],
	}
	resp, err := t.client.CreateTranscription(ctx, req)
	if err != nil {
		return "", fmt.Errorf("createTranscription failed: %w", err)
	}

	return resp.Text, nil
}
