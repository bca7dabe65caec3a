// Package video adapts Veo long-running operations to the deferred job lifecycle.
package video

import (
	"context"
	"strings"

	"studio/internal/domain"
	"studio/internal/providers/genai"
)

// DefaultState is reported while the operation carries no metadata state.
const DefaultState = "IN_PROGRESS"

// Generator is the slice of the Gemini client the adapter uses.
type Generator interface {
	GenerateVideos(ctx context.Context, apiKey string, req genai.VideoRequest) (genai.Operation, error)
	GetOperation(ctx context.Context, apiKey, name string) (genai.Operation, error)
}

// VeoGenerator submits video predictions and polls their operations.
type VeoGenerator struct {
	client Generator
}

func NewVeoGenerator(client Generator) *VeoGenerator {
	return &VeoGenerator{client: client}
}

func (v *VeoGenerator) Provider() string { return domain.ProviderGemini }

// Submit starts the operation and defers on its name.
func (v *VeoGenerator) Submit(ctx context.Context, job domain.Job, apiKey string) domain.Outcome {
	if apiKey == "" {
		return domain.Failed(domain.NewMessageError(domain.ErrMissingCredential, "Gemini API key is not configured."))
	}
	p := job.Params.Video
	if p == nil {
		return domain.Failed(domain.NewMessageError(domain.ErrInvalidInput, "video parameters are required"))
	}
	op, err := v.client.GenerateVideos(ctx, apiKey, genai.VideoRequest{
		Model:          p.Model,
		Prompt:         p.Prompt,
		NumberOfVideos: p.NumberOfVideos,
		Seed:           p.Seed,
		Image:          p.InputImage,
	})
	if err != nil {
		return domain.Failed(err)
	}
	return domain.Deferred(op.Name, "job_status_polling")
}

// Poll refreshes the operation. A provider error on a finished operation is a
// poll error.
func (v *VeoGenerator) Poll(ctx context.Context, job domain.Job, apiKey string) (domain.PollResult, error) {
	if apiKey == "" {
		return domain.PollResult{}, domain.NewMessageError(domain.ErrMissingCredential, "Gemini API key is not configured.")
	}
	op, err := v.client.GetOperation(ctx, apiKey, job.Handle)
	if err != nil {
		return domain.PollResult{}, err
	}
	if op.Error != nil && op.Error.Message != "" {
		return domain.PollResult{}, domain.NewMessageError(domain.ErrRemoteCallFailed, op.Error.Message)
	}
	handle := op.Name
	if handle == "" {
		handle = job.Handle
	}
	if !op.Done {
		state := op.Metadata.State
		if state == "" {
			state = DefaultState
		}
		return domain.PollResult{
			Handle:     handle,
			StatusKey:  "video_job_status_message_processing",
			StatusArgs: map[string]string{"state": state},
		}, nil
	}
	return domain.PollResult{Done: true, Handle: handle, Results: op.VideoURIs()}, nil
}

// Finalize authorizes a download URI with the key.
func (v *VeoGenerator) Finalize(uri, apiKey string) string {
	sep := "?"
	if strings.Contains(uri, "?") {
		sep = "&"
	}
	return uri + sep + "key=" + apiKey
}

var (
	_ domain.RemoteOperation = (*VeoGenerator)(nil)
	_ domain.RemotePoller    = (*VeoGenerator)(nil)
)
