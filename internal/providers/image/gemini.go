// Package image adapts Imagen predictions to the synchronous job lifecycle.
package image

import (
	"context"
	"strings"

	"studio/internal/domain"
	"studio/internal/providers/genai"
)

// OutputMimeType is requested for every image and used in the data URLs.
const OutputMimeType = "image/png"

// Generator is the slice of the Gemini client the adapter uses.
type Generator interface {
	GenerateImages(ctx context.Context, apiKey string, req genai.ImageRequest) ([]genai.Image, error)
}

// GeminiGenerator completes image jobs in one call.
type GeminiGenerator struct {
	client Generator
}

func NewGeminiGenerator(client Generator) *GeminiGenerator {
	return &GeminiGenerator{client: client}
}

func (g *GeminiGenerator) Provider() string { return domain.ProviderGemini }

// Submit renders the prompt, requests the images and returns them as
// data:image/png URLs.
func (g *GeminiGenerator) Submit(ctx context.Context, job domain.Job, apiKey string) domain.Outcome {
	if apiKey == "" {
		return domain.Failed(domain.NewMessageError(domain.ErrMissingCredential, "Gemini API key is not configured."))
	}
	p := job.Params.Image
	if p == nil {
		return domain.Failed(domain.NewMessageError(domain.ErrInvalidInput, "image parameters are required"))
	}

	images, err := g.client.GenerateImages(ctx, apiKey, genai.ImageRequest{
		Prompt:         FinalPrompt(p.Prompt, p.Style),
		NumberOfImages: p.NumberOfImages,
		AspectRatio:    p.AspectRatio,
		OutputMimeType: OutputMimeType,
		Seed:           p.Seed,
		NegativePrompt: p.NegativePrompt,
	})
	if err != nil {
		return domain.Failed(err)
	}
	if len(images) == 0 {
		return domain.Failed(domain.NewMessageError(domain.ErrEmptyResult, "Image generation failed. No images were returned."))
	}

	urls := make([]string, len(images))
	for i, img := range images {
		urls[i] = "data:" + OutputMimeType + ";base64," + img.BytesBase64
	}
	return domain.Immediate(urls)
}

// FinalPrompt appends the style hint to the prompt.
func FinalPrompt(prompt, style string) string {
	if style = strings.TrimSpace(style); style != "" {
		return prompt + ", in a " + style + " style"
	}
	return prompt
}

var _ domain.RemoteOperation = (*GeminiGenerator)(nil)
