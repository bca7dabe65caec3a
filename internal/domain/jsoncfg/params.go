package jsoncfg

import (
	"fmt"
	"strconv"
	"strings"

	"studio/internal/domain"
)

var allowedAspectRatios = map[string]struct{}{
	"1:1":  {},
	"16:9": {},
	"9:16": {},
	"4:3":  {},
	"3:4":  {},
}

const (
	// DefaultAspectRatio is used when the request omits the aspect ratio.
	DefaultAspectRatio = "1:1"
	// DefaultQuantity applies to images and videos alike.
	DefaultQuantity = 1
	// MaxImageQuantity caps numberOfImages per request.
	MaxImageQuantity = 4
	// MaxVideoQuantity caps numberOfVideos per request.
	MaxVideoQuantity = 4
	// DefaultVideoModel is the Veo model used when none is requested.
	DefaultVideoModel = "veo-2.0-generate-001"
)

// ParseSeed turns a user-entered seed into a pointer. Blank input means no seed.
func ParseSeed(raw string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return nil, domain.NewMessageError(domain.ErrInvalidInput, "Seed must be a positive number.")
	}
	return &v, nil
}

// NormalizeImage applies server defaults to image parameters.
func NormalizeImage(p *domain.ImageParams) {
	if p == nil {
		return
	}
	p.Prompt = strings.TrimSpace(p.Prompt)
	p.Style = strings.TrimSpace(p.Style)
	p.NegativePrompt = strings.TrimSpace(p.NegativePrompt)
	if p.AspectRatio == "" {
		p.AspectRatio = DefaultAspectRatio
	}
	if p.NumberOfImages <= 0 {
		p.NumberOfImages = DefaultQuantity
	}
}

// ValidateImage checks image parameters before any remote call is attempted.
func ValidateImage(p domain.ImageParams) error {
	if p.Prompt == "" {
		return domain.NewMessageError(domain.ErrInvalidInput, "Please enter a prompt.")
	}
	if _, ok := allowedAspectRatios[p.AspectRatio]; !ok {
		return domain.NewMessageError(domain.ErrInvalidInput, "aspectRatio must be one of 1:1, 16:9, 9:16, 4:3, 3:4")
	}
	if p.NumberOfImages < 1 || p.NumberOfImages > MaxImageQuantity {
		return domain.NewMessageError(domain.ErrInvalidInput, fmt.Sprintf("numberOfImages must be between 1 and %d", MaxImageQuantity))
	}
	if p.Seed != nil && *p.Seed < 0 {
		return domain.NewMessageError(domain.ErrInvalidInput, "Seed must be a positive number.")
	}
	return nil
}

// NormalizeVideo applies server defaults to video parameters.
func NormalizeVideo(p *domain.VideoParams) {
	if p == nil {
		return
	}
	p.Prompt = strings.TrimSpace(p.Prompt)
	if p.Model == "" {
		p.Model = DefaultVideoModel
	}
	if p.NumberOfVideos <= 0 {
		p.NumberOfVideos = DefaultQuantity
	}
}

// ValidateVideo checks video parameters before any remote call is attempted.
func ValidateVideo(p domain.VideoParams) error {
	if p.Prompt == "" {
		return domain.NewMessageError(domain.ErrInvalidInput, "Please enter a prompt.")
	}
	if !strings.HasPrefix(p.Model, "veo-") {
		return domain.NewMessageError(domain.ErrInvalidInput, fmt.Sprintf("unsupported video model %q", p.Model))
	}
	if p.NumberOfVideos < 1 || p.NumberOfVideos > MaxVideoQuantity {
		return domain.NewMessageError(domain.ErrInvalidInput, fmt.Sprintf("numberOfVideos must be between 1 and %d", MaxVideoQuantity))
	}
	if p.Seed != nil && *p.Seed < 0 {
		return domain.NewMessageError(domain.ErrInvalidInput, "Seed must be a positive number.")
	}
	if img := p.InputImage; img != nil {
		if !strings.HasPrefix(img.MimeType, "image/") || img.Data == "" {
			return domain.NewMessageError(domain.ErrInvalidInput, "inputImage requires an image mimeType and base64 data")
		}
	}
	return nil
}

// NormalizeMusic trims music parameters.
func NormalizeMusic(p *domain.MusicParams) {
	if p == nil {
		return
	}
	p.Prompt = strings.TrimSpace(p.Prompt)
	p.Title = strings.TrimSpace(p.Title)
	p.Style = strings.TrimSpace(p.Style)
}

// ValidateMusic checks music parameters.
func ValidateMusic(p domain.MusicParams) error {
	if p.Prompt == "" && !p.IsInstrumental {
		return domain.NewMessageError(domain.ErrInvalidInput, "Please enter lyrics or choose instrumental.")
	}
	if p.Style == "" {
		return domain.NewMessageError(domain.ErrInvalidInput, "Please enter a style of music.")
	}
	return nil
}
