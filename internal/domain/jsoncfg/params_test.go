package jsoncfg

import (
	"errors"
	"testing"

	"studio/internal/domain"
)

func TestParseSeed(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    *int
		wantErr bool
	}{
		{name: "blank", raw: "  ", want: nil},
		{name: "zero", raw: "0", want: intPtr(0)},
		{name: "positive", raw: "42", want: intPtr(42)},
		{name: "negative", raw: "-1", wantErr: true},
		{name: "not a number", raw: "abc", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSeed(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, domain.ErrInvalidInput) {
					t.Fatalf("ParseSeed(%q) error = %v, want ErrInvalidInput", tt.raw, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSeed(%q) error: %v", tt.raw, err)
			}
			if (got == nil) != (tt.want == nil) || (got != nil && *got != *tt.want) {
				t.Fatalf("ParseSeed(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestNormalizeImageDefaults(t *testing.T) {
	p := &domain.ImageParams{Prompt: "  a cat  "}
	NormalizeImage(p)

	if p.Prompt != "a cat" {
		t.Fatalf("Prompt = %q, want %q", p.Prompt, "a cat")
	}
	if p.AspectRatio != DefaultAspectRatio {
		t.Fatalf("AspectRatio = %q, want %q", p.AspectRatio, DefaultAspectRatio)
	}
	if p.NumberOfImages != DefaultQuantity {
		t.Fatalf("NumberOfImages = %d, want %d", p.NumberOfImages, DefaultQuantity)
	}
	if err := ValidateImage(*p); err != nil {
		t.Fatalf("ValidateImage error: %v", err)
	}
}

func TestValidateImageRejects(t *testing.T) {
	seed := -3
	cases := map[string]domain.ImageParams{
		"empty prompt":  {AspectRatio: "1:1", NumberOfImages: 1},
		"aspect ratio":  {Prompt: "x", AspectRatio: "2:1", NumberOfImages: 1},
		"too many":      {Prompt: "x", AspectRatio: "1:1", NumberOfImages: MaxImageQuantity + 1},
		"negative seed": {Prompt: "x", AspectRatio: "1:1", NumberOfImages: 1, Seed: &seed},
	}
	for name, p := range cases {
		if err := ValidateImage(p); !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("%s: ValidateImage error = %v, want ErrInvalidInput", name, err)
		}
	}
}

func TestNormalizeVideoDefaultsModel(t *testing.T) {
	p := &domain.VideoParams{Prompt: "waves"}
	NormalizeVideo(p)
	if p.Model != DefaultVideoModel {
		t.Fatalf("Model = %q, want %q", p.Model, DefaultVideoModel)
	}
	if err := ValidateVideo(*p); err != nil {
		t.Fatalf("ValidateVideo error: %v", err)
	}

	p.InputImage = &domain.InlineImage{MimeType: "text/plain", Data: "abc"}
	if err := ValidateVideo(*p); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("ValidateVideo with bad input image = %v, want ErrInvalidInput", err)
	}
}

func TestValidateMusic(t *testing.T) {
	if err := ValidateMusic(domain.MusicParams{Style: "lofi", IsInstrumental: true}); err != nil {
		t.Fatalf("instrumental without lyrics should be valid: %v", err)
	}
	if err := ValidateMusic(domain.MusicParams{Prompt: "la la"}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("missing style error = %v, want ErrInvalidInput", err)
	}
}

func intPtr(v int) *int { return &v }
