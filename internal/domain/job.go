package domain

import (
	"fmt"
	"strings"
	"time"
)

// Kind enumerates the generation job categories.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
	KindMusic Kind = "music"
)

// ParseKind accepts both singular and plural route forms ("image", "images").
func ParseKind(raw string) (Kind, error) {
	switch strings.TrimSuffix(strings.ToLower(strings.TrimSpace(raw)), "s") {
	case string(KindImage):
		return KindImage, nil
	case string(KindVideo):
		return KindVideo, nil
	case string(KindMusic):
		return KindMusic, nil
	}
	return "", fmt.Errorf("%w: unknown kind %q", ErrInvalidInput, raw)
}

// JobStatus enumerates job lifecycle states.
type JobStatus string

const (
	JobStatusGenerating JobStatus = "generating"
	JobStatusPolling    JobStatus = "polling"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether no further transitions can occur.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// CanTransitionTo reports whether moving from s to next follows the lifecycle
// generating -> polling -> completed|failed (polling is optional).
func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	if s == next {
		return !s.Terminal()
	}
	switch s {
	case JobStatusGenerating:
		return next == JobStatusPolling || next == JobStatusCompleted || next == JobStatusFailed
	case JobStatusPolling:
		return next == JobStatusCompleted || next == JobStatusFailed
	}
	return false
}

// InlineImage is an image passed by value to a provider.
type InlineImage struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

// ImageParams are the request parameters of an image job.
type ImageParams struct {
	Prompt         string `json:"prompt"`
	NegativePrompt string `json:"negativePrompt,omitempty"`
	Style          string `json:"style,omitempty"`
	AspectRatio    string `json:"aspectRatio"`
	NumberOfImages int    `json:"numberOfImages"`
	Seed           *int   `json:"seed,omitempty"`
}

// VideoParams are the request parameters of a video job.
type VideoParams struct {
	Prompt         string       `json:"prompt"`
	Model          string       `json:"model"`
	NumberOfVideos int          `json:"numberOfVideos"`
	Seed           *int         `json:"seed,omitempty"`
	InputImage     *InlineImage `json:"inputImage,omitempty"`
}

// MusicParams are the request parameters of a music job.
type MusicParams struct {
	Prompt         string `json:"prompt"`
	Title          string `json:"title"`
	Style          string `json:"style"`
	IsInstrumental bool   `json:"isInstrumental"`
}

// Params carries exactly one kind-specific parameter set.
type Params struct {
	Image *ImageParams `json:"image,omitempty"`
	Video *VideoParams `json:"video,omitempty"`
	Music *MusicParams `json:"music,omitempty"`
}

// Kind derives the job kind from the populated parameter set.
func (p Params) Kind() Kind {
	switch {
	case p.Image != nil:
		return KindImage
	case p.Video != nil:
		return KindVideo
	case p.Music != nil:
		return KindMusic
	}
	return ""
}

// Prompt returns the prompt of whichever parameter set is populated.
func (p Params) Prompt() string {
	switch {
	case p.Image != nil:
		return p.Image.Prompt
	case p.Video != nil:
		return p.Video.Prompt
	case p.Music != nil:
		return p.Music.Prompt
	}
	return ""
}

// Job is one generation request and its outcome.
type Job struct {
	ID            string    `json:"id"`
	Kind          Kind      `json:"kind"`
	Owner         string    `json:"-"`
	Status        JobStatus `json:"status"`
	Params        Params    `json:"params"`
	Results       []string  `json:"results,omitempty"`
	Error         string    `json:"error,omitempty"`
	Handle        string    `json:"-"`
	StatusMessage string    `json:"statusMessage,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	StartedAt     time.Time `json:"-"`
}

// Clone returns a copy that shares no mutable state with j.
func (j Job) Clone() Job {
	out := j
	if j.Results != nil {
		out.Results = append([]string(nil), j.Results...)
	}
	out.Params = j.Params.clone()
	return out
}

func (p Params) clone() Params {
	var out Params
	if p.Image != nil {
		img := *p.Image
		img.Seed = cloneInt(p.Image.Seed)
		out.Image = &img
	}
	if p.Video != nil {
		vid := *p.Video
		vid.Seed = cloneInt(p.Video.Seed)
		if p.Video.InputImage != nil {
			in := *p.Video.InputImage
			vid.InputImage = &in
		}
		out.Video = &vid
	}
	if p.Music != nil {
		m := *p.Music
		out.Music = &m
	}
	return out
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}

// OutcomeKind classifies a remote operation result.
type OutcomeKind int

const (
	OutcomeImmediate OutcomeKind = iota + 1
	OutcomeDeferred
	OutcomeFailed
)

// Outcome is the normalized result of a remote operation adapter call.
type Outcome struct {
	Kind       OutcomeKind
	Results    []string
	Handle     string
	StatusKey  string
	StatusArgs map[string]string
	Err        error
}

// Immediate reports data that is ready now.
func Immediate(results []string) Outcome {
	return Outcome{Kind: OutcomeImmediate, Results: results}
}

// Deferred reports a pollable handle.
func Deferred(handle, statusKey string) Outcome {
	return Outcome{Kind: OutcomeDeferred, Handle: handle, StatusKey: statusKey}
}

// Failed reports an error value.
func Failed(err error) Outcome {
	return Outcome{Kind: OutcomeFailed, Err: err}
}

// PollResult is the state of a deferred operation at one poll.
type PollResult struct {
	Done       bool
	Handle     string
	Results    []string
	StatusKey  string
	StatusArgs map[string]string
}
