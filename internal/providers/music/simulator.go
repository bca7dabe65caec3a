// Package music simulates a staged music generation service.
package music

import (
	"context"
	"time"

	"studio/internal/domain"
)

// SilentClip is the audio returned for every finished track.
const SilentClip = "data:audio/mp3;base64,SUQzBAAAAAABEVRYWFgAAAARAAADTGF2ZjU2LjQwLjEwMQAAAAAAAAAAAAAA//tAwAAAAAAAAAAAAAAAAAAAAAAA"

// Stage boundaries measured from job start.
const (
	ComposeFor     = 10 * time.Second
	InstrumentsFor = 25 * time.Second
)

// Simulator reports progress from elapsed time alone.
type Simulator struct {
	now func() time.Time
}

// NewSimulator builds a Simulator. now may be nil.
func NewSimulator(now func() time.Time) *Simulator {
	if now == nil {
		now = time.Now
	}
	return &Simulator{now: now}
}

func (s *Simulator) Provider() string { return domain.ProviderSuno }

func (s *Simulator) Submit(_ context.Context, job domain.Job, apiKey string) domain.Outcome {
	if apiKey == "" {
		return domain.Failed(domain.NewMessageError(domain.ErrMissingCredential, "Suno API key is not configured."))
	}
	return domain.Deferred("music-"+job.ID, "music_job_status_composing")
}

func (s *Simulator) Poll(_ context.Context, job domain.Job, apiKey string) (domain.PollResult, error) {
	if apiKey == "" {
		return domain.PollResult{}, domain.NewMessageError(domain.ErrMissingCredential, "Suno API key is not configured.")
	}
	started := job.StartedAt
	if started.IsZero() {
		started = job.CreatedAt
	}
	elapsed := s.now().Sub(started)
	switch {
	case elapsed < ComposeFor:
		return domain.PollResult{Handle: job.Handle, StatusKey: "music_job_status_composing"}, nil
	case elapsed < InstrumentsFor:
		return domain.PollResult{Handle: job.Handle, StatusKey: "music_job_status_adding_instruments"}, nil
	}
	return domain.PollResult{Done: true, Handle: job.Handle, Results: []string{SilentClip}}, nil
}

// Finalize returns the clip unchanged.
func (s *Simulator) Finalize(ref, _ string) string { return ref }

var (
	_ domain.RemoteOperation = (*Simulator)(nil)
	_ domain.RemotePoller    = (*Simulator)(nil)
)
