package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"studio/internal/domain"
	"studio/internal/domain/jsoncfg"
	"studio/internal/infra"
	"studio/internal/telemetry"
)

// Localizer renders catalog keys for the language in effect.
type Localizer interface {
	Text(ctx context.Context, key string, args map[string]string) string
}

// PollTrigger re-evaluates whether a poll timer is needed.
type PollTrigger interface {
	Sync()
}

// Lane wires one job kind: its store, its adapter and, for deferred kinds,
// the poller that advances it.
type Lane struct {
	Store   *Store
	Remote  domain.RemoteOperation
	Trigger PollTrigger
}

// Service runs the user-initiated generate actions.
type Service struct {
	lanes    map[domain.Kind]Lane
	creds    domain.CredentialSource
	archiver domain.JobArchiver
	text     Localizer
	now      func() time.Time
	logger   infra.Logger
}

// NewService constructs a Service. now may be nil.
func NewService(lanes map[domain.Kind]Lane, creds domain.CredentialSource, archiver domain.JobArchiver, text Localizer, now func() time.Time, logger infra.Logger) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{lanes: lanes, creds: creds, archiver: archiver, text: text, now: now, logger: logger}
}

// Generate validates params, gates on the provider credential, creates the
// job and applies the adapter outcome. Remote failures end in the job record
// and are not returned as errors.
func (s *Service) Generate(ctx context.Context, owner string, params domain.Params) (domain.Job, error) {
	kind := params.Kind()
	lane, ok := s.lanes[kind]
	if !ok {
		return domain.Job{}, fmt.Errorf("%w: exactly one of image, video or music is required", domain.ErrInvalidInput)
	}
	if err := normalizeAndValidate(&params); err != nil {
		return domain.Job{}, err
	}

	provider := lane.Remote.Provider()
	keys, err := s.creds.APIKeys(ctx)
	if err != nil {
		return domain.Job{}, fmt.Errorf("load api keys: %w", err)
	}
	apiKey := keys.Get(provider)
	if apiKey == "" {
		msg := s.text.Text(ctx, "error_"+provider+"_api_key_not_set", nil)
		return domain.Job{}, domain.NewMessageError(domain.ErrMissingCredential, msg)
	}

	job, err := lane.Store.Create(owner, params)
	if err != nil {
		return domain.Job{}, err
	}
	telemetry.JobsCreated.WithLabelValues(string(kind)).Inc()
	s.logger.Info().Str("job_id", job.ID).Str("kind", string(kind)).Msg("jobs: created")

	// Deleting the job must not abort the remote call, and neither may a
	// client disconnect.
	callCtx := context.WithoutCancel(ctx)
	outcome := lane.Remote.Submit(callCtx, job, apiKey)

	switch outcome.Kind {
	case domain.OutcomeImmediate:
		if len(outcome.Results) == 0 {
			return s.fail(ctx, lane, job.ID, domain.ErrEmptyResult), nil
		}
		updated, ok := lane.Store.Update(job.ID, Completed(outcome.Results, s.text.Text(ctx, "job_status_completed_single", nil)))
		if ok && updated.Status == domain.JobStatusCompleted {
			telemetry.JobsCompleted.WithLabelValues(string(kind)).Inc()
			s.logger.Info().Str("job_id", job.ID).Int("results", len(updated.Results)).Msg("jobs: completed")
			s.archiver.Archive(callCtx, updated)
		}
		return s.latest(lane, job, updated, ok), nil
	case domain.OutcomeDeferred:
		key := outcome.StatusKey
		if key == "" {
			key = "job_status_polling"
		}
		msg := s.text.Text(ctx, key, outcome.StatusArgs)
		updated, ok := lane.Store.Update(job.ID, PollingWith(outcome.Handle, msg, s.now()))
		if lane.Trigger != nil {
			lane.Trigger.Sync()
		}
		s.logger.Info().Str("job_id", job.ID).Msg("jobs: polling")
		return s.latest(lane, job, updated, ok), nil
	default:
		err := outcome.Err
		if err == nil {
			err = errors.New(unknownError)
		}
		return s.fail(ctx, lane, job.ID, err), nil
	}
}

func (s *Service) fail(ctx context.Context, lane Lane, id string, cause error) domain.Job {
	msg := domain.UserMessage(cause)
	if errors.Is(cause, domain.ErrEmptyResult) && msg == domain.ErrEmptyResult.Error() {
		msg = "Generation finished without a result."
	}
	updated, ok := lane.Store.Update(id, FailedWith(msg, s.text.Text(ctx, "job_status_failed_single", nil)))
	telemetry.JobsFailed.WithLabelValues(string(lane.Store.Kind())).Inc()
	s.logger.Warn().Str("job_id", id).Err(cause).Msg("jobs: failed")
	if !ok {
		return domain.Job{ID: id, Kind: lane.Store.Kind(), Status: domain.JobStatusFailed, Error: msg}
	}
	return updated
}

// latest returns the updated job, or the created one when the job was deleted
// while its remote call was in flight.
func (s *Service) latest(lane Lane, created, updated domain.Job, ok bool) domain.Job {
	if ok {
		return updated
	}
	if cur, found := lane.Store.Get(created.ID); found {
		return cur
	}
	return created
}

// List returns the jobs of a kind, newest first.
func (s *Service) List(kind domain.Kind) ([]domain.Job, error) {
	lane, ok := s.lanes[kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown kind %q", domain.ErrInvalidInput, kind)
	}
	return lane.Store.List(), nil
}

// Delete removes one of owner's jobs; it is idempotent and leaves jobs of
// other owners alone.
func (s *Service) Delete(kind domain.Kind, owner, id string) error {
	lane, ok := s.lanes[kind]
	if !ok {
		return fmt.Errorf("%w: unknown kind %q", domain.ErrInvalidInput, kind)
	}
	lane.Store.DeleteOwned(owner, id)
	if lane.Trigger != nil {
		lane.Trigger.Sync()
	}
	return nil
}

// ClearCompleted removes owner's terminal jobs of a kind according to policy.
func (s *Service) ClearCompleted(kind domain.Kind, owner string, policy ClearPolicy) (int, error) {
	lane, ok := s.lanes[kind]
	if !ok {
		return 0, fmt.Errorf("%w: unknown kind %q", domain.ErrInvalidInput, kind)
	}
	n := lane.Store.ClearCompleted(owner, policy)
	if lane.Trigger != nil {
		lane.Trigger.Sync()
	}
	return n, nil
}

func normalizeAndValidate(p *domain.Params) error {
	set := 0
	for _, present := range []bool{p.Image != nil, p.Video != nil, p.Music != nil} {
		if present {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("%w: exactly one of image, video or music is required", domain.ErrInvalidInput)
	}
	switch {
	case p.Image != nil:
		jsoncfg.NormalizeImage(p.Image)
		return jsoncfg.ValidateImage(*p.Image)
	case p.Video != nil:
		jsoncfg.NormalizeVideo(p.Video)
		return jsoncfg.ValidateVideo(*p.Video)
	case p.Music != nil:
		jsoncfg.NormalizeMusic(p.Music)
		return jsoncfg.ValidateMusic(*p.Music)
	}
	return fmt.Errorf("%w: missing parameters", domain.ErrInvalidInput)
}
