package poller

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"studio/internal/domain"
	"studio/internal/infra"
	"studio/internal/jobs"
	"studio/internal/telemetry"
)

// DefaultInterval is the poll period for remote video operations.
const DefaultInterval = 10 * time.Second

// Localizer renders catalog keys for the language in effect.
type Localizer interface {
	Text(ctx context.Context, key string, args map[string]string) string
}

// Options configures a Poller.
type Options struct {
	Store       *jobs.Store
	Remote      domain.RemotePoller
	Provider    string
	Credentials domain.CredentialSource
	Archiver    domain.JobArchiver
	Text        Localizer
	Scheduler   Scheduler
	Interval    time.Duration
	// EmptyResultMessage is the job error used when an operation finishes
	// without any result.
	EmptyResultMessage string
	Logger             *infra.Logger
}

// Poller advances the polling jobs of one store. Its timer is armed only
// while the poller is started and at least one job is polling.
type Poller struct {
	store    *jobs.Store
	remote   domain.RemotePoller
	provider string
	creds    domain.CredentialSource
	archiver domain.JobArchiver
	text     Localizer
	sched    Scheduler
	interval time.Duration
	emptyMsg string
	logger   infra.Logger
	kind     string

	mu      sync.Mutex
	started bool
	timer   Timer
	gen     uint64
	ctx     context.Context
	cancel  context.CancelFunc

	tickMu sync.Mutex
}

// New constructs a stopped Poller.
func New(opts Options) *Poller {
	sched := opts.Scheduler
	if sched == nil {
		sched = SystemScheduler{}
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	emptyMsg := opts.EmptyResultMessage
	if emptyMsg == "" {
		emptyMsg = "Generation finished, but no result was found."
	}
	logger := zerolog.New(io.Discard)
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Poller{
		store:    opts.Store,
		remote:   opts.Remote,
		provider: opts.Provider,
		creds:    opts.Credentials,
		archiver: opts.Archiver,
		text:     opts.Text,
		sched:    sched,
		interval: interval,
		emptyMsg: emptyMsg,
		logger:   logger,
		kind:     string(opts.Store.Kind()),
	}
}

// Start enables the poller and arms the timer if any job is polling.
func (p *Poller) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true
	p.ctx, p.cancel = context.WithCancel(context.Background())
	p.syncLocked()
}

// Stop cancels the timer and any in-flight poll context.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		return
	}
	p.started = false
	p.disarmLocked()
	p.cancel()
}

// Sync arms the timer when polling jobs exist and cancels it when none remain.
func (p *Poller) Sync() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.syncLocked()
}

// Armed reports whether a tick is scheduled.
func (p *Poller) Armed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.timer != nil
}

func (p *Poller) syncLocked() {
	if !p.started {
		return
	}
	if p.store.HasPolling() {
		if p.timer == nil {
			p.gen++
			gen := p.gen
			p.timer = p.sched.AfterFunc(p.interval, func() { p.fire(gen) })
			telemetry.PollerArmed.WithLabelValues(p.kind).Set(1)
		}
		return
	}
	p.disarmLocked()
}

func (p *Poller) disarmLocked() {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.gen++
	telemetry.PollerArmed.WithLabelValues(p.kind).Set(0)
}

func (p *Poller) fire(gen uint64) {
	p.mu.Lock()
	if !p.started || gen != p.gen {
		p.mu.Unlock()
		return
	}
	p.timer = nil
	ctx := p.ctx
	p.mu.Unlock()

	p.Tick(ctx)
	p.Sync()
}

// Tick polls every job that was polling when the tick began, one at a time
// in list order. Jobs deleted or finished meanwhile are skipped.
func (p *Poller) Tick(ctx context.Context) {
	p.tickMu.Lock()
	defer p.tickMu.Unlock()

	ids := p.store.Polling()
	if len(ids) == 0 {
		return
	}
	keys, err := p.creds.APIKeys(ctx)
	if err != nil {
		p.logger.Error().Err(err).Str("kind", p.kind).Msg("poller: load api keys")
		return
	}
	apiKey := keys.Get(p.provider)

	for _, id := range ids {
		if ctx.Err() != nil {
			return
		}
		job, ok := p.store.Get(id)
		if !ok || job.Status != domain.JobStatusPolling {
			continue
		}
		if apiKey == "" {
			p.fail(ctx, id, p.text.Text(ctx, "error_"+p.provider+"_api_key_not_set", nil))
			continue
		}
		p.pollOne(ctx, job, apiKey)
	}
}

func (p *Poller) pollOne(ctx context.Context, job domain.Job, apiKey string) {
	telemetry.PollAttempts.WithLabelValues(p.kind).Inc()
	res, err := p.remote.Poll(ctx, job, apiKey)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		p.fail(ctx, job.ID, domain.UserMessage(err))
		return
	}

	if !res.Done {
		msg := p.text.Text(ctx, res.StatusKey, res.StatusArgs)
		p.store.Update(job.ID, jobs.Progress(res.Handle, msg))
		p.logger.Debug().Str("job_id", job.ID).Str("status", msg).Msg("poller: still processing")
		return
	}

	if len(res.Results) == 0 {
		p.fail(ctx, job.ID, p.emptyMsg)
		return
	}

	results := make([]string, 0, len(res.Results))
	for _, ref := range res.Results {
		if ref == "" {
			continue
		}
		results = append(results, p.remote.Finalize(ref, apiKey))
	}
	if len(results) == 0 {
		p.fail(ctx, job.ID, p.emptyMsg)
		return
	}

	updated, ok := p.store.Update(job.ID, jobs.Completed(results, p.text.Text(ctx, "job_status_completed_single", nil)))
	if !ok || updated.Status != domain.JobStatusCompleted {
		return
	}
	telemetry.JobsCompleted.WithLabelValues(p.kind).Inc()
	p.logger.Info().Str("job_id", job.ID).Int("results", len(results)).Msg("poller: completed")
	if p.archiver != nil {
		p.archiver.Archive(ctx, updated)
	}
}

func (p *Poller) fail(ctx context.Context, id, errMsg string) {
	if _, ok := p.store.Update(id, jobs.FailedWith(errMsg, p.text.Text(ctx, "job_status_failed_single", nil))); !ok {
		return
	}
	telemetry.JobsFailed.WithLabelValues(p.kind).Inc()
	p.logger.Warn().Str("job_id", id).Str("error", errMsg).Msg("poller: failed")
}

var _ jobs.PollTrigger = (*Poller)(nil)
