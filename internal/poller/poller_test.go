package poller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"studio/internal/domain"
	"studio/internal/jobs"
)

type manualTimer struct {
	f       func()
	d       time.Duration
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

type manualScheduler struct {
	mu     sync.Mutex
	timers []*manualTimer
}

func (s *manualScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &manualTimer{f: f, d: d}
	s.timers = append(s.timers, t)
	return t
}

func (s *manualScheduler) active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// fire runs the oldest pending timer callback synchronously.
func (s *manualScheduler) fire(t *testing.T) {
	t.Helper()
	s.mu.Lock()
	var next *manualTimer
	for _, tm := range s.timers {
		if !tm.stopped && !tm.fired {
			next = tm
			break
		}
	}
	if next == nil {
		s.mu.Unlock()
		t.Fatal("no pending timer to fire")
	}
	next.fired = true
	s.mu.Unlock()
	next.f()
}

type pollStep struct {
	res  domain.PollResult
	err  error
	hook func()
}

type scriptedRemote struct {
	mu    sync.Mutex
	steps map[string][]pollStep
	calls []string
}

func (r *scriptedRemote) Poll(_ context.Context, job domain.Job, _ string) (domain.PollResult, error) {
	r.mu.Lock()
	r.calls = append(r.calls, job.ID)
	steps := r.steps[job.ID]
	var step pollStep
	if len(steps) > 0 {
		step = steps[0]
		r.steps[job.ID] = steps[1:]
	}
	r.mu.Unlock()
	if step.hook != nil {
		step.hook()
	}
	return step.res, step.err
}

func (r *scriptedRemote) Finalize(ref, apiKey string) string {
	return ref + "?key=" + apiKey
}

func (r *scriptedRemote) callCount(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if c == id {
			n++
		}
	}
	return n
}

type recordingArchiver struct {
	mu   sync.Mutex
	jobs []domain.Job
}

func (a *recordingArchiver) Archive(_ context.Context, job domain.Job) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.jobs = append(a.jobs, job)
}

type staticKeys struct{ keys domain.APIKeys }

func (s staticKeys) APIKeys(context.Context) (domain.APIKeys, error) { return s.keys, nil }

type keyText struct{}

func (keyText) Text(_ context.Context, key string, args map[string]string) string {
	if state, ok := args["state"]; ok {
		return fmt.Sprintf("%s(%s)", key, state)
	}
	return key
}

type fixture struct {
	store    *jobs.Store
	remote   *scriptedRemote
	archiver *recordingArchiver
	sched    *manualScheduler
	poller   *Poller
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:    jobs.NewStore(domain.KindVideo, jobs.WithIDGenerator(jobs.NewSequenceGenerator("v"))),
		remote:   &scriptedRemote{steps: map[string][]pollStep{}},
		archiver: &recordingArchiver{},
		sched:    &manualScheduler{},
	}
	f.poller = New(Options{
		Store:              f.store,
		Remote:             f.remote,
		Provider:           domain.ProviderGemini,
		Credentials:        staticKeys{keys: domain.APIKeys{Gemini: "g-key"}},
		Archiver:           f.archiver,
		Text:               keyText{},
		Scheduler:          f.sched,
		Interval:           10 * time.Second,
		EmptyResultMessage: "Generation finished, but no video URL was found.",
	})
	f.poller.Start()
	t.Cleanup(f.poller.Stop)
	return f
}

func (f *fixture) pollingJob(t *testing.T, prompt string) domain.Job {
	t.Helper()
	job, err := f.store.Create("u", domain.Params{Video: &domain.VideoParams{Prompt: prompt, Model: "veo-2.0-generate-001", NumberOfVideos: 1}})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	job, _ = f.store.Update(job.ID, jobs.PollingWith("operations/"+job.ID, "polling", time.Now()))
	f.poller.Sync()
	return job
}

func TestIdlePollerHoldsNoTimer(t *testing.T) {
	f := newFixture(t)
	if f.poller.Armed() || f.sched.active() != 0 {
		t.Fatalf("idle poller armed=%v active=%d", f.poller.Armed(), f.sched.active())
	}
}

func TestCompletionDisarmsAndArchives(t *testing.T) {
	f := newFixture(t)
	job := f.pollingJob(t, "waves")
	f.remote.steps[job.ID] = []pollStep{{res: domain.PollResult{Done: true, Results: []string{"https://cdn/v1", "https://cdn/v2"}}}}

	if !f.poller.Armed() || f.sched.active() != 1 {
		t.Fatalf("armed=%v active=%d, want one armed timer", f.poller.Armed(), f.sched.active())
	}
	if d := f.sched.timers[0].d; d != 10*time.Second {
		t.Fatalf("interval = %v, want 10s", d)
	}

	f.sched.fire(t)

	got, _ := f.store.Get(job.ID)
	if got.Status != domain.JobStatusCompleted {
		t.Fatalf("Status = %q, want completed", got.Status)
	}
	want := []string{"https://cdn/v1?key=g-key", "https://cdn/v2?key=g-key"}
	if len(got.Results) != 2 || got.Results[0] != want[0] || got.Results[1] != want[1] {
		t.Fatalf("Results = %v, want %v", got.Results, want)
	}
	if len(f.archiver.jobs) != 1 || f.archiver.jobs[0].ID != job.ID {
		t.Fatalf("archived = %v, want job %s", f.archiver.jobs, job.ID)
	}
	if f.poller.Armed() || f.sched.active() != 0 {
		t.Fatalf("timer still armed after last polling job finished")
	}
}

func TestTimerContinuesWhileAnyJobPolls(t *testing.T) {
	f := newFixture(t)
	a := f.pollingJob(t, "a")
	b := f.pollingJob(t, "b")
	f.remote.steps[a.ID] = []pollStep{{res: domain.PollResult{Done: true, Results: []string{"https://cdn/a"}}}}
	f.remote.steps[b.ID] = []pollStep{{res: domain.PollResult{Done: false, StatusKey: "processing", StatusArgs: map[string]string{"state": "RUNNING"}}}}

	f.sched.fire(t)

	if got, _ := f.store.Get(a.ID); got.Status != domain.JobStatusCompleted {
		t.Fatalf("job a status = %q, want completed", got.Status)
	}
	gotB, _ := f.store.Get(b.ID)
	if gotB.Status != domain.JobStatusPolling || gotB.StatusMessage != "processing(RUNNING)" {
		t.Fatalf("job b = %+v, want polling with progress message", gotB)
	}
	if gotB.Handle != "operations/"+b.ID {
		t.Fatalf("Handle = %q, want previous handle kept", gotB.Handle)
	}
	if !f.poller.Armed() || f.sched.active() != 1 {
		t.Fatalf("armed=%v active=%d, want timer to keep running", f.poller.Armed(), f.sched.active())
	}
}

func TestProgressReplacesHandle(t *testing.T) {
	f := newFixture(t)
	job := f.pollingJob(t, "x")
	f.remote.steps[job.ID] = []pollStep{{res: domain.PollResult{Handle: "operations/new", StatusKey: "processing"}}}

	f.sched.fire(t)

	got, _ := f.store.Get(job.ID)
	if got.Handle != "operations/new" {
		t.Fatalf("Handle = %q, want operations/new", got.Handle)
	}
}

func TestPollErrorFailsJobWithoutRetry(t *testing.T) {
	f := newFixture(t)
	bad := f.pollingJob(t, "bad")
	other := f.pollingJob(t, "other")
	f.remote.steps[bad.ID] = []pollStep{{err: errors.New("quota exhausted")}}
	f.remote.steps[other.ID] = []pollStep{{}, {}}

	f.sched.fire(t)

	got, _ := f.store.Get(bad.ID)
	if got.Status != domain.JobStatusFailed || got.Error != "quota exhausted" {
		t.Fatalf("failed job = %+v", got)
	}
	if got.StatusMessage != "job_status_failed_single" {
		t.Fatalf("StatusMessage = %q", got.StatusMessage)
	}

	f.sched.fire(t)
	if n := f.remote.callCount(bad.ID); n != 1 {
		t.Fatalf("failed job polled %d times, want 1", n)
	}
	if n := f.remote.callCount(other.ID); n != 2 {
		t.Fatalf("other job polled %d times, want 2", n)
	}
}

func TestDoneWithoutResultsFails(t *testing.T) {
	f := newFixture(t)
	job := f.pollingJob(t, "empty")
	f.remote.steps[job.ID] = []pollStep{{res: domain.PollResult{Done: true}}}

	f.sched.fire(t)

	got, _ := f.store.Get(job.ID)
	if got.Status != domain.JobStatusFailed || got.Error != "Generation finished, but no video URL was found." {
		t.Fatalf("job = %+v", got)
	}
	if len(f.archiver.jobs) != 0 {
		t.Fatal("failed job was archived")
	}
}

func TestMissingKeyFailsPollingJob(t *testing.T) {
	f := newFixture(t)
	f.poller.creds = staticKeys{}
	job := f.pollingJob(t, "keyless")

	f.sched.fire(t)

	got, _ := f.store.Get(job.ID)
	if got.Status != domain.JobStatusFailed || got.Error != "error_gemini_api_key_not_set" {
		t.Fatalf("job = %+v, want failed with missing-credential message", got)
	}
	if n := f.remote.callCount(job.ID); n != 0 {
		t.Fatalf("remote polled %d times without a key", n)
	}
	if f.poller.Armed() || f.sched.active() != 0 {
		t.Fatal("timer still armed after the only polling job failed")
	}
}

func TestDeletedMidTickIsNotUpdated(t *testing.T) {
	f := newFixture(t)
	first := f.pollingJob(t, "first")
	second := f.pollingJob(t, "second")
	// second is newest, so it is polled first and deletes first mid-tick.
	f.remote.steps[second.ID] = []pollStep{{hook: func() { f.store.Delete(first.ID) }}}
	f.remote.steps[first.ID] = []pollStep{{res: domain.PollResult{Done: true, Results: []string{"https://cdn/x"}}}}

	f.sched.fire(t)

	if _, ok := f.store.Get(first.ID); ok {
		t.Fatal("deleted job resurrected")
	}
	if n := f.remote.callCount(first.ID); n != 0 {
		t.Fatalf("deleted job polled %d times", n)
	}
	if len(f.archiver.jobs) != 0 {
		t.Fatal("deleted job was archived")
	}
}

func TestJobEnteringPollingMidTickWaitsForNextTick(t *testing.T) {
	f := newFixture(t)
	a := f.pollingJob(t, "a")
	late, _ := f.store.Create("u", domain.Params{Video: &domain.VideoParams{Prompt: "late", Model: "veo-2.0-generate-001", NumberOfVideos: 1}})
	f.remote.steps[a.ID] = []pollStep{{hook: func() {
		f.store.Update(late.ID, jobs.PollingWith("operations/late", "polling", time.Now()))
	}}, {}}

	f.sched.fire(t)
	if n := f.remote.callCount(late.ID); n != 0 {
		t.Fatalf("late job polled %d times in the tick it joined", n)
	}

	f.sched.fire(t)
	if n := f.remote.callCount(late.ID); n != 1 {
		t.Fatalf("late job polled %d times on next tick, want 1", n)
	}
}

func TestDeletingLastPollingJobDisarms(t *testing.T) {
	f := newFixture(t)
	job := f.pollingJob(t, "x")
	f.store.Delete(job.ID)
	f.poller.Sync()

	if f.poller.Armed() || f.sched.active() != 0 {
		t.Fatalf("armed=%v active=%d after deleting the only polling job", f.poller.Armed(), f.sched.active())
	}
}

func TestStopCancelsTimer(t *testing.T) {
	f := newFixture(t)
	f.pollingJob(t, "x")
	f.poller.Stop()

	if f.poller.Armed() || f.sched.active() != 0 {
		t.Fatal("timer survived Stop")
	}
	f.poller.Sync()
	if f.sched.active() != 0 {
		t.Fatal("stopped poller re-armed on Sync")
	}

	f.poller.Start()
	if f.sched.active() != 1 {
		t.Fatalf("restarted poller active timers = %d, want 1", f.sched.active())
	}
}
