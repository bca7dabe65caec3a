package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"studio/internal/domain"
)

type fakeRemote struct {
	outcome domain.Outcome
	hook    func(job domain.Job)
	calls   int
}

func (r *fakeRemote) Provider() string { return domain.ProviderGemini }

func (r *fakeRemote) Submit(_ context.Context, job domain.Job, _ string) domain.Outcome {
	r.calls++
	if r.hook != nil {
		r.hook(job)
	}
	return r.outcome
}

type countingTrigger struct{ n int }

func (t *countingTrigger) Sync() { t.n++ }

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

func (keyText) Text(_ context.Context, key string, _ map[string]string) string { return key }

type serviceFixture struct {
	svc      *Service
	store    *Store
	remote   *fakeRemote
	trigger  *countingTrigger
	archiver *recordingArchiver
}

func newServiceFixture(kind domain.Kind, keys domain.APIKeys, outcome domain.Outcome) *serviceFixture {
	f := &serviceFixture{
		store:    NewStore(kind, WithIDGenerator(NewSequenceGenerator(string(kind)))),
		remote:   &fakeRemote{outcome: outcome},
		trigger:  &countingTrigger{},
		archiver: &recordingArchiver{},
	}
	lanes := map[domain.Kind]Lane{kind: {Store: f.store, Remote: f.remote, Trigger: f.trigger}}
	f.svc = NewService(lanes, staticKeys{keys: keys}, f.archiver, keyText{}, nil, zerolog.Nop())
	return f
}

var geminiKey = domain.APIKeys{Gemini: "g-key"}

func TestGenerateOutcomes(t *testing.T) {
	tests := []struct {
		name        string
		kind        domain.Kind
		params      domain.Params
		outcome     domain.Outcome
		wantStatus  domain.JobStatus
		wantError   string
		wantHandle  string
		wantSyncs   int
		wantArchive int
	}{
		{
			name:        "immediate results complete and archive",
			kind:        domain.KindImage,
			params:      imageParams("fox"),
			outcome:     domain.Immediate([]string{"data:image/png;base64,AA"}),
			wantStatus:  domain.JobStatusCompleted,
			wantArchive: 1,
		},
		{
			name:       "immediate without results fails",
			kind:       domain.KindImage,
			params:     imageParams("fox"),
			outcome:    domain.Immediate(nil),
			wantStatus: domain.JobStatusFailed,
			wantError:  "Generation finished without a result.",
		},
		{
			name:       "deferred moves to polling",
			kind:       domain.KindVideo,
			params:     videoParams("waves"),
			outcome:    domain.Deferred("operations/1", ""),
			wantStatus: domain.JobStatusPolling,
			wantHandle: "operations/1",
			wantSyncs:  1,
		},
		{
			name:       "failed keeps provider message",
			kind:       domain.KindImage,
			params:     imageParams("fox"),
			outcome:    domain.Failed(errors.New("quota exhausted")),
			wantStatus: domain.JobStatusFailed,
			wantError:  "quota exhausted",
		},
		{
			name:       "failed without error uses unknown message",
			kind:       domain.KindImage,
			params:     imageParams("fox"),
			outcome:    domain.Outcome{Kind: domain.OutcomeFailed},
			wantStatus: domain.JobStatusFailed,
			wantError:  "An unknown error occurred.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newServiceFixture(tt.kind, geminiKey, tt.outcome)

			job, err := f.svc.Generate(context.Background(), "u", tt.params)
			if err != nil {
				t.Fatalf("Generate error: %v", err)
			}
			if job.Status != tt.wantStatus {
				t.Fatalf("Status = %q, want %q", job.Status, tt.wantStatus)
			}
			if job.Error != tt.wantError {
				t.Fatalf("Error = %q, want %q", job.Error, tt.wantError)
			}
			if job.Handle != tt.wantHandle {
				t.Fatalf("Handle = %q, want %q", job.Handle, tt.wantHandle)
			}
			stored, ok := f.store.Get(job.ID)
			if !ok || stored.Status != tt.wantStatus {
				t.Fatalf("stored = %+v, %v", stored, ok)
			}
			if f.trigger.n != tt.wantSyncs {
				t.Fatalf("Sync calls = %d, want %d", f.trigger.n, tt.wantSyncs)
			}
			if len(f.archiver.jobs) != tt.wantArchive {
				t.Fatalf("archived = %d, want %d", len(f.archiver.jobs), tt.wantArchive)
			}
		})
	}
}

func TestGenerateDeferredSetsPollingMessage(t *testing.T) {
	f := newServiceFixture(domain.KindVideo, geminiKey, domain.Deferred("operations/1", ""))

	job, err := f.svc.Generate(context.Background(), "u", videoParams("waves"))
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if job.StatusMessage != "job_status_polling" {
		t.Fatalf("StatusMessage = %q, want job_status_polling", job.StatusMessage)
	}
	if ids := f.store.Polling(); len(ids) != 1 || ids[0] != job.ID {
		t.Fatalf("Polling = %v, want [%s]", ids, job.ID)
	}
}

func TestGenerateWithoutCredentialCreatesNothing(t *testing.T) {
	f := newServiceFixture(domain.KindVideo, domain.APIKeys{}, domain.Deferred("operations/1", ""))

	_, err := f.svc.Generate(context.Background(), "u", videoParams("waves"))
	if !errors.Is(err, domain.ErrMissingCredential) {
		t.Fatalf("err = %v, want ErrMissingCredential", err)
	}
	if got := domain.UserMessage(err); got != "error_gemini_api_key_not_set" {
		t.Fatalf("message = %q", got)
	}
	if f.store.Len() != 0 {
		t.Fatalf("Len = %d, want 0", f.store.Len())
	}
	if f.remote.calls != 0 || f.trigger.n != 0 {
		t.Fatalf("remote calls = %d, syncs = %d, want none", f.remote.calls, f.trigger.n)
	}
}

func TestGenerateRejectsInvalidParams(t *testing.T) {
	f := newServiceFixture(domain.KindImage, geminiKey, domain.Immediate([]string{"x"}))

	_, err := f.svc.Generate(context.Background(), "u", imageParams("   "))
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
	if f.store.Len() != 0 || f.remote.calls != 0 {
		t.Fatalf("Len = %d, remote calls = %d, want none", f.store.Len(), f.remote.calls)
	}
}

func TestGenerateDeletedWhileSubmitting(t *testing.T) {
	f := newServiceFixture(domain.KindImage, geminiKey, domain.Immediate([]string{"data:image/png;base64,AA"}))
	f.remote.hook = func(job domain.Job) { f.store.Delete(job.ID) }

	job, err := f.svc.Generate(context.Background(), "u", imageParams("fox"))
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if job.Status != domain.JobStatusGenerating || job.Params.Image.Prompt != "fox" {
		t.Fatalf("job = %+v, want the created job", job)
	}
	if f.store.Len() != 0 {
		t.Fatalf("deleted job resurrected, Len = %d", f.store.Len())
	}
	if len(f.archiver.jobs) != 0 {
		t.Fatal("deleted job was archived")
	}
}

func TestDeleteAndClearAreOwnerScoped(t *testing.T) {
	f := newServiceFixture(domain.KindImage, geminiKey, domain.Immediate([]string{"data:image/png;base64,AA"}))
	ctx := context.Background()
	alice, _ := f.svc.Generate(ctx, "alice", imageParams("fox"))
	bob, _ := f.svc.Generate(ctx, "bob", imageParams("owl"))

	if err := f.svc.Delete(domain.KindImage, "bob", alice.ID); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, ok := f.store.Get(alice.ID); !ok {
		t.Fatal("bob deleted alice's job")
	}
	n, err := f.svc.ClearCompleted(domain.KindImage, "bob", ClearTerminal)
	if err != nil || n != 1 {
		t.Fatalf("ClearCompleted = %d, %v, want 1", n, err)
	}
	if _, ok := f.store.Get(bob.ID); ok {
		t.Fatal("bob's job survived the clear")
	}
	if _, ok := f.store.Get(alice.ID); !ok {
		t.Fatal("bob cleared alice's job")
	}
	if _, err := f.svc.ClearCompleted(domain.KindMusic, "bob", ClearTerminal); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("unknown lane err = %v, want ErrInvalidInput", err)
	}
}
