package agent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"studio/internal/adapter/repo"
	"studio/internal/archive"
	"studio/internal/domain"
	"studio/internal/i18n"
	"studio/internal/jobs"
	"studio/internal/providers/genai"
)

type staticKeys domain.APIKeys

func (k staticKeys) APIKeys(context.Context) (domain.APIKeys, error) { return domain.APIKeys(k), nil }

type fakeModel struct {
	reply string
	err   error
	reqs  []genai.ContentRequest
}

func (f *fakeModel) GenerateContent(_ context.Context, _ string, req genai.ContentRequest) (genai.ContentResponse, error) {
	f.reqs = append(f.reqs, req)
	return genai.ContentResponse{Text: f.reply}, f.err
}

type fixture struct {
	svc     *Service
	model   *fakeModel
	arch    *archive.Archiver
	history *repo.MemoryHistory
	clock   time.Time
}

func newFixture(t *testing.T, keys domain.APIKeys) *fixture {
	t.Helper()
	f := &fixture{
		model:   &fakeModel{reply: "Hi there"},
		history: repo.NewMemoryHistory(),
		clock:   time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC),
	}
	f.arch = archive.New(archive.Options{Repository: f.history})
	f.svc = NewService(Options{
		Credentials: staticKeys(keys),
		Model:       f.model,
		Recorder:    f.arch,
		Repository:  f.history,
		IDs:         jobs.NewSequenceGenerator("chat"),
		Text:        i18n.NewLocalizer(i18n.NewTranslator(), nil),
		Now: func() time.Time {
			f.clock = f.clock.Add(time.Second)
			return f.clock
		},
		Logger: zerolog.Nop(),
	})
	return f
}

func TestCreateSessionUsesPersona(t *testing.T) {
	f := newFixture(t, domain.APIKeys{})
	ctx := i18n.WithLanguage(context.Background(), "de")

	cs, err := f.svc.CreateSession(ctx, "u", "code_wizard")
	if err != nil {
		t.Fatalf("CreateSession error: %v", err)
	}
	if cs.PersonaName == "" || cs.Title != cs.PersonaName+"-Chat" {
		t.Fatalf("title = %q persona = %q", cs.Title, cs.PersonaName)
	}
	if len(cs.Messages) != 1 || cs.Messages[0].Sender != domain.SenderModel {
		t.Fatalf("messages = %+v", cs.Messages)
	}

	f.arch.Wait()
	if _, err := f.history.GetChatSession(context.Background(), "u", cs.ID); err != nil {
		t.Fatalf("session not persisted: %v", err)
	}

	if _, err := f.svc.CreateSession(ctx, "u", "pirate"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestSendMessageSkipsGreetingInHistory(t *testing.T) {
	f := newFixture(t, domain.APIKeys{Gemini: "g"})
	ctx := context.Background()
	cs, _ := f.svc.CreateSession(ctx, "u", "helpful_assistant")

	got, err := f.svc.SendMessage(ctx, "u", cs.ID, "hello")
	if err != nil {
		t.Fatalf("SendMessage error: %v", err)
	}
	if len(got.Messages) != 3 || got.Messages[2].Text != "Hi there" || got.Messages[2].Sender != domain.SenderModel {
		t.Fatalf("messages = %+v", got.Messages)
	}
	req := f.model.reqs[0]
	if len(req.Contents) != 1 || req.Contents[0].Role != "user" || req.Contents[0].Parts[0].Text != "hello" {
		t.Fatalf("contents = %+v", req.Contents)
	}
	if req.SystemInstruction != cs.SystemInstruction || req.Model != genai.ContentModel {
		t.Fatalf("request = %+v", req)
	}
	if !got.UpdatedAt.After(cs.UpdatedAt) {
		t.Fatalf("UpdatedAt not advanced")
	}

	_, _ = f.svc.SendMessage(ctx, "u", cs.ID, "again")
	if n := len(f.model.reqs[1].Contents); n != 3 {
		t.Fatalf("second turn contents = %d, want 3", n)
	}
}

func TestSendMessageRecordsModelError(t *testing.T) {
	f := newFixture(t, domain.APIKeys{Gemini: "g"})
	f.model.err = domain.NewMessageError(domain.ErrRemoteCallFailed, "overloaded")
	ctx := context.Background()
	cs, _ := f.svc.CreateSession(ctx, "u", "sarcastic_bot")

	got, err := f.svc.SendMessage(ctx, "u", cs.ID, "hello")
	if err != nil {
		t.Fatalf("SendMessage error: %v", err)
	}
	if last := got.Messages[len(got.Messages)-1]; last.Text != "Error: overloaded" {
		t.Fatalf("last = %+v", last)
	}
}

func TestSendMessageRequiresKeyAndSession(t *testing.T) {
	f := newFixture(t, domain.APIKeys{})
	ctx := context.Background()
	cs, _ := f.svc.CreateSession(ctx, "u", "helpful_assistant")

	if _, err := f.svc.SendMessage(ctx, "u", cs.ID, "hello"); !errors.Is(err, domain.ErrMissingCredential) {
		t.Fatalf("err = %v, want ErrMissingCredential", err)
	}
	if len(f.model.reqs) != 0 {
		t.Fatalf("model called without key")
	}

	f = newFixture(t, domain.APIKeys{Gemini: "g"})
	if _, err := f.svc.SendMessage(ctx, "u", "missing", "hello"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestGetLoadsFromRepository(t *testing.T) {
	f := newFixture(t, domain.APIKeys{Gemini: "g"})
	ctx := context.Background()
	stored := domain.ChatSession{
		ID:       "old",
		Title:    "Old",
		Messages: []domain.AgentMessage{{ID: "m0", Sender: domain.SenderModel, Text: "Hello"}},
	}
	_ = f.history.UpsertChatSession(ctx, "u", stored)

	got, err := f.svc.SendMessage(ctx, "u", "old", "resume")
	if err != nil {
		t.Fatalf("SendMessage error: %v", err)
	}
	if len(got.Messages) != 3 || got.Title != "Old" {
		t.Fatalf("session = %+v", got)
	}
}

func TestRenameListDelete(t *testing.T) {
	f := newFixture(t, domain.APIKeys{})
	ctx := context.Background()
	first, _ := f.svc.CreateSession(ctx, "u", "helpful_assistant")
	second, _ := f.svc.CreateSession(ctx, "u", "creative_writer")

	if _, err := f.svc.Rename(ctx, "u", first.ID, "Planning"); err != nil {
		t.Fatalf("Rename error: %v", err)
	}
	list, err := f.svc.List(ctx, "u")
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(list) != 2 || list[0].ID != first.ID || list[0].Title != "Planning" || list[1].ID != second.ID {
		t.Fatalf("list = %+v", list)
	}

	f.arch.Wait()
	if err := f.svc.Delete(ctx, "u", first.ID); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if err := f.svc.Delete(ctx, "u", first.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("second Delete err = %v, want ErrNotFound", err)
	}
	list, _ = f.svc.List(ctx, "u")
	if len(list) != 1 || list[0].ID != second.ID {
		t.Fatalf("list after delete = %+v", list)
	}
	for _, cs := range f.arch.Recent("u").Chats {
		if cs.ID == first.ID {
			t.Fatalf("deleted session still in recent list")
		}
	}
}

func TestListPersonasLocalized(t *testing.T) {
	f := newFixture(t, domain.APIKeys{})
	views := f.svc.ListPersonas(context.Background())
	if len(views) != len(Personas) {
		t.Fatalf("personas = %d, want %d", len(views), len(Personas))
	}
	if views[0].Name != "Helpful Assistant" || views[0].SystemInstruction == "" {
		t.Fatalf("first = %+v", views[0])
	}
}
