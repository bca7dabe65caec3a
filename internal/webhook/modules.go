package webhook

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"studio/internal/domain"
	"studio/internal/infra"
)

// Sender delivers one message to a webhook.
type Sender interface {
	Send(ctx context.Context, url, text, apiKey string) (string, error)
}

// ModuleStore persists the module list.
type ModuleStore interface {
	Modules(ctx context.Context) ([]domain.Module, error)
	SaveModules(ctx context.Context, modules []domain.Module) error
}

// IDGenerator issues module and message ids.
type IDGenerator interface {
	NewID() string
}

// Modules manages webhook chat modules. Every mutation is a
// read-modify-write of the whole list under one lock.
type Modules struct {
	store  ModuleStore
	creds  domain.CredentialSource
	sender Sender
	ids    IDGenerator
	now    func() time.Time
	logger infra.Logger

	mu sync.Mutex
}

// NewModules wires a module service. now may be nil.
func NewModules(store ModuleStore, creds domain.CredentialSource, sender Sender, ids IDGenerator, now func() time.Time, logger infra.Logger) *Modules {
	if now == nil {
		now = time.Now
	}
	return &Modules{store: store, creds: creds, sender: sender, ids: ids, now: now, logger: logger}
}

func (m *Modules) List(ctx context.Context) ([]domain.Module, error) {
	return m.store.Modules(ctx)
}

// Create prepends a module with an empty history.
func (m *Modules) Create(ctx context.Context, name, url string) (domain.Module, error) {
	name, url = strings.TrimSpace(name), strings.TrimSpace(url)
	if name == "" || url == "" {
		return domain.Module{}, domain.NewMessageError(domain.ErrInvalidInput, "Module name and webhook URL are required.")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	modules, err := m.store.Modules(ctx)
	if err != nil {
		return domain.Module{}, err
	}
	module := domain.Module{ID: m.ids.NewID(), Name: name, WebhookURL: url, ChatHistory: []domain.Message{}}
	if err := m.store.SaveModules(ctx, append([]domain.Module{module}, modules...)); err != nil {
		return domain.Module{}, err
	}
	return module, nil
}

func (m *Modules) Rename(ctx context.Context, id, name string) (domain.Module, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Module{}, domain.NewMessageError(domain.ErrInvalidInput, "Module name is required.")
	}
	return m.mutate(ctx, id, func(mod *domain.Module) { mod.Name = name })
}

func (m *Modules) ClearHistory(ctx context.Context, id string) (domain.Module, error) {
	return m.mutate(ctx, id, func(mod *domain.Module) { mod.ChatHistory = []domain.Message{} })
}

func (m *Modules) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	modules, err := m.store.Modules(ctx)
	if err != nil {
		return err
	}
	kept := modules[:0:0]
	for _, mod := range modules {
		if mod.ID != id {
			kept = append(kept, mod)
		}
	}
	if len(kept) == len(modules) {
		return fmt.Errorf("module %s: %w", id, domain.ErrNotFound)
	}
	return m.store.SaveModules(ctx, kept)
}

// SendMessage appends the user's text, relays it and appends the reply. A
// relay failure becomes a webhook message in the history instead of an error.
func (m *Modules) SendMessage(ctx context.Context, id, text string) (domain.Module, error) {
	if strings.TrimSpace(text) == "" {
		return domain.Module{}, domain.NewMessageError(domain.ErrInvalidInput, "Message text is required.")
	}
	target, err := m.mutate(ctx, id, func(mod *domain.Module) {
		mod.ChatHistory = append(mod.ChatHistory, m.message(domain.SenderUser, text))
	})
	if err != nil {
		return domain.Module{}, err
	}

	keys, err := m.creds.APIKeys(ctx)
	if err != nil {
		return domain.Module{}, fmt.Errorf("load api keys: %w", err)
	}
	reply, err := m.sender.Send(ctx, target.WebhookURL, text, keys.Make)
	if err != nil {
		m.logger.Warn().Err(err).Str("module_id", id).Msg("webhook: relay failed")
		reply = replyForError(err)
	}

	return m.mutate(ctx, id, func(mod *domain.Module) {
		mod.ChatHistory = append(mod.ChatHistory, m.message(domain.SenderWebhook, reply))
	})
}

func replyForError(err error) string {
	msg := domain.UserMessage(err)
	if errors.Is(err, domain.ErrMissingCredential) {
		return msg
	}
	return "Error: " + msg
}

func (m *Modules) mutate(ctx context.Context, id string, fn func(*domain.Module)) (domain.Module, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	modules, err := m.store.Modules(ctx)
	if err != nil {
		return domain.Module{}, err
	}
	for i := range modules {
		if modules[i].ID != id {
			continue
		}
		if modules[i].ChatHistory == nil {
			modules[i].ChatHistory = []domain.Message{}
		}
		fn(&modules[i])
		if err := m.store.SaveModules(ctx, modules); err != nil {
			return domain.Module{}, err
		}
		return modules[i], nil
	}
	return domain.Module{}, fmt.Errorf("module %s: %w", id, domain.ErrNotFound)
}

func (m *Modules) message(sender, text string) domain.Message {
	return domain.Message{
		ID:        m.ids.NewID(),
		Sender:    sender,
		Text:      text,
		Timestamp: m.now().UTC().Format(time.RFC3339),
	}
}
