package agent

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"studio/internal/archive"
	"studio/internal/domain"
	"studio/internal/infra"
	"studio/internal/providers/genai"
	"studio/internal/telemetry"
)

// ListLimit bounds the session listing.
const ListLimit = 50

// ContentGenerator runs one chat turn.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, apiKey string, req genai.ContentRequest) (genai.ContentResponse, error)
}

// Localizer renders catalog keys for the language in effect.
type Localizer interface {
	Text(ctx context.Context, key string, args map[string]string) string
}

// IDGenerator issues session and message ids.
type IDGenerator interface {
	NewID() string
}

// Recorder keeps the recent chat list and persists sessions.
type Recorder interface {
	RecordChat(owner string, session domain.ChatSession)
	Forget(owner string, c archive.Collection, id string)
}

// Service runs persona chat sessions. Sessions are cached per owner and every
// change is handed to the recorder, which persists it in the background.
type Service struct {
	creds    domain.CredentialSource
	model    ContentGenerator
	recorder Recorder
	repo     domain.HistoryRepository
	ids      IDGenerator
	text     Localizer
	now      func() time.Time
	logger   infra.Logger

	mu       sync.Mutex
	sessions map[string]map[string]domain.ChatSession
}

// Options wires a Service. Now may be nil.
type Options struct {
	Credentials domain.CredentialSource
	Model       ContentGenerator
	Recorder    Recorder
	Repository  domain.HistoryRepository
	IDs         IDGenerator
	Text        Localizer
	Now         func() time.Time
	Logger      infra.Logger
}

func NewService(opts Options) *Service {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		creds:    opts.Credentials,
		model:    opts.Model,
		recorder: opts.Recorder,
		repo:     opts.Repository,
		ids:      opts.IDs,
		text:     opts.Text,
		now:      now,
		logger:   opts.Logger,
		sessions: make(map[string]map[string]domain.ChatSession),
	}
}

// CreateSession opens a chat with the persona's greeting as first message.
func (s *Service) CreateSession(ctx context.Context, owner, personaID string) (domain.ChatSession, error) {
	persona, err := FindPersona(personaID)
	if err != nil {
		return domain.ChatSession{}, err
	}
	view := s.render(ctx, persona)
	now := s.now().UTC()
	session := domain.ChatSession{
		ID:                s.ids.NewID(),
		Title:             s.text.Text(ctx, "agent_session_title", map[string]string{"persona": view.Name}),
		PersonaName:       view.Name,
		SystemInstruction: view.SystemInstruction,
		Messages: []domain.AgentMessage{{
			ID:     s.ids.NewID(),
			Sender: domain.SenderModel,
			Text:   s.text.Text(ctx, "chat_interface_initial_message", nil),
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.store(owner, session)
	return session, nil
}

// SendMessage appends the user's text, asks the model with the session's
// instruction and history, and appends the reply. A model failure becomes an
// "Error: ..." message instead of an error.
func (s *Service) SendMessage(ctx context.Context, owner, sessionID, text string) (domain.ChatSession, error) {
	if strings.TrimSpace(text) == "" {
		return domain.ChatSession{}, domain.NewMessageError(domain.ErrInvalidInput, s.text.Text(ctx, "chat_message_empty", nil))
	}
	keys, err := s.creds.APIKeys(ctx)
	if err != nil {
		return domain.ChatSession{}, fmt.Errorf("load api keys: %w", err)
	}
	if keys.Gemini == "" {
		return domain.ChatSession{}, domain.NewMessageError(domain.ErrMissingCredential, s.text.Text(ctx, "error_gemini_api_key_not_set", nil))
	}

	session, err := s.update(ctx, owner, sessionID, func(cs *domain.ChatSession) {
		cs.Messages = append(cs.Messages, domain.AgentMessage{ID: s.ids.NewID(), Sender: domain.SenderUser, Text: text})
	})
	if err != nil {
		return domain.ChatSession{}, err
	}

	reply := domain.AgentMessage{ID: s.ids.NewID(), Sender: domain.SenderModel}
	resp, err := s.model.GenerateContent(context.WithoutCancel(ctx), keys.Gemini, chatRequest(session))
	if err != nil {
		telemetry.ProviderCalls.WithLabelValues("chat", "error").Inc()
		s.logger.Warn().Err(err).Str("session_id", sessionID).Msg("agent: generate content failed")
		reply.Text = "Error: " + domain.UserMessage(err)
	} else {
		telemetry.ProviderCalls.WithLabelValues("chat", "ok").Inc()
		reply.Text = resp.Text
	}

	return s.update(ctx, owner, sessionID, func(cs *domain.ChatSession) {
		cs.Messages = append(cs.Messages, reply)
	})
}

// chatRequest skips the greeting, which the model never said.
func chatRequest(session domain.ChatSession) genai.ContentRequest {
	req := genai.ContentRequest{
		Model:             genai.ContentModel,
		SystemInstruction: session.SystemInstruction,
	}
	if len(session.Messages) > 1 {
		for _, m := range session.Messages[1:] {
			req.Contents = append(req.Contents, genai.TextContent(m.Sender, m.Text))
		}
	}
	if c := session.Config; c != nil {
		cfg := &genai.GenerationConfig{}
		if c.Temperature != 0 {
			cfg.Temperature = &c.Temperature
		}
		if c.TopP != 0 {
			cfg.TopP = &c.TopP
		}
		if c.TopK != 0 {
			cfg.TopK = &c.TopK
		}
		req.Config = cfg
	}
	return req
}

// Rename changes a session title.
func (s *Service) Rename(ctx context.Context, owner, sessionID, title string) (domain.ChatSession, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.ChatSession{}, domain.NewMessageError(domain.ErrInvalidInput, "Title is required.")
	}
	return s.update(ctx, owner, sessionID, func(cs *domain.ChatSession) { cs.Title = title })
}

// Delete removes a session from the cache and the repository.
func (s *Service) Delete(ctx context.Context, owner, sessionID string) error {
	s.mu.Lock()
	_, cached := s.sessions[owner][sessionID]
	delete(s.sessions[owner], sessionID)
	s.mu.Unlock()
	s.recorder.Forget(owner, archive.Chats, sessionID)

	if s.repo == nil {
		if !cached {
			return fmt.Errorf("session %s: %w", sessionID, domain.ErrNotFound)
		}
		return nil
	}
	err := s.repo.DeleteChatSession(ctx, owner, sessionID)
	if errors.Is(err, domain.ErrNotFound) && cached {
		// Created but not yet persisted.
		return nil
	}
	return err
}

// List returns the owner's sessions, most recently updated first.
func (s *Service) List(ctx context.Context, owner string) ([]domain.ChatSession, error) {
	merged := map[string]domain.ChatSession{}
	if s.repo != nil {
		stored, err := s.repo.ListChatSessions(ctx, owner, ListLimit)
		if err != nil {
			return nil, fmt.Errorf("list chat sessions: %w", err)
		}
		for _, cs := range stored {
			merged[cs.ID] = cs
		}
	}
	s.mu.Lock()
	for id, cs := range s.sessions[owner] {
		merged[id] = cs
	}
	s.mu.Unlock()

	out := make([]domain.ChatSession, 0, len(merged))
	for _, cs := range merged {
		out = append(out, cs)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	if len(out) > ListLimit {
		out = out[:ListLimit]
	}
	return out, nil
}

// Get returns one session, loading it from the repository on a cache miss.
func (s *Service) Get(ctx context.Context, owner, sessionID string) (domain.ChatSession, error) {
	s.mu.Lock()
	cs, ok := s.sessions[owner][sessionID]
	s.mu.Unlock()
	if ok {
		return cs, nil
	}
	if s.repo == nil {
		return domain.ChatSession{}, fmt.Errorf("session %s: %w", sessionID, domain.ErrNotFound)
	}
	stored, err := s.repo.GetChatSession(ctx, owner, sessionID)
	if err != nil {
		return domain.ChatSession{}, err
	}
	s.mu.Lock()
	if _, raced := s.sessions[owner][sessionID]; !raced {
		s.cache(owner, *stored)
	}
	cs = s.sessions[owner][sessionID]
	s.mu.Unlock()
	return cs, nil
}

func (s *Service) update(ctx context.Context, owner, sessionID string, fn func(*domain.ChatSession)) (domain.ChatSession, error) {
	if _, err := s.Get(ctx, owner, sessionID); err != nil {
		return domain.ChatSession{}, err
	}
	s.mu.Lock()
	cs, ok := s.sessions[owner][sessionID]
	if !ok {
		s.mu.Unlock()
		return domain.ChatSession{}, fmt.Errorf("session %s: %w", sessionID, domain.ErrNotFound)
	}
	cs.Messages = append([]domain.AgentMessage{}, cs.Messages...)
	fn(&cs)
	cs.UpdatedAt = s.now().UTC()
	s.cache(owner, cs)
	s.mu.Unlock()

	s.recorder.RecordChat(owner, cs)
	return cs, nil
}

func (s *Service) store(owner string, cs domain.ChatSession) {
	s.mu.Lock()
	s.cache(owner, cs)
	s.mu.Unlock()
	s.recorder.RecordChat(owner, cs)
}

// cache requires s.mu.
func (s *Service) cache(owner string, cs domain.ChatSession) {
	if s.sessions[owner] == nil {
		s.sessions[owner] = make(map[string]domain.ChatSession)
	}
	s.sessions[owner][cs.ID] = cs
}
