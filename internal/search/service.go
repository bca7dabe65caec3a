package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"studio/internal/archive"
	"studio/internal/domain"
	"studio/internal/infra"
	"studio/internal/providers/genai"
	"studio/internal/telemetry"
)

// HistoryLimit bounds the search history listing.
const HistoryLimit = 50

// ContentGenerator runs one grounded text generation.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, apiKey string, req genai.ContentRequest) (genai.ContentResponse, error)
}

// Localizer renders catalog keys for the language in effect.
type Localizer interface {
	Text(ctx context.Context, key string, args map[string]string) string
}

// IDGenerator issues result ids.
type IDGenerator interface {
	NewID() string
}

// Service answers web-grounded questions and keeps their history.
type Service struct {
	creds    domain.CredentialSource
	model    ContentGenerator
	archiver *archive.Archiver
	repo     domain.HistoryRepository
	ids      IDGenerator
	text     Localizer
	now      func() time.Time
	logger   infra.Logger
}

// Options wires a Service. Now may be nil.
type Options struct {
	Credentials domain.CredentialSource
	Model       ContentGenerator
	Archiver    *archive.Archiver
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
		archiver: opts.Archiver,
		repo:     opts.Repository,
		ids:      opts.IDs,
		text:     opts.Text,
		now:      now,
		logger:   opts.Logger,
	}
}

// Search asks the content model with the Google Search tool enabled and
// records the answer.
func (s *Service) Search(ctx context.Context, owner, prompt string) (domain.SearchResult, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return domain.SearchResult{}, domain.NewMessageError(domain.ErrInvalidInput, s.text.Text(ctx, "search_prompt_error", nil))
	}
	keys, err := s.creds.APIKeys(ctx)
	if err != nil {
		return domain.SearchResult{}, fmt.Errorf("load api keys: %w", err)
	}
	if keys.Gemini == "" {
		return domain.SearchResult{}, domain.NewMessageError(domain.ErrMissingCredential, s.text.Text(ctx, "error_gemini_api_key_not_set", nil))
	}

	resp, err := s.model.GenerateContent(context.WithoutCancel(ctx), keys.Gemini, genai.ContentRequest{
		Model:    genai.ContentModel,
		Contents: []genai.Content{genai.TextContent("user", prompt)},
		Tools:    []genai.Tool{genai.GoogleSearchTool()},
	})
	if err != nil {
		telemetry.ProviderCalls.WithLabelValues("search", "error").Inc()
		s.logger.Warn().Err(err).Msg("search: generate content failed")
		kind := domain.ErrRemoteCallFailed
		if errors.Is(err, domain.ErrMissingCredential) {
			kind = domain.ErrMissingCredential
		}
		msg := s.text.Text(ctx, "search_failed", map[string]string{"error": domain.UserMessage(err)})
		return domain.SearchResult{}, domain.NewMessageError(kind, msg)
	}
	telemetry.ProviderCalls.WithLabelValues("search", "ok").Inc()

	result := domain.SearchResult{
		ID:        s.ids.NewID(),
		Prompt:    prompt,
		Result:    resp.Text,
		Sources:   resp.GroundingChunks,
		CreatedAt: s.now().UTC(),
	}
	s.archiver.RecordSearch(owner, result)
	s.logger.Info().Str("search_id", result.ID).Int("sources", len(result.Sources)).Msg("search: answered")
	return result, nil
}

// History lists stored results newest first.
func (s *Service) History(ctx context.Context, owner string) ([]domain.SearchResult, error) {
	items, err := s.repo.ListSearches(ctx, owner, HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("list searches: %w", err)
	}
	return items, nil
}

// Rename replaces the label shown for a stored result.
func (s *Service) Rename(ctx context.Context, owner, id, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.NewMessageError(domain.ErrInvalidInput, "Title is required.")
	}
	if err := s.repo.RenameSearch(ctx, owner, id, title); err != nil {
		return err
	}
	s.archiver.RenameSearch(owner, id, title)
	return nil
}

func (s *Service) Delete(ctx context.Context, owner, id string) error {
	if err := s.repo.DeleteSearch(ctx, owner, id); err != nil {
		return err
	}
	s.archiver.Forget(owner, archive.Searches, id)
	return nil
}
