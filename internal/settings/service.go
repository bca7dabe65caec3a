package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"studio/internal/domain"
)

// Setting keys.
const (
	KeyAPIKeys  = "apiKeys"
	KeyTheme    = "theme"
	KeyLanguage = "language"
	KeyModules  = "webhook_modules"
)

// Service exposes typed accessors over a SettingsStore. Missing values fall
// back to defaults.
type Service struct {
	store domain.SettingsStore
	// mu serializes read-modify-write updates such as SetAPIKey.
	mu sync.Mutex
}

func NewService(store domain.SettingsStore) *Service {
	return &Service{store: store}
}

func (s *Service) APIKeys(ctx context.Context) (domain.APIKeys, error) {
	var keys domain.APIKeys
	if err := s.load(ctx, KeyAPIKeys, &keys); err != nil {
		return domain.APIKeys{}, err
	}
	return keys, nil
}

func (s *Service) SetAPIKeys(ctx context.Context, keys domain.APIKeys) error {
	keys.Make = strings.TrimSpace(keys.Make)
	keys.OpenAI = strings.TrimSpace(keys.OpenAI)
	keys.Gemini = strings.TrimSpace(keys.Gemini)
	keys.Suno = strings.TrimSpace(keys.Suno)
	return s.save(ctx, KeyAPIKeys, keys)
}

// SetAPIKey replaces a single provider key, keeping the others.
func (s *Service) SetAPIKey(ctx context.Context, provider, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys, err := s.APIKeys(ctx)
	if err != nil {
		return err
	}
	if keys, err = keys.With(provider, key); err != nil {
		return err
	}
	return s.save(ctx, KeyAPIKeys, keys)
}

func (s *Service) Theme(ctx context.Context) (domain.Theme, error) {
	theme := domain.ThemeDark
	if err := s.load(ctx, KeyTheme, &theme); err != nil {
		return "", err
	}
	return theme, nil
}

func (s *Service) SetTheme(ctx context.Context, theme domain.Theme) error {
	switch theme {
	case domain.ThemeLight, domain.ThemeDark:
	default:
		return fmt.Errorf("%w: unsupported theme %q", domain.ErrInvalidInput, theme)
	}
	return s.save(ctx, KeyTheme, theme)
}

func (s *Service) Language(ctx context.Context) (domain.Language, error) {
	lang := domain.LanguageEN
	if err := s.load(ctx, KeyLanguage, &lang); err != nil {
		return "", err
	}
	return lang, nil
}

func (s *Service) SetLanguage(ctx context.Context, lang domain.Language) error {
	switch lang {
	case domain.LanguageEN, domain.LanguageDE:
	default:
		return fmt.Errorf("%w: unsupported language %q", domain.ErrInvalidInput, lang)
	}
	return s.save(ctx, KeyLanguage, lang)
}

func (s *Service) Modules(ctx context.Context) ([]domain.Module, error) {
	modules := []domain.Module{}
	if err := s.load(ctx, KeyModules, &modules); err != nil {
		return nil, err
	}
	if modules == nil {
		modules = []domain.Module{}
	}
	return modules, nil
}

func (s *Service) SaveModules(ctx context.Context, modules []domain.Module) error {
	if modules == nil {
		modules = []domain.Module{}
	}
	return s.save(ctx, KeyModules, modules)
}

func (s *Service) load(ctx context.Context, key string, dest any) error {
	raw, err := s.store.Get(ctx, key)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read setting %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("decode setting %s: %w", key, err)
	}
	return nil
}

func (s *Service) save(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode setting %s: %w", key, err)
	}
	if err := s.store.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("write setting %s: %w", key, err)
	}
	return nil
}

var _ domain.CredentialSource = (*Service)(nil)
