package domain

import (
	"fmt"
	"strings"
)

// Credential providers.
const (
	ProviderMake   = "make"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderSuno   = "suno"
)

// APIKeys holds per-provider credential strings.
type APIKeys struct {
	Make   string `json:"make"`
	OpenAI string `json:"openai"`
	Gemini string `json:"gemini"`
	Suno   string `json:"suno"`
}

// Get returns the key of the named provider.
func (k APIKeys) Get(provider string) string {
	switch strings.ToLower(provider) {
	case ProviderMake:
		return k.Make
	case ProviderOpenAI:
		return k.OpenAI
	case ProviderGemini:
		return k.Gemini
	case ProviderSuno:
		return k.Suno
	}
	return ""
}

// With returns a copy with the named provider's key replaced.
func (k APIKeys) With(provider, key string) (APIKeys, error) {
	key = strings.TrimSpace(key)
	switch strings.ToLower(provider) {
	case ProviderMake:
		k.Make = key
	case ProviderOpenAI:
		k.OpenAI = key
	case ProviderGemini:
		k.Gemini = key
	case ProviderSuno:
		k.Suno = key
	default:
		return k, fmt.Errorf("%w: unsupported provider %q", ErrInvalidInput, provider)
	}
	return k, nil
}

// Theme is the UI colour scheme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Language is a supported UI language.
type Language string

const (
	LanguageEN Language = "en"
	LanguageDE Language = "de"
)

// Message is one entry in a webhook module's chat history.
type Message struct {
	ID        string `json:"id"`
	Sender    string `json:"sender"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

// Module is a named webhook endpoint with its chat history.
type Module struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	WebhookURL  string    `json:"webhookUrl"`
	ChatHistory []Message `json:"chatHistory"`
}
