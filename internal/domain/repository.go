package domain

import "context"

// HistoryRepository persists archived generations keyed by user identity.
type HistoryRepository interface {
	SaveImage(ctx context.Context, userID string, item GeneratedImage) error
	ListImages(ctx context.Context, userID string, limit int) ([]GeneratedImage, error)
	DeleteImage(ctx context.Context, userID, id string) error
	GetImage(ctx context.Context, userID, id string) (*GeneratedImage, error)

	SaveVideo(ctx context.Context, userID string, item GeneratedVideo) error
	ListVideos(ctx context.Context, userID string, limit int) ([]GeneratedVideo, error)
	DeleteVideo(ctx context.Context, userID, id string) error

	SaveMusic(ctx context.Context, userID string, item GeneratedMusic) error
	ListMusic(ctx context.Context, userID string, limit int) ([]GeneratedMusic, error)
	DeleteMusic(ctx context.Context, userID, id string) error

	SaveSearch(ctx context.Context, userID string, item SearchResult) error
	ListSearches(ctx context.Context, userID string, limit int) ([]SearchResult, error)
	RenameSearch(ctx context.Context, userID, id, prompt string) error
	DeleteSearch(ctx context.Context, userID, id string) error

	UpsertChatSession(ctx context.Context, userID string, session ChatSession) error
	ListChatSessions(ctx context.Context, userID string, limit int) ([]ChatSession, error)
	GetChatSession(ctx context.Context, userID, id string) (*ChatSession, error)
	DeleteChatSession(ctx context.Context, userID, id string) error
}

// SettingsStore is a key-value store of JSON-serialized values.
type SettingsStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
