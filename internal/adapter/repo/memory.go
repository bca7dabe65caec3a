package repo

import (
	"context"
	"sort"
	"sync"

	"studio/internal/domain"
)

// MemoryHistory is a process-local HistoryRepository used when no database is
// configured. Entries are kept per user.
type MemoryHistory struct {
	mu       sync.RWMutex
	images   map[string][]domain.GeneratedImage
	videos   map[string][]domain.GeneratedVideo
	music    map[string][]domain.GeneratedMusic
	searches map[string][]domain.SearchResult
	chats    map[string][]domain.ChatSession
}

func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{
		images:   make(map[string][]domain.GeneratedImage),
		videos:   make(map[string][]domain.GeneratedVideo),
		music:    make(map[string][]domain.GeneratedMusic),
		searches: make(map[string][]domain.SearchResult),
		chats:    make(map[string][]domain.ChatSession),
	}
}

func (m *MemoryHistory) SaveImage(_ context.Context, userID string, item domain.GeneratedImage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.images[userID] = insertOnce(m.images[userID], item, func(e domain.GeneratedImage) string { return e.ID })
	return nil
}

func (m *MemoryHistory) ListImages(_ context.Context, userID string, limit int) ([]domain.GeneratedImage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return newest(m.images[userID], limit, func(e domain.GeneratedImage) int64 { return e.CreatedAt.UnixNano() }), nil
}

func (m *MemoryHistory) GetImage(_ context.Context, userID, id string) (*domain.GeneratedImage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.images[userID] {
		if e.ID == id {
			return &e, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MemoryHistory) DeleteImage(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ok bool
	m.images[userID], ok = remove(m.images[userID], func(e domain.GeneratedImage) bool { return e.ID == id })
	return found(ok)
}

func (m *MemoryHistory) SaveVideo(_ context.Context, userID string, item domain.GeneratedVideo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.videos[userID] = insertOnce(m.videos[userID], item, func(e domain.GeneratedVideo) string { return e.ID })
	return nil
}

func (m *MemoryHistory) ListVideos(_ context.Context, userID string, limit int) ([]domain.GeneratedVideo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return newest(m.videos[userID], limit, func(e domain.GeneratedVideo) int64 { return e.CreatedAt.UnixNano() }), nil
}

func (m *MemoryHistory) DeleteVideo(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ok bool
	m.videos[userID], ok = remove(m.videos[userID], func(e domain.GeneratedVideo) bool { return e.ID == id })
	return found(ok)
}

func (m *MemoryHistory) SaveMusic(_ context.Context, userID string, item domain.GeneratedMusic) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.music[userID] = insertOnce(m.music[userID], item, func(e domain.GeneratedMusic) string { return e.ID })
	return nil
}

func (m *MemoryHistory) ListMusic(_ context.Context, userID string, limit int) ([]domain.GeneratedMusic, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return newest(m.music[userID], limit, func(e domain.GeneratedMusic) int64 { return e.CreatedAt.UnixNano() }), nil
}

func (m *MemoryHistory) DeleteMusic(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ok bool
	m.music[userID], ok = remove(m.music[userID], func(e domain.GeneratedMusic) bool { return e.ID == id })
	return found(ok)
}

func (m *MemoryHistory) SaveSearch(_ context.Context, userID string, item domain.SearchResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searches[userID] = insertOnce(m.searches[userID], item, func(e domain.SearchResult) string { return e.ID })
	return nil
}

func (m *MemoryHistory) ListSearches(_ context.Context, userID string, limit int) ([]domain.SearchResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return newest(m.searches[userID], limit, func(e domain.SearchResult) int64 { return e.CreatedAt.UnixNano() }), nil
}

func (m *MemoryHistory) RenameSearch(_ context.Context, userID, id, prompt string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.searches[userID]
	for i := range list {
		if list[i].ID == id {
			list[i].Prompt = prompt
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *MemoryHistory) DeleteSearch(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ok bool
	m.searches[userID], ok = remove(m.searches[userID], func(e domain.SearchResult) bool { return e.ID == id })
	return found(ok)
}

func (m *MemoryHistory) UpsertChatSession(_ context.Context, userID string, session domain.ChatSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	session.Messages = append([]domain.AgentMessage(nil), session.Messages...)
	list := m.chats[userID]
	for i := range list {
		if list[i].ID == session.ID {
			session.CreatedAt = list[i].CreatedAt
			list[i] = session
			return nil
		}
	}
	m.chats[userID] = append(list, session)
	return nil
}

func (m *MemoryHistory) ListChatSessions(_ context.Context, userID string, limit int) ([]domain.ChatSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return newest(m.chats[userID], limit, func(e domain.ChatSession) int64 { return e.UpdatedAt.UnixNano() }), nil
}

func (m *MemoryHistory) GetChatSession(_ context.Context, userID, id string) (*domain.ChatSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.chats[userID] {
		if e.ID == id {
			e.Messages = append([]domain.AgentMessage(nil), e.Messages...)
			return &e, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MemoryHistory) DeleteChatSession(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ok bool
	m.chats[userID], ok = remove(m.chats[userID], func(e domain.ChatSession) bool { return e.ID == id })
	return found(ok)
}

func insertOnce[T any](list []T, item T, id func(T) string) []T {
	for _, e := range list {
		if id(e) == id(item) {
			return list
		}
	}
	return append(list, item)
}

func newest[T any](list []T, limit int, key func(T) int64) []T {
	out := append([]T{}, list...)
	sort.SliceStable(out, func(i, j int) bool { return key(out[i]) > key(out[j]) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func remove[T any](list []T, match func(T) bool) ([]T, bool) {
	for i, e := range list {
		if match(e) {
			return append(list[:i:i], list[i+1:]...), true
		}
	}
	return list, false
}

func found(ok bool) error {
	if !ok {
		return domain.ErrNotFound
	}
	return nil
}

var _ domain.HistoryRepository = (*MemoryHistory)(nil)
