package archive

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"studio/internal/domain"
	"studio/internal/infra"
	"studio/internal/telemetry"
)

// MaxRecentItems caps every in-memory recent list.
const MaxRecentItems = 10

// Collection names one history list.
type Collection string

const (
	Images   Collection = "images"
	Videos   Collection = "videos"
	Music    Collection = "music"
	Searches Collection = "searches"
	Chats    Collection = "chats"
)

// ParseCollection maps a route segment onto a Collection.
func ParseCollection(raw string) (Collection, error) {
	switch Collection(raw) {
	case Images, Videos, Music, Searches, Chats:
		return Collection(raw), nil
	}
	return "", fmt.Errorf("%w: unknown history collection %q", domain.ErrInvalidInput, raw)
}

// Archiver keeps the recent-activity lists of every owner and forwards new
// entries to the history repository in the background. Persistence is
// best-effort: failures are logged and never undo the in-memory append.
type Archiver struct {
	repo    domain.HistoryRepository
	logger  infra.Logger
	limit   int
	timeout time.Duration

	mu     sync.RWMutex
	recent map[string]*domain.RecentActivity
	loaded map[string]bool

	wg sync.WaitGroup
}

// Options configures an Archiver.
type Options struct {
	// Repository may be nil, in which case nothing is persisted.
	Repository  domain.HistoryRepository
	Logger      *infra.Logger
	Limit       int
	SaveTimeout time.Duration
}

// New constructs an Archiver with empty recent lists.
func New(opts Options) *Archiver {
	logger := zerolog.New(io.Discard)
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = MaxRecentItems
	}
	timeout := opts.SaveTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Archiver{
		repo:    opts.Repository,
		logger:  logger,
		limit:   limit,
		timeout: timeout,
		recent:  make(map[string]*domain.RecentActivity),
		loaded:  make(map[string]bool),
	}
}

// Archive records a completed job in its owner's recent list and persists it.
// Jobs that are not completed are ignored.
func (a *Archiver) Archive(_ context.Context, job domain.Job) {
	if job.Status != domain.JobStatusCompleted || len(job.Results) == 0 {
		return
	}
	owner := job.Owner
	switch job.Kind {
	case domain.KindImage:
		entry := ImageEntry(job)
		a.mu.Lock()
		r := a.listsLocked(owner)
		r.Images = prepend(entry.Clone(), r.Images, a.limit)
		a.mu.Unlock()
		a.forward(Images, entry.ID, func(ctx context.Context) error {
			return a.repo.SaveImage(ctx, owner, entry)
		})
	case domain.KindVideo:
		entry := VideoEntry(job)
		a.mu.Lock()
		r := a.listsLocked(owner)
		r.Videos = prepend(entry.Clone(), r.Videos, a.limit)
		a.mu.Unlock()
		a.forward(Videos, entry.ID, func(ctx context.Context) error {
			return a.repo.SaveVideo(ctx, owner, entry)
		})
	case domain.KindMusic:
		entry := MusicEntry(job)
		a.mu.Lock()
		r := a.listsLocked(owner)
		r.Music = prepend(entry, r.Music, a.limit)
		a.mu.Unlock()
		a.forward(Music, entry.ID, func(ctx context.Context) error {
			return a.repo.SaveMusic(ctx, owner, entry)
		})
	}
}

// RecordSearch prepends a search result and persists it.
func (a *Archiver) RecordSearch(owner string, result domain.SearchResult) {
	a.mu.Lock()
	r := a.listsLocked(owner)
	r.Searches = prepend(result.Clone(), r.Searches, a.limit)
	a.mu.Unlock()
	a.forward(Searches, result.ID, func(ctx context.Context) error {
		return a.repo.SaveSearch(ctx, owner, result)
	})
}

// RecordChat upserts a chat session into the recent list, keeping it ordered
// by last update, and persists it.
func (a *Archiver) RecordChat(owner string, session domain.ChatSession) {
	a.mu.Lock()
	r := a.listsLocked(owner)
	chats := make([]domain.ChatSession, 0, len(r.Chats)+1)
	chats = append(chats, session.Clone())
	for _, s := range r.Chats {
		if s.ID != session.ID {
			chats = append(chats, s)
		}
	}
	sort.SliceStable(chats, func(i, j int) bool { return chats[i].UpdatedAt.After(chats[j].UpdatedAt) })
	if len(chats) > a.limit {
		chats = chats[:a.limit]
	}
	r.Chats = chats
	a.mu.Unlock()
	a.forward(Chats, session.ID, func(ctx context.Context) error {
		return a.repo.UpsertChatSession(ctx, owner, session)
	})
}

// RenameSearch relabels a recent search result of owner in memory.
func (a *Archiver) RenameSearch(owner, id, prompt string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	r, ok := a.recent[owner]
	if !ok {
		return
	}
	for i := range r.Searches {
		if r.Searches[i].ID == id {
			r.Searches[i].Prompt = prompt
		}
	}
}

// Forget drops an entry from one of owner's recent lists.
func (a *Archiver) Forget(owner string, c Collection, id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	r, ok := a.recent[owner]
	if !ok {
		return
	}
	switch c {
	case Images:
		r.Images = without(r.Images, func(e domain.GeneratedImage) bool { return e.ID == id })
	case Videos:
		r.Videos = without(r.Videos, func(e domain.GeneratedVideo) bool { return e.ID == id })
	case Music:
		r.Music = without(r.Music, func(e domain.GeneratedMusic) bool { return e.ID == id })
	case Searches:
		r.Searches = without(r.Searches, func(e domain.SearchResult) bool { return e.ID == id })
	case Chats:
		r.Chats = without(r.Chats, func(e domain.ChatSession) bool { return e.ID == id })
	}
}

// Recent returns a deep copy of owner's recent lists.
func (a *Archiver) Recent(owner string) domain.RecentActivity {
	a.mu.RLock()
	defer a.mu.RUnlock()
	r, ok := a.recent[owner]
	if !ok {
		return domain.RecentActivity{}.Clone()
	}
	return r.Clone()
}

// EnsureLoaded runs LoadRecent for owner once.
func (a *Archiver) EnsureLoaded(ctx context.Context, owner string) error {
	a.mu.RLock()
	done := a.loaded[owner]
	a.mu.RUnlock()
	if done {
		return nil
	}
	return a.LoadRecent(ctx, owner)
}

// LoadRecent merges the newest persisted entries of userID into its recent
// lists. Entries already in memory win over their stored copies. The five
// collections are fetched concurrently.
func (a *Archiver) LoadRecent(ctx context.Context, userID string) error {
	if a.repo == nil {
		a.mu.Lock()
		a.loaded[userID] = true
		a.mu.Unlock()
		return nil
	}
	var loaded domain.RecentActivity
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		loaded.Images, err = a.repo.ListImages(gctx, userID, a.limit)
		return err
	})
	g.Go(func() (err error) {
		loaded.Videos, err = a.repo.ListVideos(gctx, userID, a.limit)
		return err
	})
	g.Go(func() (err error) {
		loaded.Music, err = a.repo.ListMusic(gctx, userID, a.limit)
		return err
	})
	g.Go(func() (err error) {
		loaded.Searches, err = a.repo.ListSearches(gctx, userID, a.limit)
		return err
	})
	g.Go(func() (err error) {
		loaded.Chats, err = a.repo.ListChatSessions(gctx, userID, a.limit)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("load recent activity: %w", err)
	}
	loaded = loaded.Clone()

	a.mu.Lock()
	defer a.mu.Unlock()
	r := a.listsLocked(userID)
	r.Images = merge(r.Images, loaded.Images, a.limit,
		func(e domain.GeneratedImage) string { return e.ID },
		func(e domain.GeneratedImage) time.Time { return e.CreatedAt })
	r.Videos = merge(r.Videos, loaded.Videos, a.limit,
		func(e domain.GeneratedVideo) string { return e.ID },
		func(e domain.GeneratedVideo) time.Time { return e.CreatedAt })
	r.Music = merge(r.Music, loaded.Music, a.limit,
		func(e domain.GeneratedMusic) string { return e.ID },
		func(e domain.GeneratedMusic) time.Time { return e.CreatedAt })
	r.Searches = merge(r.Searches, loaded.Searches, a.limit,
		func(e domain.SearchResult) string { return e.ID },
		func(e domain.SearchResult) time.Time { return e.CreatedAt })
	r.Chats = merge(r.Chats, loaded.Chats, a.limit,
		func(e domain.ChatSession) string { return e.ID },
		func(e domain.ChatSession) time.Time { return e.UpdatedAt })
	a.loaded[userID] = true
	return nil
}

func (a *Archiver) listsLocked(owner string) *domain.RecentActivity {
	r, ok := a.recent[owner]
	if !ok {
		r = &domain.RecentActivity{}
		a.recent[owner] = r
	}
	return r
}

// Wait blocks until every in-flight persistence write has finished.
func (a *Archiver) Wait() {
	a.wg.Wait()
}

func (a *Archiver) forward(c Collection, id string, save func(ctx context.Context) error) {
	if a.repo == nil {
		return
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()
		if err := save(ctx); err != nil {
			telemetry.ArchiveFailures.WithLabelValues(string(c)).Inc()
			a.logger.Error().
				Err(fmt.Errorf("%w: %v", domain.ErrPersistenceFailed, err)).
				Str("collection", string(c)).
				Str("id", id).
				Msg("archive: save failed")
			return
		}
		a.logger.Debug().Str("collection", string(c)).Str("id", id).Msg("archive: saved")
	}()
}

// ImageEntry projects a completed image job onto its history entry.
func ImageEntry(job domain.Job) domain.GeneratedImage {
	p := job.Params.Image
	entry := domain.GeneratedImage{ID: job.ID, ImageURLs: append([]string(nil), job.Results...), CreatedAt: job.CreatedAt}
	if p != nil {
		entry.Prompt = p.Prompt
		entry.AspectRatio = p.AspectRatio
		entry.Style = p.Style
		entry.NegativePrompt = p.NegativePrompt
		entry.Seed = p.Seed
	}
	return entry
}

// VideoEntry projects a completed video job onto its history entry.
func VideoEntry(job domain.Job) domain.GeneratedVideo {
	p := job.Params.Video
	entry := domain.GeneratedVideo{ID: job.ID, VideoURLs: append([]string(nil), job.Results...), CreatedAt: job.CreatedAt}
	if p != nil {
		entry.Prompt = p.Prompt
		entry.Model = p.Model
		entry.Seed = p.Seed
		entry.InputImage = p.InputImage
	}
	return entry
}

// MusicEntry projects a completed music job onto its history entry.
func MusicEntry(job domain.Job) domain.GeneratedMusic {
	p := job.Params.Music
	entry := domain.GeneratedMusic{ID: job.ID, CreatedAt: job.CreatedAt}
	if len(job.Results) > 0 {
		entry.AudioURL = job.Results[0]
	}
	if p != nil {
		entry.Prompt = p.Prompt
		entry.Title = p.Title
		entry.Style = p.Style
		entry.IsInstrumental = p.IsInstrumental
	}
	return entry
}

func prepend[T any](item T, list []T, limit int) []T {
	out := make([]T, 0, min(len(list)+1, limit))
	out = append(out, item)
	for _, e := range list {
		if len(out) == limit {
			break
		}
		out = append(out, e)
	}
	return out
}

// merge keeps the in-memory entries, adds stored ones not already present,
// orders newest first and caps the result.
func merge[T any](mem, stored []T, limit int, id func(T) string, at func(T) time.Time) []T {
	seen := make(map[string]struct{}, len(mem))
	out := make([]T, 0, len(mem)+len(stored))
	for _, e := range mem {
		seen[id(e)] = struct{}{}
		out = append(out, e)
	}
	for _, e := range stored {
		if _, dup := seen[id(e)]; !dup {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return at(out[i]).After(at(out[j])) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func without[T any](list []T, match func(T) bool) []T {
	out := list[:0:0]
	for _, e := range list {
		if !match(e) {
			out = append(out, e)
		}
	}
	return out
}

var _ domain.JobArchiver = (*Archiver)(nil)
