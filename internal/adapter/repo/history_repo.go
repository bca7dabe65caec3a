package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"studio/internal/domain"
	"studio/internal/infra"
	"studio/internal/sqlinline"
)

// HistoryRepositoryPG implements domain.HistoryRepository on PostgreSQL.
type HistoryRepositoryPG struct {
	db infra.SQLExecutor
}

// NewHistoryRepository creates a history repository over the marker-audited executor.
func NewHistoryRepository(db infra.SQLExecutor) *HistoryRepositoryPG {
	return &HistoryRepositoryPG{db: db}
}

func (r *HistoryRepositoryPG) SaveImage(ctx context.Context, userID string, item domain.GeneratedImage) error {
	urls, err := json.Marshal(nonNil(item.ImageURLs))
	if err != nil {
		return fmt.Errorf("encode image urls: %w", err)
	}
	_, err = r.db.Exec(ctx, sqlinline.QInsertGeneratedImage,
		item.ID, userID, item.Prompt, urls, item.AspectRatio,
		item.Style, item.NegativePrompt, item.Seed, item.CreatedAt,
	)
	return err
}

func (r *HistoryRepositoryPG) ListImages(ctx context.Context, userID string, limit int) ([]domain.GeneratedImage, error) {
	rows, err := r.db.Query(ctx, sqlinline.QListGeneratedImages, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.GeneratedImage, 0, limit)
	for rows.Next() {
		item, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *HistoryRepositoryPG) GetImage(ctx context.Context, userID, id string) (*domain.GeneratedImage, error) {
	item, err := scanImage(r.db.QueryRow(ctx, sqlinline.QSelectGeneratedImage, id, userID))
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (r *HistoryRepositoryPG) DeleteImage(ctx context.Context, userID, id string) error {
	return r.deleteByID(ctx, sqlinline.QDeleteGeneratedImage, userID, id)
}

func (r *HistoryRepositoryPG) SaveVideo(ctx context.Context, userID string, item domain.GeneratedVideo) error {
	urls, err := json.Marshal(nonNil(item.VideoURLs))
	if err != nil {
		return fmt.Errorf("encode video urls: %w", err)
	}
	var input []byte
	if item.InputImage != nil {
		if input, err = json.Marshal(item.InputImage); err != nil {
			return fmt.Errorf("encode input image: %w", err)
		}
	}
	_, err = r.db.Exec(ctx, sqlinline.QInsertGeneratedVideo,
		item.ID, userID, item.Prompt, urls, item.Model, item.Seed, input, item.CreatedAt,
	)
	return err
}

func (r *HistoryRepositoryPG) ListVideos(ctx context.Context, userID string, limit int) ([]domain.GeneratedVideo, error) {
	rows, err := r.db.Query(ctx, sqlinline.QListGeneratedVideos, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.GeneratedVideo, 0, limit)
	for rows.Next() {
		var (
			item  domain.GeneratedVideo
			urls  []byte
			input []byte
		)
		if err := rows.Scan(&item.ID, &item.Prompt, &urls, &item.Model, &item.Seed, &input, &item.CreatedAt); err != nil {
			return nil, err
		}
		if err := decodeJSON(urls, &item.VideoURLs); err != nil {
			return nil, fmt.Errorf("decode video urls: %w", err)
		}
		if len(input) > 0 && string(input) != "null" {
			item.InputImage = &domain.InlineImage{}
			if err := json.Unmarshal(input, item.InputImage); err != nil {
				return nil, fmt.Errorf("decode input image: %w", err)
			}
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *HistoryRepositoryPG) DeleteVideo(ctx context.Context, userID, id string) error {
	return r.deleteByID(ctx, sqlinline.QDeleteGeneratedVideo, userID, id)
}

func (r *HistoryRepositoryPG) SaveMusic(ctx context.Context, userID string, item domain.GeneratedMusic) error {
	_, err := r.db.Exec(ctx, sqlinline.QInsertGeneratedMusic,
		item.ID, userID, item.Prompt, item.Title, item.Style, item.IsInstrumental, item.AudioURL, item.CreatedAt,
	)
	return err
}

func (r *HistoryRepositoryPG) ListMusic(ctx context.Context, userID string, limit int) ([]domain.GeneratedMusic, error) {
	rows, err := r.db.Query(ctx, sqlinline.QListGeneratedMusic, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.GeneratedMusic, 0, limit)
	for rows.Next() {
		var item domain.GeneratedMusic
		if err := rows.Scan(&item.ID, &item.Prompt, &item.Title, &item.Style, &item.IsInstrumental, &item.AudioURL, &item.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *HistoryRepositoryPG) DeleteMusic(ctx context.Context, userID, id string) error {
	return r.deleteByID(ctx, sqlinline.QDeleteGeneratedMusic, userID, id)
}

func (r *HistoryRepositoryPG) SaveSearch(ctx context.Context, userID string, item domain.SearchResult) error {
	sources, err := json.Marshal(nonNil(item.Sources))
	if err != nil {
		return fmt.Errorf("encode sources: %w", err)
	}
	_, err = r.db.Exec(ctx, sqlinline.QInsertSearchResult,
		item.ID, userID, item.Prompt, item.Result, sources, item.CreatedAt,
	)
	return err
}

func (r *HistoryRepositoryPG) ListSearches(ctx context.Context, userID string, limit int) ([]domain.SearchResult, error) {
	rows, err := r.db.Query(ctx, sqlinline.QListSearchResults, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.SearchResult, 0, limit)
	for rows.Next() {
		var (
			item    domain.SearchResult
			sources []byte
		)
		if err := rows.Scan(&item.ID, &item.Prompt, &item.Result, &sources, &item.CreatedAt); err != nil {
			return nil, err
		}
		if err := decodeJSON(sources, &item.Sources); err != nil {
			return nil, fmt.Errorf("decode sources: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *HistoryRepositoryPG) RenameSearch(ctx context.Context, userID, id, prompt string) error {
	tag, err := r.db.Exec(ctx, sqlinline.QRenameSearchResult, id, userID, prompt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *HistoryRepositoryPG) DeleteSearch(ctx context.Context, userID, id string) error {
	return r.deleteByID(ctx, sqlinline.QDeleteSearchResult, userID, id)
}

func (r *HistoryRepositoryPG) UpsertChatSession(ctx context.Context, userID string, session domain.ChatSession) error {
	messages, err := json.Marshal(nonNil(session.Messages))
	if err != nil {
		return fmt.Errorf("encode messages: %w", err)
	}
	var cfg []byte
	if session.Config != nil {
		if cfg, err = json.Marshal(session.Config); err != nil {
			return fmt.Errorf("encode chat config: %w", err)
		}
	}
	_, err = r.db.Exec(ctx, sqlinline.QUpsertChatSession,
		session.ID, userID, session.Title, session.PersonaName, session.SystemInstruction,
		messages, cfg, session.CreatedAt, session.UpdatedAt,
	)
	return err
}

func (r *HistoryRepositoryPG) ListChatSessions(ctx context.Context, userID string, limit int) ([]domain.ChatSession, error) {
	rows, err := r.db.Query(ctx, sqlinline.QListChatSessions, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.ChatSession, 0, limit)
	for rows.Next() {
		session, err := scanChatSession(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, session)
	}
	return items, rows.Err()
}

func (r *HistoryRepositoryPG) GetChatSession(ctx context.Context, userID, id string) (*domain.ChatSession, error) {
	session, err := scanChatSession(r.db.QueryRow(ctx, sqlinline.QSelectChatSession, id, userID))
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

func (r *HistoryRepositoryPG) DeleteChatSession(ctx context.Context, userID, id string) error {
	return r.deleteByID(ctx, sqlinline.QDeleteChatSession, userID, id)
}

func (r *HistoryRepositoryPG) deleteByID(ctx context.Context, query, userID, id string) error {
	tag, err := r.db.Exec(ctx, query, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanImage(row pgx.Row) (domain.GeneratedImage, error) {
	var (
		item domain.GeneratedImage
		urls []byte
	)
	if err := row.Scan(&item.ID, &item.Prompt, &urls, &item.AspectRatio, &item.Style, &item.NegativePrompt, &item.Seed, &item.CreatedAt); err != nil {
		return domain.GeneratedImage{}, err
	}
	if err := decodeJSON(urls, &item.ImageURLs); err != nil {
		return domain.GeneratedImage{}, fmt.Errorf("decode image urls: %w", err)
	}
	return item, nil
}

func scanChatSession(row pgx.Row) (domain.ChatSession, error) {
	var (
		session  domain.ChatSession
		messages []byte
		cfg      []byte
	)
	if err := row.Scan(&session.ID, &session.Title, &session.PersonaName, &session.SystemInstruction,
		&messages, &cfg, &session.CreatedAt, &session.UpdatedAt); err != nil {
		return domain.ChatSession{}, err
	}
	if err := decodeJSON(messages, &session.Messages); err != nil {
		return domain.ChatSession{}, fmt.Errorf("decode messages: %w", err)
	}
	if len(cfg) > 0 && string(cfg) != "null" {
		session.Config = &domain.ChatConfig{}
		if err := json.Unmarshal(cfg, session.Config); err != nil {
			return domain.ChatSession{}, fmt.Errorf("decode chat config: %w", err)
		}
	}
	session.CreatedAt = session.CreatedAt.UTC()
	session.UpdatedAt = session.UpdatedAt.UTC()
	return session, nil
}

func decodeJSON[T any](raw []byte, dest *[]T) error {
	if len(raw) == 0 {
		*dest = []T{}
		return nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return err
	}
	if *dest == nil {
		*dest = []T{}
	}
	return nil
}

func nonNil[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}

var _ domain.HistoryRepository = (*HistoryRepositoryPG)(nil)
