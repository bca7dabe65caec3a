package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"studio/internal/domain"
	"studio/internal/sqlinline"
)

type execCall struct {
	query string
	args  []any
}

type stubExecutor struct {
	execs    []execCall
	tag      pgconn.CommandTag
	execErr  error
	rows     map[string][][]any
	queryErr error
}

func (s *stubExecutor) Exec(_ context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	s.execs = append(s.execs, execCall{query: query, args: args})
	return s.tag, s.execErr
}

func (s *stubExecutor) Query(_ context.Context, query string, args ...any) (pgx.Rows, error) {
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	return &fakeRows{items: s.rows[query]}, nil
}

func (s *stubExecutor) QueryRow(_ context.Context, query string, args ...any) pgx.Row {
	items := s.rows[query]
	if len(items) == 0 {
		return stubRow{err: pgx.ErrNoRows}
	}
	return stubRow{values: items[0]}
}

type stubRow struct {
	values []any
	err    error
}

func (r stubRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return assignAll(dest, r.values)
}

type fakeRows struct {
	items [][]any
	idx   int
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) Values() ([]any, error) {
	return nil, fmt.Errorf("values not supported in test rows")
}
func (r *fakeRows) RawValues() [][]byte { return nil }
func (r *fakeRows) Conn() *pgx.Conn     { return nil }

func (r *fakeRows) Next() bool {
	if r.idx >= len(r.items) {
		return false
	}
	r.idx++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	if r.idx == 0 || r.idx > len(r.items) {
		return pgx.ErrNoRows
	}
	return assignAll(dest, r.items[r.idx-1])
}

func assignAll(dest []any, values []any) error {
	if len(dest) != len(values) {
		return fmt.Errorf("scan args = %d, want %d", len(dest), len(values))
	}
	for i, v := range values {
		target := reflect.ValueOf(dest[i]).Elem()
		if v == nil {
			target.Set(reflect.Zero(target.Type()))
			continue
		}
		src := reflect.ValueOf(v)
		if !src.Type().AssignableTo(target.Type()) {
			return fmt.Errorf("dest[%d] is %s, value is %s", i, target.Type(), src.Type())
		}
		target.Set(src)
	}
	return nil
}

func TestSaveImageEncodesURLs(t *testing.T) {
	db := &stubExecutor{}
	r := NewHistoryRepository(db)
	seed := 7
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	err := r.SaveImage(context.Background(), "user-1", domain.GeneratedImage{
		ID: "img-1", Prompt: "a fox", ImageURLs: []string{"data:image/png;base64,AA"},
		AspectRatio: "16:9", Style: "Anime", Seed: &seed, CreatedAt: created,
	})
	if err != nil {
		t.Fatalf("SaveImage error: %v", err)
	}
	if len(db.execs) != 1 || db.execs[0].query != sqlinline.QInsertGeneratedImage {
		t.Fatalf("execs = %+v, want one image insert", db.execs)
	}
	args := db.execs[0].args
	if args[0] != "img-1" || args[1] != "user-1" {
		t.Fatalf("id args = %v, %v", args[0], args[1])
	}
	if got := string(args[3].([]byte)); got != `["data:image/png;base64,AA"]` {
		t.Fatalf("image_urls = %s", got)
	}
	if args[7].(*int) != &seed {
		t.Fatalf("seed arg not forwarded")
	}
}

func TestSaveImageNilURLsEncodesEmptyArray(t *testing.T) {
	db := &stubExecutor{}
	if err := NewHistoryRepository(db).SaveImage(context.Background(), "u", domain.GeneratedImage{ID: "x"}); err != nil {
		t.Fatalf("SaveImage error: %v", err)
	}
	if got := string(db.execs[0].args[3].([]byte)); got != "[]" {
		t.Fatalf("image_urls = %s, want []", got)
	}
}

func TestListImagesDecodesRows(t *testing.T) {
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	seed := 3
	db := &stubExecutor{rows: map[string][][]any{
		sqlinline.QListGeneratedImages: {
			{"img-2", "b", []byte(`["u2"]`), "1:1", "", "", (*int)(nil), created},
			{"img-1", "a", []byte(`["u1","u1b"]`), "4:3", "Photo", "blur", &seed, created.Add(-time.Minute)},
		},
	}}

	items, err := NewHistoryRepository(db).ListImages(context.Background(), "user-1", 10)
	if err != nil {
		t.Fatalf("ListImages error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len = %d, want 2", len(items))
	}
	if items[0].ID != "img-2" || items[0].Seed != nil {
		t.Fatalf("first = %+v", items[0])
	}
	if !reflect.DeepEqual(items[1].ImageURLs, []string{"u1", "u1b"}) || *items[1].Seed != 3 {
		t.Fatalf("second = %+v", items[1])
	}
}

func TestGetImageMissingIsNotFound(t *testing.T) {
	_, err := NewHistoryRepository(&stubExecutor{}).GetImage(context.Background(), "u", "nope")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestDeleteReportsMissingRow(t *testing.T) {
	db := &stubExecutor{tag: pgconn.NewCommandTag("DELETE 0")}
	err := NewHistoryRepository(db).DeleteVideo(context.Background(), "u", "v1")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if db.execs[0].args[0] != "v1" || db.execs[0].args[1] != "u" {
		t.Fatalf("delete args = %v, want id then user", db.execs[0].args)
	}

	db.tag = pgconn.NewCommandTag("DELETE 1")
	if err := NewHistoryRepository(db).DeleteVideo(context.Background(), "u", "v1"); err != nil {
		t.Fatalf("DeleteVideo error: %v", err)
	}
}

func TestSaveVideoWithoutInputImageSendsNull(t *testing.T) {
	db := &stubExecutor{}
	err := NewHistoryRepository(db).SaveVideo(context.Background(), "u", domain.GeneratedVideo{ID: "v", VideoURLs: []string{"uri"}})
	if err != nil {
		t.Fatalf("SaveVideo error: %v", err)
	}
	if input := db.execs[0].args[6].([]byte); input != nil {
		t.Fatalf("input_image = %s, want nil", input)
	}
}

func TestListVideosDecodesInputImage(t *testing.T) {
	db := &stubExecutor{rows: map[string][][]any{
		sqlinline.QListGeneratedVideos: {
			{"v1", "waves", []byte(`["https://v/1"]`), "veo-2.0-generate-001", (*int)(nil), []byte(`{"mimeType":"image/png","data":"AA=="}`), time.Now()},
		},
	}}
	items, err := NewHistoryRepository(db).ListVideos(context.Background(), "u", 5)
	if err != nil {
		t.Fatalf("ListVideos error: %v", err)
	}
	if items[0].InputImage == nil || items[0].InputImage.MimeType != "image/png" {
		t.Fatalf("input image = %+v", items[0].InputImage)
	}
}

func TestSearchRenameAndSources(t *testing.T) {
	db := &stubExecutor{tag: pgconn.NewCommandTag("UPDATE 1")}
	r := NewHistoryRepository(db)
	if err := r.RenameSearch(context.Background(), "u", "s1", "new label"); err != nil {
		t.Fatalf("RenameSearch error: %v", err)
	}
	if got := db.execs[0].args[2]; got != "new label" {
		t.Fatalf("prompt arg = %v", got)
	}

	err := r.SaveSearch(context.Background(), "u", domain.SearchResult{
		ID: "s2", Prompt: "q", Result: "a",
		Sources: []domain.GroundingChunk{{Web: domain.WebSource{URI: "https://x", Title: "X"}}},
	})
	if err != nil {
		t.Fatalf("SaveSearch error: %v", err)
	}
	var sources []domain.GroundingChunk
	if err := json.Unmarshal(db.execs[1].args[4].([]byte), &sources); err != nil {
		t.Fatalf("sources arg: %v", err)
	}
	if sources[0].Web.URI != "https://x" {
		t.Fatalf("sources = %+v", sources)
	}
}

func TestChatSessionRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	db := &stubExecutor{rows: map[string][][]any{
		sqlinline.QSelectChatSession: {
			{"c1", "Code Wizard Chat", "Code Wizard", "be precise",
				[]byte(`[{"id":"m1","sender":"model","text":"hi"}]`), []byte(`{"temperature":0.5,"topP":0.9,"topK":20}`),
				now, now.Add(time.Minute)},
		},
	}}
	r := NewHistoryRepository(db)

	session, err := r.GetChatSession(context.Background(), "u", "c1")
	if err != nil {
		t.Fatalf("GetChatSession error: %v", err)
	}
	if len(session.Messages) != 1 || session.Messages[0].Sender != domain.SenderModel {
		t.Fatalf("messages = %+v", session.Messages)
	}
	if session.Config == nil || session.Config.TopK != 20 {
		t.Fatalf("config = %+v", session.Config)
	}

	if err := r.UpsertChatSession(context.Background(), "u", *session); err != nil {
		t.Fatalf("UpsertChatSession error: %v", err)
	}
	call := db.execs[0]
	if call.query != sqlinline.QUpsertChatSession || len(call.args) != 9 {
		t.Fatalf("upsert call = %+v", call)
	}
}

func TestQueryErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewHistoryRepository(&stubExecutor{queryErr: boom}).ListMusic(context.Background(), "u", 10)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
}
