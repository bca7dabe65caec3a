package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"studio/internal/agent"
	"studio/internal/archive"
	"studio/internal/domain"
	"studio/internal/export"
	"studio/internal/infra"
	"studio/internal/jobs"
	"studio/internal/middleware"
	"studio/internal/search"
	"studio/internal/settings"
	"studio/internal/webhook"
)

// maxBodyBytes bounds request bodies; video input images are sent inline.
const maxBodyBytes = 20 << 20

type App struct {
	Config   *infra.Config
	Logger   zerolog.Logger
	Jobs     *jobs.Service
	Archiver *archive.Archiver
	History  domain.HistoryRepository
	Settings *settings.Service
	Search   *search.Service
	Agent    *agent.Service
	Modules  *webhook.Modules
	Exporter *export.Exporter
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, errorResponse{Error: errCode, Message: message})
}

// fail maps the error taxonomy onto HTTP responses.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrMissingCredential):
		a.error(w, http.StatusPreconditionFailed, "missing_credential", domain.UserMessage(err))
	case errors.Is(err, domain.ErrInvalidInput):
		a.error(w, http.StatusBadRequest, "bad_request", domain.UserMessage(err))
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", "resource not found")
	case errors.Is(err, domain.ErrUnauthorized):
		a.error(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
	default:
		a.Logger.Error().Err(err).
			Str("path", r.URL.Path).
			Str("request_id", middleware.RequestIDFromContext(r.Context())).
			Msg("request failed")
		a.error(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

// decode reads a JSON body into v. Unknown fields are rejected.
func (a *App) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return false
	}
	return true
}

func (a *App) currentUserID(r *http.Request) string {
	if id := middleware.UserIDFromContext(r.Context()); id != "" {
		return id
	}
	if a.Config != nil {
		return a.Config.WorkspaceUserID
	}
	return ""
}

func queryLimit(r *http.Request, fallback, max int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	if n > max {
		return max
	}
	return n
}

type itemsResponse[T any] struct {
	Items []T `json:"items"`
}

func items[T any](list []T) itemsResponse[T] {
	if list == nil {
		list = []T{}
	}
	return itemsResponse[T]{Items: list}
}
