package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type searchRequest struct {
	Prompt string `json:"prompt"`
}

type renameRequest struct {
	Title string `json:"title"`
}

func (a *App) RunSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !a.decode(w, r, &req) {
		return
	}
	result, err := a.Search.Search(r.Context(), a.currentUserID(r), req.Prompt)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, result)
}

func (a *App) RenameSearch(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if !a.decode(w, r, &req) {
		return
	}
	if err := a.Search.Rename(r.Context(), a.currentUserID(r), chi.URLParam(r, "id"), req.Title); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
