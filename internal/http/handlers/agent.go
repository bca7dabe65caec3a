package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type createSessionRequest struct {
	Persona string `json:"persona"`
}

type messageRequest struct {
	Text string `json:"text"`
}

func (a *App) ListPersonas(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, items(a.Agent.ListPersonas(r.Context())))
}

func (a *App) ListSessions(w http.ResponseWriter, r *http.Request) {
	list, err := a.Agent.List(r.Context(), a.currentUserID(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, items(list))
}

func (a *App) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if !a.decode(w, r, &req) {
		return
	}
	session, err := a.Agent.CreateSession(r.Context(), a.currentUserID(r), req.Persona)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, session)
}

func (a *App) SendSessionMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if !a.decode(w, r, &req) {
		return
	}
	session, err := a.Agent.SendMessage(r.Context(), a.currentUserID(r), chi.URLParam(r, "id"), req.Text)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, session)
}

func (a *App) RenameSession(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if !a.decode(w, r, &req) {
		return
	}
	session, err := a.Agent.Rename(r.Context(), a.currentUserID(r), chi.URLParam(r, "id"), req.Title)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, session)
}

func (a *App) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := a.Agent.Delete(r.Context(), a.currentUserID(r), chi.URLParam(r, "id")); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
