package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type createModuleRequest struct {
	Name       string `json:"name"`
	WebhookURL string `json:"webhookUrl"`
}

type renameModuleRequest struct {
	Name string `json:"name"`
}

func (a *App) ListModules(w http.ResponseWriter, r *http.Request) {
	list, err := a.Modules.List(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, items(list))
}

func (a *App) CreateModule(w http.ResponseWriter, r *http.Request) {
	var req createModuleRequest
	if !a.decode(w, r, &req) {
		return
	}
	module, err := a.Modules.Create(r.Context(), req.Name, req.WebhookURL)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, module)
}

func (a *App) RenameModule(w http.ResponseWriter, r *http.Request) {
	var req renameModuleRequest
	if !a.decode(w, r, &req) {
		return
	}
	module, err := a.Modules.Rename(r.Context(), chi.URLParam(r, "id"), req.Name)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, module)
}

func (a *App) DeleteModule(w http.ResponseWriter, r *http.Request) {
	if err := a.Modules.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SendModuleMessage relays text to the module's webhook. Relay failures are
// recorded in the chat history, so this answers 200 unless the module is
// missing or the text is empty.
func (a *App) SendModuleMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if !a.decode(w, r, &req) {
		return
	}
	module, err := a.Modules.SendMessage(r.Context(), chi.URLParam(r, "id"), req.Text)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, module)
}

func (a *App) ClearModuleMessages(w http.ResponseWriter, r *http.Request) {
	module, err := a.Modules.ClearHistory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, module)
}
