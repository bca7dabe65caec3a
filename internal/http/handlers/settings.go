package handlers

import (
	"net/http"

	"studio/internal/domain"
)

func (a *App) GetAPIKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := a.Settings.APIKeys(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, keys)
}

func (a *App) PutAPIKeys(w http.ResponseWriter, r *http.Request) {
	var keys domain.APIKeys
	if !a.decode(w, r, &keys) {
		return
	}
	if err := a.Settings.SetAPIKeys(r.Context(), keys); err != nil {
		a.fail(w, r, err)
		return
	}
	saved, err := a.Settings.APIKeys(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, saved)
}

type themeBody struct {
	Theme domain.Theme `json:"theme"`
}

func (a *App) GetTheme(w http.ResponseWriter, r *http.Request) {
	theme, err := a.Settings.Theme(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, themeBody{Theme: theme})
}

func (a *App) PutTheme(w http.ResponseWriter, r *http.Request) {
	var body themeBody
	if !a.decode(w, r, &body) {
		return
	}
	if err := a.Settings.SetTheme(r.Context(), body.Theme); err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, body)
}

type languageBody struct {
	Language domain.Language `json:"language"`
}

func (a *App) GetLanguage(w http.ResponseWriter, r *http.Request) {
	lang, err := a.Settings.Language(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, languageBody{Language: lang})
}

func (a *App) PutLanguage(w http.ResponseWriter, r *http.Request) {
	var body languageBody
	if !a.decode(w, r, &body) {
		return
	}
	if err := a.Settings.SetLanguage(r.Context(), body.Language); err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, body)
}
