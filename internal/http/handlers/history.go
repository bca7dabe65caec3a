package handlers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"studio/internal/archive"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// ListHistory returns the persisted entries of one collection, newest first.
func (a *App) ListHistory(w http.ResponseWriter, r *http.Request) {
	collection, err := archive.ParseCollection(chi.URLParam(r, "kind"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	owner := a.currentUserID(r)
	limit := queryLimit(r, defaultHistoryLimit, maxHistoryLimit)
	ctx := r.Context()

	switch collection {
	case archive.Images:
		list, err := a.History.ListImages(ctx, owner, limit)
		respondList(a, w, r, list, err)
	case archive.Videos:
		list, err := a.History.ListVideos(ctx, owner, limit)
		respondList(a, w, r, list, err)
	case archive.Music:
		list, err := a.History.ListMusic(ctx, owner, limit)
		respondList(a, w, r, list, err)
	case archive.Searches:
		list, err := a.Search.History(ctx, owner)
		respondList(a, w, r, list, err)
	case archive.Chats:
		list, err := a.Agent.List(ctx, owner)
		respondList(a, w, r, list, err)
	}
}

func respondList[T any](a *App, w http.ResponseWriter, r *http.Request, list []T, err error) {
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, items(list))
}

// DeleteHistory removes one persisted entry and drops it from the recent list.
func (a *App) DeleteHistory(w http.ResponseWriter, r *http.Request) {
	collection, err := archive.ParseCollection(chi.URLParam(r, "kind"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	owner := a.currentUserID(r)
	id := chi.URLParam(r, "id")
	ctx := r.Context()

	switch collection {
	case archive.Images:
		err = a.History.DeleteImage(ctx, owner, id)
	case archive.Videos:
		err = a.History.DeleteVideo(ctx, owner, id)
	case archive.Music:
		err = a.History.DeleteMusic(ctx, owner, id)
	case archive.Searches:
		err = a.Search.Delete(ctx, owner, id)
	case archive.Chats:
		err = a.Agent.Delete(ctx, owner, id)
	}
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.Archiver.Forget(owner, collection, id)
	w.WriteHeader(http.StatusNoContent)
}

// ImageZip streams an image entry with thumbnails as a zip download.
func (a *App) ImageZip(w http.ResponseWriter, r *http.Request) {
	bundle, err := a.Exporter.Build(r.Context(), a.currentUserID(r), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", bundle.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(bundle.Data)
}

// ImageExport publishes the zip of an image entry to export storage.
func (a *App) ImageExport(w http.ResponseWriter, r *http.Request) {
	location, err := a.Exporter.Publish(r.Context(), a.currentUserID(r), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, map[string]string{"location": location})
}
