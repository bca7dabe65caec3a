package handlers

import (
	"net/http"

	"studio/internal/domain"
)

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"persistence": a.Config != nil && a.Config.PersistenceEnabled(),
	})
}

type dashboardResponse struct {
	Recent     domain.RecentActivity `json:"recent"`
	ActiveJobs map[domain.Kind]int   `json:"activeJobs"`
}

// Dashboard returns the recent lists and the number of unfinished jobs per kind.
func (a *App) Dashboard(w http.ResponseWriter, r *http.Request) {
	owner := a.currentUserID(r)
	active := map[domain.Kind]int{}
	for _, kind := range []domain.Kind{domain.KindImage, domain.KindVideo, domain.KindMusic} {
		active[kind] = 0
		list, err := a.Jobs.List(kind)
		if err != nil {
			continue
		}
		for _, job := range list {
			if job.Owner == owner && !job.Status.Terminal() {
				active[kind]++
			}
		}
	}
	if err := a.Archiver.EnsureLoaded(r.Context(), owner); err != nil {
		a.Logger.Warn().Err(err).Str("owner", owner).Msg("failed to load recent history")
	}
	a.json(w, http.StatusOK, dashboardResponse{Recent: a.Archiver.Recent(owner), ActiveJobs: active})
}
