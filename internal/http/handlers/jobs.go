package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"studio/internal/domain"
	"studio/internal/domain/jsoncfg"
	"studio/internal/jobs"
)

// seedInput accepts a seed as a JSON number or string, as typed by the user.
type seedInput string

func (s *seedInput) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var raw string
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
		*s = seedInput(raw)
		return nil
	}
	*s = seedInput(b)
	return nil
}

type imageJobRequest struct {
	Prompt         string    `json:"prompt"`
	NegativePrompt string    `json:"negativePrompt"`
	Style          string    `json:"style"`
	AspectRatio    string    `json:"aspectRatio"`
	NumberOfImages int       `json:"numberOfImages"`
	Seed           seedInput `json:"seed"`
}

type videoJobRequest struct {
	Prompt         string              `json:"prompt"`
	Model          string              `json:"model"`
	NumberOfVideos int                 `json:"numberOfVideos"`
	Seed           seedInput           `json:"seed"`
	InputImage     *domain.InlineImage `json:"inputImage"`
}

// CreateJob starts a generation job. Remote failures still answer 201 with
// the failed job; only validation and credential errors are HTTP errors.
func (a *App) CreateJob(w http.ResponseWriter, r *http.Request) {
	kind, err := domain.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		a.fail(w, r, err)
		return
	}

	var params domain.Params
	switch kind {
	case domain.KindImage:
		var req imageJobRequest
		if !a.decode(w, r, &req) {
			return
		}
		seed, err := jsoncfg.ParseSeed(string(req.Seed))
		if err != nil {
			a.fail(w, r, err)
			return
		}
		params.Image = &domain.ImageParams{
			Prompt:         req.Prompt,
			NegativePrompt: req.NegativePrompt,
			Style:          req.Style,
			AspectRatio:    req.AspectRatio,
			NumberOfImages: req.NumberOfImages,
			Seed:           seed,
		}
	case domain.KindVideo:
		var req videoJobRequest
		if !a.decode(w, r, &req) {
			return
		}
		seed, err := jsoncfg.ParseSeed(string(req.Seed))
		if err != nil {
			a.fail(w, r, err)
			return
		}
		params.Video = &domain.VideoParams{
			Prompt:         req.Prompt,
			Model:          req.Model,
			NumberOfVideos: req.NumberOfVideos,
			Seed:           seed,
			InputImage:     req.InputImage,
		}
	case domain.KindMusic:
		var req domain.MusicParams
		if !a.decode(w, r, &req) {
			return
		}
		params.Music = &req
	}

	job, err := a.Jobs.Generate(r.Context(), a.currentUserID(r), params)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, job)
}

func (a *App) ListJobs(w http.ResponseWriter, r *http.Request) {
	kind, err := domain.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	list, err := a.Jobs.List(kind)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	owner := a.currentUserID(r)
	mine := make([]domain.Job, 0, len(list))
	for _, job := range list {
		if job.Owner == owner {
			mine = append(mine, job)
		}
	}
	a.json(w, http.StatusOK, items(mine))
}

func (a *App) DeleteJob(w http.ResponseWriter, r *http.Request) {
	kind, err := domain.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.Jobs.Delete(kind, a.currentUserID(r), chi.URLParam(r, "id")); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClearJobs drops finished jobs. Images keep failed jobs unless
// include_failed=true; videos and music drop them unless include_failed=false.
func (a *App) ClearJobs(w http.ResponseWriter, r *http.Request) {
	kind, err := domain.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	includeFailed := kind != domain.KindImage
	if raw := r.URL.Query().Get("include_failed"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", "include_failed must be a boolean")
			return
		}
		includeFailed = v
	}
	policy := jobs.ClearSucceeded
	if includeFailed {
		policy = jobs.ClearTerminal
	}
	removed, err := a.Jobs.ClearCompleted(kind, a.currentUserID(r), policy)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]int{"removed": removed})
}
