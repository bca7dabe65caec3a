package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"studio/internal/http/handlers"
	"studio/internal/i18n"
	"studio/internal/middleware"
	"studio/internal/telemetry"
)

// Options carries the cross-cutting pieces of the router.
type Options struct {
	Translator *i18n.Translator
	Country    middleware.CountryLookup
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	cfg := app.Config
	tr := opts.Translator
	if tr == nil {
		tr = i18n.NewTranslator()
	}

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(app.Logger),
		middleware.CORS(cfg.CORSAllowedOrigins),
	)

	r.Get("/v1/healthz", app.Health)
	r.Method(http.MethodGet, "/metrics", telemetry.Handler())
	r.Get("/v1/openapi.json", app.OpenAPIJSON)
	r.Get("/v1/docs", app.OpenAPIDocs)

	r.Group(func(r chi.Router) {
		r.Use(
			middleware.RateLimit(cfg.RateLimitPerMin, time.Minute),
			middleware.I18N(tr, cfg.DefaultLocale, opts.Country),
			middleware.AuthJWT(cfg.JWTSecret, cfg.WorkspaceUserID),
		)

		r.Get("/v1/dashboard", app.Dashboard)

		r.Route("/v1/settings", func(r chi.Router) {
			r.Get("/api-keys", app.GetAPIKeys)
			r.Put("/api-keys", app.PutAPIKeys)
			r.Get("/theme", app.GetTheme)
			r.Put("/theme", app.PutTheme)
			r.Get("/language", app.GetLanguage)
			r.Put("/language", app.PutLanguage)
		})

		r.Route("/v1/jobs/{kind}", func(r chi.Router) {
			r.Get("/", app.ListJobs)
			r.Post("/", app.CreateJob)
			r.Post("/clear", app.ClearJobs)
			r.Delete("/{id}", app.DeleteJob)
		})

		r.Route("/v1/history", func(r chi.Router) {
			r.Get("/images/{id}/zip", app.ImageZip)
			r.Post("/images/{id}/export", app.ImageExport)
			r.Get("/{kind}", app.ListHistory)
			r.Delete("/{kind}/{id}", app.DeleteHistory)
		})

		r.Post("/v1/search", app.RunSearch)
		r.Patch("/v1/search/{id}", app.RenameSearch)

		r.Route("/v1/agent", func(r chi.Router) {
			r.Get("/personas", app.ListPersonas)
			r.Get("/sessions", app.ListSessions)
			r.Post("/sessions", app.CreateSession)
			r.Patch("/sessions/{id}", app.RenameSession)
			r.Delete("/sessions/{id}", app.DeleteSession)
			r.Post("/sessions/{id}/messages", app.SendSessionMessage)
		})

		r.Route("/v1/modules", func(r chi.Router) {
			r.Get("/", app.ListModules)
			r.Post("/", app.CreateModule)
			r.Patch("/{id}", app.RenameModule)
			r.Delete("/{id}", app.DeleteModule)
			r.Post("/{id}/messages", app.SendModuleMessage)
			r.Delete("/{id}/messages", app.ClearModuleMessages)
		})
	})

	return r
}
