package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"studio/internal/adapter/repo"
	"studio/internal/agent"
	"studio/internal/archive"
	"studio/internal/domain"
	"studio/internal/export"
	"studio/internal/http/handlers"
	httpapi "studio/internal/http/httpapi"
	"studio/internal/i18n"
	"studio/internal/infra"
	"studio/internal/infra/geoip"
	"studio/internal/jobs"
	"studio/internal/middleware"
	"studio/internal/poller"
	"studio/internal/providers/genai"
	imagegen "studio/internal/providers/image"
	"studio/internal/providers/music"
	"studio/internal/providers/video"
	"studio/internal/search"
	"studio/internal/settings"
	"studio/internal/storage"
	"studio/internal/webhook"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)
	ctx := context.Background()

	history, closeDB := openHistory(ctx, cfg, logger)
	defer closeDB()

	prefs := settings.NewService(openSettingsBackend(ctx, cfg, logger))
	tr := i18n.NewTranslator()
	text := i18n.NewLocalizer(tr, prefs)

	arch := archive.New(archive.Options{Repository: history, Logger: &logger})
	if err := arch.LoadRecent(ctx, cfg.WorkspaceUserID); err != nil {
		logger.Warn().Err(err).Msg("failed to load recent history")
	}

	client := genai.NewClient(genai.Options{BaseURL: cfg.GeminiBaseURL, Logger: &logger})

	imageStore := jobs.NewStore(domain.KindImage)
	videoStore := jobs.NewStore(domain.KindVideo)
	musicStore := jobs.NewStore(domain.KindMusic)
	veo := video.NewVeoGenerator(client)
	suno := music.NewSimulator(nil)

	videoPoller := poller.New(poller.Options{
		Store:              videoStore,
		Remote:             veo,
		Provider:           veo.Provider(),
		Credentials:        prefs,
		Archiver:           arch,
		Text:               text,
		Interval:           cfg.VideoPollInterval,
		EmptyResultMessage: "Generation finished, but no video URL was found.",
		Logger:             &logger,
	})
	musicPoller := poller.New(poller.Options{
		Store:              musicStore,
		Remote:             suno,
		Provider:           suno.Provider(),
		Credentials:        prefs,
		Archiver:           arch,
		Text:               text,
		Interval:           cfg.MusicPollInterval,
		EmptyResultMessage: "Generation finished, but no audio was found.",
		Logger:             &logger,
	})
	videoPoller.Start()
	musicPoller.Start()

	lanes := map[domain.Kind]jobs.Lane{
		domain.KindImage: {Store: imageStore, Remote: imagegen.NewGeminiGenerator(client)},
		domain.KindVideo: {Store: videoStore, Remote: veo, Trigger: videoPoller},
		domain.KindMusic: {Store: musicStore, Remote: suno, Trigger: musicPoller},
	}

	objects, target := openExportStore(ctx, cfg, logger)

	app := &handlers.App{
		Config:   cfg,
		Logger:   logger,
		Jobs:     jobs.NewService(lanes, prefs, arch, text, nil, logger),
		Archiver: arch,
		History:  history,
		Settings: prefs,
		Search: search.NewService(search.Options{
			Credentials: prefs, Model: client, Archiver: arch, Repository: history,
			IDs: jobs.UUIDGenerator{}, Text: text, Logger: logger,
		}),
		Agent: agent.NewService(agent.Options{
			Credentials: prefs, Model: client, Recorder: arch, Repository: history,
			IDs: jobs.UUIDGenerator{}, Text: text, Logger: logger,
		}),
		Modules: webhook.NewModules(prefs, prefs, webhook.NewRelay(nil), jobs.UUIDGenerator{}, nil, logger),
		Exporter: export.New(export.Options{
			Images: history, Store: objects, Target: target, Logger: logger,
		}),
	}

	router := httpapi.NewRouter(app, httpapi.Options{
		Translator: tr,
		Country:    countryLookup(cfg, logger),
	})
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	videoPoller.Stop()
	musicPoller.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	arch.Wait()
	logger.Info().Msg("server stopped")
}

// openHistory connects Postgres when DATABASE_URL is set and falls back to
// process memory otherwise.
func openHistory(ctx context.Context, cfg *infra.Config, logger zerolog.Logger) (domain.HistoryRepository, func()) {
	if !cfg.PersistenceEnabled() {
		logger.Warn().Msg("DATABASE_URL not set, history is kept in memory")
		return repo.NewMemoryHistory(), func() {}
	}
	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	migrateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := repo.Migrate(migrateCtx, pool); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}
	return repo.NewHistoryRepository(infra.NewSQLRunner(pool, logger)), pool.Close
}

func openSettingsBackend(ctx context.Context, cfg *infra.Config, logger zerolog.Logger) domain.SettingsStore {
	if cfg.SettingsBackend == infra.SettingsBackendRedis {
		client, err := infra.NewRedisClient(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect redis")
		}
		return settings.NewRedisBackend(client)
	}
	files, err := storage.NewFileStore(cfg.SettingsDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open settings directory")
	}
	return settings.NewFileBackend(files)
}

func openExportStore(ctx context.Context, cfg *infra.Config, logger zerolog.Logger) (storage.ObjectStore, string) {
	if cfg.ExportS3Bucket != "" {
		client, err := storage.NewS3Client(ctx, storage.S3Options{
			Bucket:    cfg.ExportS3Bucket,
			Region:    cfg.ExportS3Region,
			Endpoint:  cfg.ExportS3Endpoint,
			PathStyle: cfg.ExportS3PathStyle,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to configure s3 client")
		}
		store, err := storage.NewS3Store(client, cfg.ExportS3Bucket)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to configure s3 export store")
		}
		return store, "s3"
	}
	files, err := storage.NewFileStore(cfg.ExportDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open export directory")
	}
	logger.Info().Str("dir", files.BasePath()).Msg("exports written to local disk")
	return files, "file"
}

func countryLookup(cfg *infra.Config, logger zerolog.Logger) middleware.CountryLookup {
	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
		return nil
	}
	if resolver == nil {
		return nil
	}
	return resolver.CountryCode
}
