// Command memorymapd serves the memory map API: speech transcription,
// place resolution, memories, audio recordings, admin voice records and
// photos.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/lifemap/memorymap/api"
	"github.com/lifemap/memorymap/bootstrap"
	"github.com/lifemap/memorymap/database"
	"github.com/lifemap/memorymap/geocode"
	"github.com/lifemap/memorymap/logger"
	"github.com/lifemap/memorymap/memory"
	"github.com/lifemap/memorymap/observability"
	"github.com/lifemap/memorymap/redis"
	"github.com/lifemap/memorymap/server"
	"github.com/lifemap/memorymap/storage"
	"github.com/lifemap/memorymap/transcription"
	"github.com/lifemap/memorymap/version"
)

func main() {
	configPath := flag.String("config", "", "path to config.yml")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Short())
		return
	}
	if err := run(context.Background(), *configPath); err != nil {
		fmt.Fprintln(os.Stderr, "memorymapd:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if cfg.Version == "" {
		cfg.Version = version.Get().Version
	}
	app, err := bootstrap.NewApp(cfg)
	if err != nil {
		return err
	}
	log := app.Logger

	obs, err := observability.Setup(ctx, cfg.Observability, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := obs.Shutdown(context.Background()); err != nil {
			log.WithError(err).Warn("Telemetry shutdown failed")
		}
	}()
	metrics := obs.Metrics()

	var (
		dbComp    *database.Component
		storeComp *storage.Component
		redisComp *redis.Component
	)
	if cfg.Database.Enabled {
		dbComp = database.NewComponent(cfg.Database, log)
		if err := app.RegisterComponent(dbComp); err != nil {
			return err
		}
	}
	if cfg.Storage.Enabled {
		storeComp = storage.NewComponent(cfg.Storage.Config, cfg.Storage.ProviderConfig(), log)
		if err := app.RegisterComponent(storeComp); err != nil {
			return err
		}
	}
	if cfg.Redis.Enabled {
		redisComp = redis.NewComponent(cfg.Redis, log)
		if err := app.RegisterComponent(redisComp); err != nil {
			return err
		}
	}

	var transcriber *transcription.Service
	if cfg.Transcription.Enabled {
		engine, err := newEngine(cfg.Transcription, log)
		if err != nil {
			return fmt.Errorf("transcription engine: %w", err)
		}
		transcriber = transcription.NewService(cfg.Transcription.Config,
			transcription.NewModelCache(engine, log, metrics),
			transcription.WithLogger(log),
			transcription.WithMetrics(metrics),
		)
		if err := app.RegisterComponent(transcriber.Component()); err != nil {
			return err
		}
	} else {
		log.Info("Transcription disabled")
	}

	app.OnConfigure(func(_ context.Context, app *bootstrap.App[*Config]) error {
		geocoder, err := newGeocoder(cfg, redisComp, metrics, log)
		if err != nil {
			return err
		}

		h := &api.Handlers{MaxFileSize: cfg.Storage.MaxFileSize}
		if transcriber != nil {
			h.Transcriber = transcriber
		}

		var db *database.DB
		if dbComp != nil {
			db = dbComp.DB()
		}
		var store storage.Storage
		if storeComp != nil {
			store = storeComp.Storage()
		}
		if db != nil {
			h.Memories = memory.NewMemoryService(db, geocoder, log)
		}
		if db != nil && store != nil {
			h.Audio = memory.NewAudioService(db, store, cfg.Storage.MaxFileSize, log)
			var vt memory.Transcriber
			if transcriber != nil {
				vt = transcriber
			}
			voice := memory.NewVoiceService(db, store, vt, geocoder, cfg.Analysis, log,
				memory.WithAnalysisMetrics(metrics), memory.WithMaxFileSize(cfg.Storage.MaxFileSize))
			app.OnStop(func(context.Context) error {
				voice.Close()
				return nil
			})
			h.Voice = voice
		}
		if store != nil {
			h.Photos = memory.NewPhotoService(store, cfg.Storage.MaxFileSize, log)
		}

		srv := server.New(cfg.Server, log)
		srv.ApplyMiddleware(metrics)
		srv.RegisterSystemEndpoints(server.SystemEndpoints{
			ServiceName: app.Name,
			Version:     app.Version,
			Checker:     app.Components.HealthAll,
			Metrics:     obs.PrometheusHandler(),
		})
		h.Register(srv.GinEngine())
		if store != nil && cfg.Storage.Provider == storage.ProviderLocal {
			prefix := strings.TrimSuffix(cfg.Storage.Local.PublicURL, "/") + "/"
			srv.Handle(prefix, http.StripPrefix(prefix, http.FileServer(http.Dir(cfg.Storage.Local.BasePath))))
		}
		return app.RegisterComponent(server.NewComponent(srv))
	})

	return app.Run(ctx)
}

// newGeocoder builds the resolver: overrides, the Redis cache when
// available, then Nominatim when geocoding is enabled.
func newGeocoder(cfg *Config, redisComp *redis.Component, metrics *observability.Metrics, log *logger.Logger) (*geocode.Resolver, error) {
	opts := []geocode.Option{geocode.WithLogger(log), geocode.WithMetrics(metrics)}
	if redisComp != nil && redisComp.Client() != nil {
		opts = append(opts, geocode.WithCache(redis.NewTypedStore[geocode.Place](redisComp.Client(), "geocode", cfg.Geocode.CacheTTL)))
	}
	if !cfg.Geocode.Enabled {
		log.Info("Remote geocoding disabled; only the override table resolves")
		return geocode.NewResolver(nil, opts...), nil
	}
	nominatim, err := geocode.NewNominatim(cfg.Geocode)
	if err != nil {
		return nil, fmt.Errorf("geocoder: %w", err)
	}
	return geocode.NewResolver(nominatim, opts...), nil
}

