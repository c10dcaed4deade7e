// Command server wires the coordination engine together: stores, cache,
// enrichment, fan-out, and the HTTP surface. Business logic lives in the
// internal service packages.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"beacon/internal/cache"
	"beacon/internal/disaster"
	disasterhandler "beacon/internal/disaster/handler"
	disasterservice "beacon/internal/disaster/service"
	disasterpg "beacon/internal/disaster/store/postgres"
	"beacon/internal/enrich"
	"beacon/internal/enrich/gemini"
	"beacon/internal/events"
	"beacon/internal/events/ws"
	"beacon/internal/feeds"
	"beacon/internal/geocode"
	"beacon/internal/platform/config"
	"beacon/internal/platform/httpserver"
	"beacon/internal/platform/logger"
	"beacon/internal/platform/metrics"
	platformredis "beacon/internal/platform/redis"
	"beacon/internal/principal"
	"beacon/internal/report"
	reporthandler "beacon/internal/report/handler"
	reportservice "beacon/internal/report/service"
	reportpg "beacon/internal/report/store/postgres"
	"beacon/internal/resource"
	resourcehandler "beacon/internal/resource/handler"
	resourceservice "beacon/internal/resource/service"
	resourcepg "beacon/internal/resource/store/postgres"
	httptransport "beacon/internal/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	m := metrics.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Cache backend: redis when configured, in-process otherwise.
	var cacheStore cache.Store = cache.NewInMemoryStore()
	redisClient, err := platformredis.New(ctx, cfg.RedisURL)
	if err != nil {
		log.Error("redis unavailable, using in-memory cache", "error", err)
	} else if redisClient != nil {
		defer redisClient.Close()
		cacheStore = cache.NewRedisStore(redisClient.Client)
		log.Info("cache backed by redis")
	}
	cacheSvc := cache.NewService(cacheStore, log, cache.WithMetrics(m))

	// Geocoding provider chain: Google Maps first when a key is present,
	// Nominatim as the keyless fallback.
	var providers []geocode.Provider
	if cfg.GoogleMapsAPIKey != "" {
		providers = append(providers, geocode.NewGoogleProvider(cfg.GoogleMapsAPIKey, cfg.GeocodeTimeout))
	}
	providers = append(providers, geocode.NewNominatimProvider(cfg.NominatimBaseURL, cfg.GeocodeTimeout))
	geocoder := geocode.NewResolver(providers, cacheSvc, cfg.CacheTTL, log, m)

	generator := gemini.NewClient(cfg.GeminiAPIKey, cfg.GeminiBaseURL)
	enricher := enrich.NewService(generator, cacheSvc, cfg.CacheTTL, cfg.AITimeout, log)

	// Entity stores: postgres when configured, in-memory otherwise.
	var (
		disasterStore disaster.Store = disaster.NewInMemoryStore()
		reportStore   report.Store   = report.NewInMemoryStore()
		resourceStore resource.Store = resource.NewInMemoryStore()
	)
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			log.Error("failed to open postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Error("failed to reach postgres", "error", err)
			os.Exit(1)
		}
		disasterStore = disasterpg.NewStore(db)
		reportStore = reportpg.NewStore(db)
		resourceStore = resourcepg.NewStore(db)
		log.Info("entities backed by postgres")
	}

	hub := events.NewHub(log, m)

	disasterSvc := disasterservice.NewService(disasterStore, geocoder, enricher, hub, log, m)
	reportSvc := reportservice.NewService(reportStore, disasterSvc, enricher, hub, log, m)
	resourceSvc := resourceservice.NewService(resourceStore, disasterSvc, geocoder, hub, cfg.DefaultRadiusMeters, log, m)
	feedsSvc := feeds.NewService(disasterSvc, cacheSvc, cfg.CacheTTL, hub, log)

	router := httptransport.NewRouter(httptransport.Config{
		Logger:     log,
		CORSOrigin: cfg.CORSOrigin,
		Principal:  principal.NewResolver(cfg.JWTSigningKey, log),
		Features: []httptransport.FeatureHandler{
			disasterhandler.New(disasterSvc, log),
			reporthandler.New(reportSvc, log),
			resourcehandler.New(resourceSvc, log),
			feeds.NewHandler(feedsSvc, log),
			geocode.NewHandler(geocoder, log),
			enrich.NewHandler(enricher, log),
		},
		WS:     ws.NewHandler(hub, log, m),
		Health: healthHandler(redisClient),
	})

	srv := httpserver.New(cfg.Addr, router)

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("starting server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		if err := cacheSvc.Run(ctx, cfg.CleanupInterval); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}

func healthHandler(redisClient *platformredis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := map[string]string{"status": "ok"}
		code := http.StatusOK
		if redisClient != nil {
			if err := redisClient.Health(r.Context()); err != nil {
				status["status"] = "degraded"
				status["redis"] = err.Error()
				code = http.StatusServiceUnavailable
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(status)
	}
}
