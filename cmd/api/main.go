// Package main is the entrypoint for the tripmap API server.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/tripmap/tripmap/internal/auth"
	"github.com/tripmap/tripmap/internal/cache"
	"github.com/tripmap/tripmap/internal/config"
	"github.com/tripmap/tripmap/internal/geo"
	"github.com/tripmap/tripmap/internal/handler"
	"github.com/tripmap/tripmap/internal/metrics"
	"github.com/tripmap/tripmap/internal/middleware"
	"github.com/tripmap/tripmap/internal/repository"
	"github.com/tripmap/tripmap/internal/server"
	"github.com/tripmap/tripmap/internal/service"
	"github.com/tripmap/tripmap/internal/sharing"
	"github.com/tripmap/tripmap/internal/sqlstore"
	"github.com/tripmap/tripmap/internal/store"
)

func main() {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg)

	// Open the durable key-value store
	st, err := store.Open(cfg.StorePath, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err, "path", cfg.StorePath)
		os.Exit(1)
	}
	logger.Info("store opened", "path", cfg.StorePath)

	repo := repository.New(st)

	// Optional Redis cache
	var cacheClient *cache.Cache
	if cfg.CacheEnabled() {
		cacheClient, err = cache.New(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error("failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		defer cacheClient.Close()
		logger.Info("connected to Redis")
	} else {
		logger.Info("redis cache disabled")
	}

	// Optional relational backend
	var sqlStore *sqlstore.Store
	if cfg.SQLiteEnabled() {
		sqlStore, err = sqlstore.Open(cfg.SQLitePath)
		if err != nil {
			logger.Error("failed to open sqlite backend", "error", err, "path", cfg.SQLitePath)
			os.Exit(1)
		}
		defer sqlStore.Close()
		logger.Info("sqlite backend opened", "path", cfg.SQLitePath)
	}

	// Domain services
	sess := auth.NewSession(st, repo, logger)
	issuer := auth.NewMagicLinkIssuer(repo, cfg.BaseURL)
	resolver := sharing.NewResolver(repo)
	recorder := metrics.NewInMemory()
	mapService := service.NewMapService(repo, resolver, cacheClient, st, cfg.BaseURL, recorder)
	geoClient := geo.NewClient(cfg.GeoJSONURL, logger)

	// Handlers
	h := handler.New()
	healthHandler := handler.NewHealthHandler(sqlChecker(sqlStore), cacheChecker(cacheClient))
	authHandler := handler.NewAuthHandler(sess, issuer, mapService, cacheClient, cfg.MagicLinkRateLimit, recorder, logger)
	mapHandler := handler.NewMapHandler(mapService, logger)
	sharedHandler := handler.NewSharedHandler(mapService, logger)
	boundariesHandler := handler.NewBoundariesHandler(geoClient)
	metricsHandler := handler.NewMetricsHandler(recorder)

	r := setupRouter(routerDeps{
		base:       h,
		health:     healthHandler,
		auth:       authHandler,
		maps:       mapHandler,
		shared:     sharedHandler,
		boundaries: boundariesHandler,
		metrics:    metricsHandler,
		session:    sess,
		sqlStore:   sqlStore,
		cfg:        cfg,
		logger:     logger,
	})

	srv := server.New(
		r,
		cfg.AppPort,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)

	logger.Info("starting server",
		"port", cfg.AppPort,
		"base_url", cfg.BaseURL,
		"env", cfg.AppEnv,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// sqlChecker avoids storing a typed nil in the HealthChecker interface.
func sqlChecker(s *sqlstore.Store) handler.HealthChecker {
	if s == nil {
		return nil
	}
	return s
}

func cacheChecker(c *cache.Cache) handler.HealthChecker {
	if c == nil {
		return nil
	}
	return c
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	level := parseLogLevel(cfg.LogLevel)

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type routerDeps struct {
	base       *handler.Handler
	health     *handler.HealthHandler
	auth       *handler.AuthHandler
	maps       *handler.MapHandler
	shared     *handler.SharedHandler
	boundaries *handler.BoundariesHandler
	metrics    *handler.MetricsHandler
	session    *auth.Session
	sqlStore   *sqlstore.Store
	cfg        *config.Config
	logger     *slog.Logger
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(deps routerDeps) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Session(deps.session))
	r.Use(middleware.Logger(deps.logger))
	r.Use(middleware.Recoverer(deps.logger))
	r.Use(middleware.Security(middleware.SecurityConfig{
		IsDevelopment: deps.cfg.IsDevelopment(),
	}))
	r.Use(middleware.MaxBodySize(deps.cfg.MaxRequestBodySize))

	if origins := deps.cfg.GetCORSAllowedOrigins(); len(origins) > 0 {
		corsCfg := middleware.DefaultCORSConfig()
		corsCfg.AllowedOrigins = origins
		r.Use(middleware.CORS(corsCfg))
	}

	// Health endpoints
	r.Get("/healthz", deps.health.Healthz)
	r.Get("/readyz", deps.health.Readyz)
	r.Get("/metrics", deps.metrics.Metrics)

	// Root info endpoint
	r.Get("/", deps.base.Info)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/session", deps.auth.Session)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", deps.auth.Register)
			r.Post("/login", deps.auth.Login)
			r.Post("/logout", deps.auth.Logout)
			r.Post("/magic-link", deps.auth.MagicLink)
			r.Get("/redeem", deps.auth.Redeem)
		})

		r.Route("/map", func(r chi.Router) {
			r.Get("/", deps.maps.Get)
			r.Put("/", deps.maps.Update)
			r.Post("/toggle", deps.maps.Toggle)
			r.Post("/reset", deps.maps.Reset)
			r.Post("/new", deps.maps.New)
			r.Post("/save", deps.maps.Save)
			r.Post("/share", deps.maps.Share)
		})

		r.Get("/maps", deps.maps.List)
		r.Get("/shared/{mapID}", deps.shared.Open)
		r.Get("/boundaries", deps.boundaries.Get)
	})

	// Relational backend routes, registered only when configured.
	// Flat patterns so they coexist with the /api/v1 subtree.
	if deps.sqlStore != nil {
		sqlHandler := handler.NewSQLAPIHandler(deps.sqlStore, deps.logger)
		r.Post("/api/auth/register", sqlHandler.Register)
		r.Post("/api/auth/login", sqlHandler.Login)
		r.Post("/api/maps", sqlHandler.CreateMap)
		r.Put("/api/maps/{id}", sqlHandler.UpdateMap)
		r.Get("/api/maps/{id}", sqlHandler.GetMap)
		r.Get("/api/users/{userID}/maps", sqlHandler.ListUserMaps)
		r.Get("/api/health-check", sqlHandler.HealthCheck)
	}

	// 404 and 405 handlers
	r.NotFound(deps.base.NotFound)
	r.MethodNotAllowed(deps.base.MethodNotAllowed)

	return r
}
