/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/friendsincode/deepcrate/internal/api"
	"github.com/friendsincode/deepcrate/internal/cache"
	"github.com/friendsincode/deepcrate/internal/config"
	"github.com/friendsincode/deepcrate/internal/db"
	"github.com/friendsincode/deepcrate/internal/eventbus"
	"github.com/friendsincode/deepcrate/internal/events"
	"github.com/friendsincode/deepcrate/internal/intent"
	"github.com/friendsincode/deepcrate/internal/library"
	"github.com/friendsincode/deepcrate/internal/logbuffer"
	"github.com/friendsincode/deepcrate/internal/planner"
	"github.com/friendsincode/deepcrate/internal/telemetry"
)

// Server bundles HTTP and supporting services.
type Server struct {
	cfg        *config.Config
	logger     zerolog.Logger
	router     chi.Router
	httpServer *http.Server
	closers    []func() error
	logBuffer  *logbuffer.Buffer

	db      *gorm.DB
	cache   *cache.Cache
	bus     *eventbus.NATSBus
	planner *planner.Service
	api     *api.API

	bgCancel context.CancelFunc
	bgWG     sync.WaitGroup
}

// New constructs the server and wires dependencies. logBuf may be nil.
func New(cfg *config.Config, logBuf *logbuffer.Buffer, logger zerolog.Logger) (*Server, error) {
	database, err := db.Connect(cfg)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(database); err != nil {
		_ = db.Close(database)
		return nil, err
	}
	srv, err := NewWithDB(cfg, database, logBuf, logger)
	if err != nil {
		_ = db.Close(database)
		return nil, err
	}
	return srv, nil
}

// NewWithDB builds a server around an open, migrated database. The server
// closes it on Close.
func NewWithDB(cfg *config.Config, database *gorm.DB, logBuf *logbuffer.Buffer, logger zerolog.Logger) (*Server, error) {
	for _, warn := range cfg.LegacyEnvWarnings {
		logger.Warn().Msg(warn)
	}

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(requestLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(securityHeadersMiddleware)
	router.Use(telemetry.TracingMiddleware("deepcrate-api"))
	router.Use(telemetry.MetricsMiddleware)
	router.Use(middleware.Timeout(60 * time.Second))

	srv := &Server{
		cfg:       cfg,
		logger:    logger,
		router:    router,
		db:        database,
		logBuffer: logBuf,
	}

	catalog, err := intent.LoadCatalogFile(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}
	srv.DeferClose(func() error { return db.Close(database) })

	srv.initDependencies(catalog)
	srv.configureRoutes()
	srv.startBackgroundWorkers()

	srv.httpServer = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv.router,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return srv, nil
}

func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")

		// Only advertise HSTS for requests served over HTTPS.
		if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		next.ServeHTTP(w, r)
	})
}

// requestLogger logs one line per request through zerolog.
func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	logger = logger.With().Str("component", "http").Logger()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("request")
		})
	}
}

func (s *Server) initDependencies(catalog *intent.Catalog) {
	if s.cfg.CacheEnabled {
		cacheCfg := cache.DefaultConfig()
		cacheCfg.RedisAddr = s.cfg.RedisAddr
		cacheCfg.RedisPassword = s.cfg.RedisPassword
		cacheCfg.RedisDB = s.cfg.RedisDB
		resultCache, err := cache.New(cacheCfg, s.logger)
		if err != nil {
			s.logger.Warn().Err(err).Msg("cache initialization failed, continuing without cache")
		} else {
			s.cache = resultCache
			s.DeferClose(func() error { return s.cache.Close() })
		}
	}

	natsCfg := eventbus.DefaultNATSConfig()
	natsCfg.URL = s.cfg.NATSURL
	s.bus = eventbus.NewNATSBus(natsCfg, s.logger)
	s.DeferClose(func() error { return s.bus.Close() })

	s.planner = planner.NewService(
		library.NewRepository(s.db),
		planner.Config{
			RiskMode:               s.cfg.RiskMode,
			DefaultDurationMinutes: s.cfg.DefaultDurationMinutes,
			MaxConcurrentAnalyses:  s.cfg.MaxConcurrentAnalyses,
		},
		planner.Options{Catalog: catalog, Cache: s.cache, Events: s.bus},
		s.logger,
	)
	s.api = api.New(s.planner, s.logBuffer, s.logger)
}

// HTTPServer exposes the underlying net/http server.
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// Handler is the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Planner returns the planner service.
func (s *Server) Planner() *planner.Service {
	return s.planner
}

// Close releases owned resources in reverse order.
func (s *Server) Close() error {
	s.stopBackgroundWorkers()
	var firstErr error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// DeferClose registers a cleanup hook.
func (s *Server) DeferClose(fn func() error) {
	s.closers = append(s.closers, fn)
}

func (s *Server) startBackgroundWorkers() {
	ctx, cancel := context.WithCancel(context.Background())
	s.bgCancel = cancel

	// Database metrics updater
	s.bgWG.Add(1)
	go func() {
		defer s.bgWG.Done()
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()

		db.UpdateConnectionMetrics(s.db)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				db.UpdateConnectionMetrics(s.db)
			}
		}
	}()

	if s.cache != nil {
		s.bgWG.Add(1)
		go func() {
			defer s.bgWG.Done()
			s.runCacheInvalidationListener(ctx)
		}()
	}
}

// runCacheInvalidationListener drops cached results when any node, this
// one included, replans or deletes a set or imports tracks.
func (s *Server) runCacheInvalidationListener(ctx context.Context) {
	planned := s.bus.Subscribe(events.EventSetPlanned)
	deleted := s.bus.Subscribe(events.EventSetDeleted)
	imported := s.bus.Subscribe(events.EventTracksImported)

	defer func() {
		s.bus.Unsubscribe(events.EventSetPlanned, planned)
		s.bus.Unsubscribe(events.EventSetDeleted, deleted)
		s.bus.Unsubscribe(events.EventTracksImported, imported)
	}()

	s.logger.Info().Msg("cache invalidation listener started")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("cache invalidation listener stopped")
			return

		case payload := <-planned:
			if setID, ok := payload["replaced_set_id"].(string); ok && setID != "" {
				s.logger.Debug().Str("set_id", setID).Msg("invalidating replaced set cache")
				_ = s.cache.InvalidateSet(ctx, setID)
			}

		case payload := <-deleted:
			if setID, ok := payload["set_id"].(string); ok && setID != "" {
				s.logger.Debug().Str("set_id", setID).Msg("invalidating deleted set cache")
				_ = s.cache.InvalidateSet(ctx, setID)
			}

		case <-imported:
			s.logger.Debug().Msg("invalidating cached analyses (tracks imported)")
			_ = s.cache.FlushAll(ctx)
		}
	}
}

func (s *Server) stopBackgroundWorkers() {
	if s.bgCancel == nil {
		return
	}
	s.bgCancel()
	s.bgWG.Wait()
	s.bgCancel = nil
}

func (s *Server) configureRoutes() {
	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		status := http.StatusOK
		response := `{"status":"ok","events":"local"}`
		if s.bus.Connected() {
			response = `{"status":"ok","events":"nats"}`
		}

		if sqlDB, err := s.db.DB(); err != nil || sqlDB.PingContext(r.Context()) != nil {
			status = http.StatusServiceUnavailable
			response = `{"status":"degraded","database":"unreachable"}`
		}

		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	})

	s.router.Handle("/metrics", telemetry.Handler())

	s.api.Routes(s.router)
}
