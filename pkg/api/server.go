// Package api pngme REST API
//
// @title           pngme REST API
// @version         1.0.0
// @description     Encodes, decodes and stashes PNG chunks carrying hidden messages.
// @host            localhost:8080
// @BasePath        /api/v1
//
// @securityDefinitions.apikey ApiKeyAuth
// @in              header
// @name            X-API-Key
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/hashicorp/go-hclog"
	"github.com/ssargent/pngme/pkg/chunk"
)

const shutdownTimeout = 10 * time.Second

// DefaultMaxBodySize caps PNG uploads when ServerConfig.MaxBodySize is unset.
const DefaultMaxBodySize = 64 << 20

// Server holds the API server state
type Server struct {
	stash   ChunkStash
	config  ServerConfig
	metrics *Metrics
	codec   *chunk.Codec
	logger  hclog.Logger
}

// NewServer creates a new API server
func NewServer(stash ChunkStash, config ServerConfig, metrics *Metrics, logger hclog.Logger) *Server {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if config.MaxBodySize == 0 {
		config.MaxBodySize = DefaultMaxBodySize
	}
	return &Server{
		stash:   stash,
		config:  config,
		metrics: metrics,
		codec:   chunk.NewCodec(config.MaxChunkSize),
		logger:  logger,
	}
}

// Routes builds the router with all routes configured. Everything under
// /api/v1 requires an X-API-Key header; /metrics is left open for scraping.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  s.logger.StandardLogger(&hclog.StandardLoggerOptions{ForceLevel: hclog.Debug}),
		NoColor: true,
	}))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"X-Chunk-Crc", "X-Chunk-Length"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Prometheus metrics endpoint (unprotected for scraping)
	r.Handle("/metrics", s.metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.metrics.InstrumentAuthMiddleware(apiKeyMiddleware(s.config.APIKey)))

		r.Get("/health", s.metrics.InstrumentHandler("GET", "/api/v1/health", s.handleHealth))

		// Chunk codec
		r.Post("/chunks/encode", s.metrics.InstrumentHandler("POST", "/api/v1/chunks/encode", s.handleEncode))
		r.Post("/chunks/decode", s.metrics.InstrumentHandler("POST", "/api/v1/chunks/decode", s.handleDecode))
		r.Post("/png/chunks", s.metrics.InstrumentHandler("POST", "/api/v1/png/chunks", s.handlePngChunks))

		// Stash
		r.Post("/stash", s.metrics.InstrumentHandler("POST", "/api/v1/stash", s.handleStashPut))
		r.Get("/stash", s.metrics.InstrumentHandler("GET", "/api/v1/stash", s.handleStashList))
		r.Get("/stash/{id}", s.metrics.InstrumentHandler("GET", "/api/v1/stash/{id}", s.handleStashGet))
		r.Delete("/stash/{id}", s.metrics.InstrumentHandler("DELETE", "/api/v1/stash/{id}", s.handleStashDelete))
	})

	return r
}

// StartServer runs the HTTP server until ctx is cancelled, then shuts it down
func StartServer(ctx context.Context, stash ChunkStash, config ServerConfig, metrics *Metrics, logger hclog.Logger) error {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	server := NewServer(stash, config, metrics, logger)

	addr := fmt.Sprintf("%s:%d", config.Bind, config.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting pngme API server", "addr", addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("shutting down pngme API server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down server: %w", err)
		}
		return nil
	}
}
