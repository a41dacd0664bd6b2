// Package api provides the HTTP API server for Bandly.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/bandly/bandly/internal/api/handlers"
	"github.com/bandly/bandly/internal/api/middleware"
	"github.com/bandly/bandly/internal/auth"
	"github.com/bandly/bandly/internal/band"
	"github.com/bandly/bandly/internal/events"
	"github.com/bandly/bandly/internal/store"
	"github.com/bandly/bandly/pkg/config"
)

// Version is the current version of the API server.
// This should be set at build time using ldflags.
var Version = "dev"

// Server represents the HTTP API server.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	store      store.Store
	bands      *band.Service
	auth       *auth.Service
	hub        *events.Hub
	config     *config.Config
	logger     *slog.Logger
}

// NewServer creates a new API server with the given dependencies.
func NewServer(cfg *config.Config, st store.Store, bandSvc *band.Service, authSvc *auth.Service, hub *events.Hub, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		store:  st,
		bands:  bandSvc,
		auth:   authSvc,
		hub:    hub,
		config: cfg,
		logger: logger,
	}

	s.setupRouter()
	return s
}

// setupRouter configures the router with middleware and routes.
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(s.logger))
	r.Use(middleware.Recovery(s.logger))
	r.Use(chimiddleware.Timeout(60 * time.Second))

	r.Use(cors.New(cors.Options{
		AllowedOrigins:   s.config.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler)

	// Health check endpoint (no auth required)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		handlers.WriteJSON(w, http.StatusOK, map[string]string{
			"status":  "ok",
			"version": Version,
		})
	})

	// Auth routes (no auth required)
	authHandler := handlers.NewAuthHandler(s.store, s.auth, s.logger)
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
	})

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		// Auth middleware for all v1 routes
		authMiddleware := middleware.NewAuthMiddleware(s.auth, s.logger)
		r.Use(authMiddleware.Authenticate)

		// Profile routes
		profilesHandler := handlers.NewProfilesHandler(s.store, s.logger)
		r.Get("/profile", profilesHandler.GetMine)
		r.Patch("/profile", profilesHandler.UpdateMine)
		r.Get("/profiles/{userID}", profilesHandler.Get)

		// Band routes
		bandsHandler := handlers.NewBandsHandler(s.store, s.bands, s.hub, s.logger)
		invitesHandler := handlers.NewInvitesHandler(s.store, s.bands, s.logger)
		r.Route("/bands", func(r chi.Router) {
			r.Post("/", bandsHandler.Create)
			r.Get("/", bandsHandler.List)
			r.Route("/{bandID}", func(r chi.Router) {
				r.Get("/", bandsHandler.Get)
				r.Patch("/", bandsHandler.Update)
				r.Delete("/", bandsHandler.Delete)
				r.Post("/leave", bandsHandler.Leave)
				r.Delete("/members/{userID}", bandsHandler.RemoveMember)

				r.Post("/invites", invitesHandler.Create)
				r.Get("/invites", invitesHandler.ListForBand)

				r.Get("/events/ws", bandsHandler.EventsWS)
			})
		})

		// Invitation routes for the invitee
		r.Route("/invites", func(r chi.Router) {
			r.Get("/", invitesHandler.ListMine)
			r.Post("/{inviteID}/accept", invitesHandler.Accept)
			r.Delete("/{inviteID}", invitesHandler.Revoke)
		})
	})

	s.router = r
}

// Start starts the HTTP server.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.APIHost, s.config.APIPort)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	s.logger.Info("starting API server", "addr", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}

// Router returns the chi router for testing purposes.
func (s *Server) Router() chi.Router {
	return s.router
}
