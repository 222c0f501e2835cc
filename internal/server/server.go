// Package server sets up the HTTP server, router, and all route definitions.
//
// This is the composition root: every dependency is wired here, in one place.
// main.go stays minimal (load config, build logger, call New/Start), and each
// layer only receives what it needs — services get repository interfaces,
// handlers get services, nothing below the router touches HTTP.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/sakif/quotes-api/internal/auth"
	"github.com/sakif/quotes-api/internal/config"
	"github.com/sakif/quotes-api/internal/dataset"
	"github.com/sakif/quotes-api/internal/handler"
	"github.com/sakif/quotes-api/internal/middleware"
	sqliteRepo "github.com/sakif/quotes-api/internal/repository/sqlite"
	"github.com/sakif/quotes-api/internal/service"
)

// registerRateLimit throttles the public registration endpoint by client IP.
// This is abuse control for the one unauthenticated write route; the per-user
// one-request-per-second limit on /quotes is a separate, DB-backed mechanism.
const (
	registerRateLimit  = 10
	registerRatePeriod = time.Minute
)

// Server owns the router and the database connection. The connection is
// closed during graceful shutdown, after in-flight requests drain.
type Server struct {
	router *chi.Mux
	cfg    config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New opens the database, loads the embedded quote dataset into it, and wires
// all routes. The quotes table is rebuilt on every boot, so dataset changes
// ship with the binary and never require a migration.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	quotes, err := dataset.Load()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("loading quote dataset: %w", err)
	}
	if err := db.ReplaceAll(context.Background(), quotes); err != nil {
		db.Close()
		return nil, fmt.Errorf("seeding quotes table: %w", err)
	}
	logger.Info("quote dataset loaded", slog.Int("quotes", len(quotes)))

	s := &Server{
		router: chi.NewRouter(),
		cfg:    cfg,
		logger: logger,
		db:     db,
	}
	s.setupRoutes()

	return s, nil
}

// setupRoutes configures all middleware and route handlers.
//
// Route structure:
//
//	POST /register                    → create an account (either body shape)
//	GET  /quotes                      → random quote (authenticated, 1 rps/user)
//	POST /portal/sign-in              → Basic auth check
//	POST /portal/get-current-email    → stored contact email
//	POST /portal/change-email         → update contact email
//	POST /portal/change-password      → update password
//	POST /portal/delete-account       → remove the account
//
// Middleware order matters: RequestID and RealIP first so the logger and the
// IP limiter see correct values, Recoverer so a panicking handler still
// returns a 500, then the request logger.
func (s *Server) setupRoutes() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	accounts := service.NewAccountService(s.db, auth.NewPasswordService(), s.logger)
	quotes := service.NewQuoteService(s.db, s.logger)

	registerHandler := handler.NewRegisterHandler(accounts, s.logger)
	quoteHandler := handler.NewQuoteHandler(quotes, s.logger)
	portalHandler := handler.NewPortalHandler(accounts, s.logger)

	// Registration: public, so IP-throttled. Key generation and Argon2id
	// hashing are not free; an unthrottled loop would also fill the users
	// table.
	s.router.Group(func(r chi.Router) {
		r.Use(httprate.Limit(
			registerRateLimit,
			registerRatePeriod,
			httprate.WithKeyFuncs(httprate.KeyByIP),
		))
		r.Post("/register", registerHandler.HandleRegister)
	})

	// Quotes: either credential shape, then the per-user limit. RateLimit
	// must come after RequireCredentials — it keys on the authenticated
	// identifier.
	s.router.Group(func(r chi.Router) {
		r.Use(auth.RequireCredentials(accounts))
		r.Use(auth.RateLimit(accounts))
		r.Get("/quotes", quoteHandler.HandleRandom)
	})

	// Portal: Basic auth only, no per-user limit (account management is
	// low-volume and every request re-verifies the password anyway).
	s.router.Route("/portal", func(r chi.Router) {
		r.Use(auth.RequireBasicAuth(accounts))
		r.Post("/sign-in", portalHandler.HandleSignIn)
		r.Post("/get-current-email", portalHandler.HandleGetCurrentEmail)
		r.Post("/change-email", portalHandler.HandleChangeEmail)
		r.Post("/change-password", portalHandler.HandleChangePassword)
		r.Post("/delete-account", portalHandler.HandleDeleteAccount)
	})
}

// Start runs the HTTP server and blocks until shutdown.
//
// Graceful shutdown: stop accepting connections, give in-flight requests 30
// seconds to finish, then close the database (flushes the WAL and releases
// the file lock). The deferred Close covers the error paths too.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.cfg.Port),
			slog.String("database", s.cfg.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
