// Package httpapi exposes the credential and session stores over a JSON HTTP
// surface: account signup/login/logout/deletion, profile management, public
// listings, and admin-only permission management.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/okulikov/authd/internal/logging"
	"github.com/okulikov/authd/internal/server/config"
	"github.com/okulikov/authd/internal/server/models"
)

// CredentialStore is the slice of the credential service the handlers need.
type CredentialStore interface {
	Register(ctx context.Context, username string, credential []byte, profile *string, permissionLevel int32) (int64, error)
	Verify(ctx context.Context, username string, credential []byte) (int64, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByID(ctx context.Context, userID int64) (*models.User, error)
	Delete(ctx context.Context, userID int64) error
	UpdateCredential(ctx context.Context, userID int64, newCredential []byte) error
	UpdateProfile(ctx context.Context, userID int64, profile *string) error
	UpdatePermissionLevel(ctx context.Context, userID int64, level int32) error
	ListUsernames(ctx context.Context) ([]string, error)
	ListAdmins(ctx context.Context) ([]string, error)
}

// SessionStore is the slice of the session service the handlers need.
type SessionStore interface {
	Issue(ctx context.Context, userID int64) ([]byte, error)
	Revoke(ctx context.Context, token []byte) error
}

// Gate authorizes a session token against a minimum permission level.
type Gate interface {
	Authorize(ctx context.Context, token []byte, minLevel int32) (int64, error)
}

// Server is the HTTP front of the auth service.
type Server struct {
	config      *config.Config
	logger      logging.Logger
	credentials CredentialStore
	sessions    SessionStore
	gate        Gate
}

// NewServer constructs a Server over the given stores.
func NewServer(cfg *config.Config, logger logging.Logger, credentials CredentialStore, sessions SessionStore, gate Gate) *Server {
	return &Server{
		config:      cfg,
		logger:      logger,
		credentials: credentials,
		sessions:    sessions,
		gate:        gate,
	}
}

// Routes assembles the router. Split out of Run so tests can drive the full
// middleware stack through httptest.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(s.sessionCookie)

	r.Post("/signup", s.handleSignup)
	r.Post("/login", s.handleLogin)
	r.Post("/logout", s.handleLogout)
	r.Post("/delete", s.handleDeleteAccount)

	r.Get("/me", s.handleMe)
	r.Post("/password", s.handleChangePassword)
	r.Post("/profile", s.handleUpdateProfile)

	r.Get("/users", s.handleListUsers)
	r.Get("/users/{username}", s.handleGetUser)

	r.Get("/admins", s.handleListAdmins)
	r.Post("/admins/{username}", s.handlePromote)
	r.Delete("/admins/{username}", s.handleDemote)

	return r
}

// Run serves HTTP until ctx is cancelled, then drains connections within the
// configured shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.config.EndpointAddrHTTP,
		Handler: s.Routes(),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	s.logger.Info(shutdownCtx, "http server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
