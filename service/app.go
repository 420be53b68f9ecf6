package service

import (
	"context"
	"errors"
	"net"
	"net/http"

	"likeboard/app/auth"
	"likeboard/app/config"
	"likeboard/app/log"
	"likeboard/app/routes"
	"likeboard/app/services"
)

// Server is the likeboard HTTP API bound to an opened storage backend.
type Server struct {
	cfg     *config.Config
	storage *storage
	http    *http.Server
}

// NewServer opens the configured storage and builds the router over it.
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	issuer, err := auth.NewIssuer([]byte(cfg.Auth.JWTSecret))
	if err != nil {
		return nil, err
	}

	st, err := openStorage(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}

	router := routes.SetupRoutes(routes.Deps{
		Repos:  st.repos,
		Tokens: issuer,
		Toggle: services.RetryPolicy{
			MaxRetries:  cfg.Toggle.MaxRetries,
			BaseBackoff: cfg.Toggle.BaseBackoff,
			MaxBackoff:  cfg.Toggle.MaxBackoff,
		},
		SecureCookie: cfg.Server.SecureCookie,
	})

	return &Server{
		cfg:     cfg,
		storage: st,
		http: &http.Server{
			Addr:         cfg.Server.Addr,
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
	}, nil
}

// Handler returns the router served by s.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Server.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done, then shuts down
// gracefully within the configured shutdown timeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	logger := log.WithComponent("server")
	logger.Info().Str("addr", ln.Addr().String()).Str("driver", s.cfg.Storage.Driver).Msg("Starting likeboard API")

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.http.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close releases the storage backend.
func (s *Server) Close() error {
	return s.storage.Close()
}
