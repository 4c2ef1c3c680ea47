// Package health serves the process liveness probe. It shares nothing with
// the bot runtime, so it keeps answering while update handling is degraded.
package health

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/prostogovorite/helpbot/core/logger"
)

const shutdownTimeout = 5 * time.Second

// Server is the liveness HTTP listener.
type Server struct {
	listen string
	srv    *http.Server
}

// New prepares a server bound to listen (host:port or :port).
func New(listen string) *Server {
	return &Server{
		listen: listen,
		srv: &http.Server{
			Addr:              listen,
			Handler:           Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Handler answers GET and HEAD on "/" with 200 OK. Other paths are 404 and
// other methods on "/" are 405.
func Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/", alive)
	r.Head("/", alive)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	})
	return r
}

func alive(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		_, _ = w.Write([]byte("OK"))
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.listen)
	if err != nil {
		logger.Error(ctx, logger.CompHealth, "health.listen",
			slog.String("listen", s.listen),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("health listen %s: %w", s.listen, err)
	}
	return s.serve(ctx, ln)
}

func (s *Server) serve(ctx context.Context, ln net.Listener) error {
	logger.Info(ctx, logger.CompHealth, "health.start", slog.String("listen", ln.Addr().String()))

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("health serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	err := s.srv.Shutdown(shutdownCtx)
	logger.Info(shutdownCtx, logger.CompHealth, "health.stop", slog.String("status", logger.Status(err)))
	if err != nil {
		return fmt.Errorf("health shutdown: %w", err)
	}
	return nil
}
