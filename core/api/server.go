// Package api serves the calendar and selection store over JSON HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/m3rciful/datepicker/core/logger"
	"github.com/m3rciful/datepicker/core/selection"
)

// Options configures a Server.
type Options struct {
	Addr        string
	Token       string
	CORSOrigins []string
	Store       *selection.Store
	// Now overrides the clock used for default year/month.
	Now func() time.Time
	// ShutdownTimeout bounds graceful shutdown; 0 -> 5s.
	ShutdownTimeout time.Duration
}

// Server owns the HTTP API handlers.
type Server struct {
	opts    Options
	store   *selection.Store
	now     func() time.Time
	started time.Time
	handler http.Handler
}

// NewServer wires routes and middleware.
func NewServer(opts Options) (*Server, error) {
	if opts.Store == nil {
		return nil, errors.New("api: nil selection store")
	}
	if opts.Token == "" {
		return nil, errors.New("api: empty token")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 5 * time.Second
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}
	s := &Server{
		opts:    opts,
		store:   opts.Store,
		now:     opts.Now,
		started: opts.Now(),
	}
	s.handler = Chain(s.routes(),
		Auth(opts.Token, "/", "/health"),
		CORS(opts.CORSOrigins),
		Logging,
		RequestID,
		Recover,
	)
	return s, nil
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/calendar", s.handleCalendar)
	mux.HandleFunc("GET /api/calendar/keyboard", s.handleKeyboard)
	mux.HandleFunc("GET /api/calendar/protalk", s.handleProtalk)
	mux.HandleFunc("POST /api/select", s.handleSelect)
	mux.HandleFunc("GET /api/selection/{userId}", s.handleGetSelection)
	mux.HandleFunc("DELETE /api/selection/{userId}", s.handleClearSelection)
	mux.HandleFunc("GET /api/navigate", s.handleNavigate)
	mux.HandleFunc("POST /api/webhook/protalk", s.handleWebhook)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeFailure(w, http.StatusNotFound, codeNotFound, fmt.Sprintf("no route for %s %s", r.Method, r.URL.Path))
	})
	return mux
}

// Handler returns the fully wrapped handler.
func (s *Server) Handler() http.Handler { return s.handler }

// Run serves on opts.Addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("api: listen %s: %w", s.opts.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}
	logger.Info(ctx, "api", "listen", slog.String("listen", ln.Addr().String()))

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("api: serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api: shutdown: %w", err)
	}
	logger.Info(ctx, "api", "stopped")
	return nil
}
