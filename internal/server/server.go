// Package server exposes a bridge table over a websocket.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

// Server represents the WebSocket server
type Server struct {
	addr       string
	hub        *Hub
	upgrader   websocket.Upgrader
	sendBuffer int
	logger     *log.Logger
	baseCtx    context.Context
}

// NewServer creates a server for hub listening on addr.
func NewServer(addr string, hub *Hub, logger *log.Logger, sendBuffer int) *Server {
	if sendBuffer < 1 {
		sendBuffer = defaultSendBuffer
	}
	return &Server{
		addr: addr,
		hub:  hub,
		upgrader: websocket.Upgrader{
			// Table clients are terminals and scripts, not browsers.
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		sendBuffer: sendBuffer,
		logger:     logger.WithPrefix("server"),
		baseCtx:    context.Background(),
	}
}

// Handler returns the HTTP routes. The hub must be running for /ws to serve.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/ws", s.handleWebSocket)
	r.Get("/health", s.handleHealth)
	return r
}

// requestLogger logs each request at debug level once it completes. For /ws
// that is when the upgrade hands the connection over.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			s.logger.Debug("HTTP request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

// Run serves until ctx is cancelled, then shuts the listener and hub down.
func (s *Server) Run(ctx context.Context) error {
	s.baseCtx = ctx
	httpServer := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.hub.Run(gctx)
	})
	g.Go(func() error {
		s.logger.Info("Starting WebSocket server", "addr", s.addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen on %s: %w", s.addr, err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Info("Shutting down WebSocket server")
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// handleWebSocket handles WebSocket upgrade requests
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	client := NewConnection(s.baseCtx, ws, s.hub, s.logger, s.sendBuffer)
	if err := s.hub.Connect(r.Context(), client); err != nil {
		s.logger.Warn("Hub refused connection", "error", err)
		_ = client.Close()
		return
	}
	client.Start()
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK")
}
