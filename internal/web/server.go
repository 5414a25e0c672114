// internal/web/server.go
package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/tamzrod/ppe-monitor/internal/display"
)

// Controller is the monitor surface the dashboard drives.
type Controller interface {
	SetVisible(visible bool)
	ReportVideoLoad()
	ReportVideoError()
	ReloadVideo()
	Reconnect()
	ReportSystemError(err error)
}

type Config struct {
	Listen string

	// PauseWhenUnwatched makes the monitor visible only while at least one
	// dashboard client reports its page visible.
	PauseWhenUnwatched bool

	Logger *slog.Logger
}

// Server is the local dashboard. It is also a display sink: every
// published view is pushed to connected clients.
type Server struct {
	router chi.Router
	ctl    Controller
	hub    *Hub
	listen string
	log    *slog.Logger
}

func New(cfg Config, ctl Controller) *Server {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "web")

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(log))

	s := &Server{
		router: r,
		ctl:    ctl,
		hub:    NewHub(ctl, cfg.PauseWhenUnwatched, log),
		listen: cfg.Listen,
		log:    log,
	}
	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Get("/", s.handleIndex)
	s.router.Get("/ws", s.hub.ServeHTTP)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(middleware.NoCache)
		r.Get("/view", s.handleView)
		r.Post("/video/reload", s.handleReloadVideo)
		r.Post("/reconnect", s.handleReconnect)
	})
}

// Publish pushes v to every dashboard client.
func (s *Server) Publish(v display.View) error {
	return s.hub.Broadcast(v)
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.listen,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("dashboard listening", "address", s.listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(pageHTML)
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	v, ok := s.hub.Latest()
	if !ok {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no view rendered yet"})
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleReloadVideo(w http.ResponseWriter, r *http.Request) {
	s.ctl.ReloadVideo()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "reloading"})
}

func (s *Server) handleReconnect(w http.ResponseWriter, r *http.Request) {
	s.ctl.Reconnect()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "reconnecting"})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
