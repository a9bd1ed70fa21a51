// Package server exposes stored maps and their renders over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"transitmap/config"
	"transitmap/importer"
	"transitmap/markup"
	"transitmap/store"
)

// MaxBodyBytes caps the size of an uploaded map.
const MaxBodyBytes = 32 << 20

// Server serves the map API.
type Server struct {
	store    store.Store
	engine   *markup.Engine
	importer *importer.Registry
	cfg      *config.Config
	router   chi.Router
}

// New wires the routes. st may be nil, in which case only /health and the
// demo render are useful.
func New(st store.Store, engine *markup.Engine, cfg *config.Config) *Server {
	s := &Server{
		store:    st,
		engine:   engine,
		importer: importer.NewRegistry(),
		cfg:      cfg,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: false,
	}))

	r.Get("/health", s.health)
	r.Get("/demo/render.{format}", s.renderDemo)
	r.Route("/maps", func(r chi.Router) {
		r.Use(s.requireStore)
		r.Get("/", s.listMaps)
		r.Get("/{name}", s.getMap)
		r.Put("/{name}", s.putMap)
		r.Delete("/{name}", s.deleteMap)
		r.Get("/{name}/render.{format}", s.renderMap)
	})

	s.router = r
	return s
}

// ServeHTTP makes the server usable as an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on the configured address until ctx is cancelled,
// then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) requireStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.store == nil {
			writeError(w, http.StatusServiceUnavailable, "no map store configured", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
