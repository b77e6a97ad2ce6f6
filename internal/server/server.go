// Package server exposes batches over a JSON HTTP API.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/UnknownOlympus/geobatch/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxInputBytes = 10 << 20

// Pinger checks a backing store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server routes API requests to the batch manager.
type Server struct {
	log      *slog.Logger
	manager  *service.Manager
	db       Pinger
	gatherer prometheus.Gatherer
}

// New creates a server. The database may be nil when persistence is disabled.
func New(log *slog.Logger, manager *service.Manager, db Pinger, gatherer prometheus.Gatherer) *Server {
	return &Server{log: log, manager: manager, db: db, gatherer: gatherer}
}

// Router returns the HTTP handler of the API.
func (s *Server) Router() http.Handler {
	router := chi.NewRouter()

	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		s.logRequests,
		middleware.Recoverer,
		cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "PUT", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"*"},
			MaxAge:         300,
		}),
	)

	router.Get("/healthz", s.healthz)
	router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	router.Route("/api/v1/batches", func(r chi.Router) {
		r.Post("/", s.createBatch)
		r.Route("/{batchID}", func(r chi.Router) {
			r.Get("/", s.getBatch)
			r.Delete("/", s.deleteBatch)
			r.Post("/geocode", s.geocodeAll)
			r.Get("/export", s.exportBatch)
			r.Post("/rows/{row}/geocode", s.regeocodeRow)
			r.Put("/rows/{row}/notes", s.updateNotes)
			r.Delete("/rows/{row}", s.deleteRow)
		})
	})

	return router
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		s.log.DebugContext(r.Context(), "Request served",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s.log.DebugContext(ctx, "Performing health checks...")

	status, body := http.StatusOK, "OK"
	if s.db != nil {
		if err := s.db.Ping(ctx); err != nil {
			status, body = http.StatusServiceUnavailable, "DB ping failed"
		}
	}

	w.WriteHeader(status)
	if _, err := w.Write([]byte(body)); err != nil {
		s.log.ErrorContext(ctx, "failed to write reply", "error", err)
	}
}
