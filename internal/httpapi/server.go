// Package httpapi exposes the unified data facade over HTTP: JSON endpoints
// under /api/v1, a WebSocket upgrade path, and Prometheus metrics.
package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/itzcole03/atlas/internal/hub"
	"github.com/itzcole03/atlas/internal/metrics"
	"github.com/itzcole03/atlas/internal/sports"
	"github.com/itzcole03/atlas/internal/unified"
)

// Server wires the router and its dependencies.
type Server struct {
	service  *unified.Service
	registry *sports.Registry
	hub      *hub.Hub
	metrics  *metrics.Metrics
	logger   *slog.Logger

	started time.Time
}

// NewServer creates the HTTP layer over the facade. hub may be nil when the
// WebSocket endpoint is disabled.
func NewServer(
	service *unified.Service,
	registry *sports.Registry,
	h *hub.Hub,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		service:  service,
		registry: registry,
		hub:      h,
		metrics:  m,
		logger:   logger,
		started:  time.Now(),
	}
}

// Router builds the chi router with middleware and all routes mounted.
func (s *Server) Router(corsOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(30 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.HealthCheck)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/opportunities", s.GetOpportunities)
		r.Get("/props", s.GetProps)
		r.Get("/events", s.GetEvents)
		r.Get("/sports", s.GetSports)
		r.Get("/sports/{sportID}/in-season", s.GetInSeason)
		r.Post("/cache/invalidate", s.InvalidateCache)
	})

	if s.hub != nil {
		r.Get("/ws", s.hub.ServeWS)
	}
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}

	return r
}

// requestLogger logs each request with its status and duration.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", chimiddleware.GetReqID(r.Context()),
		)
	})
}
