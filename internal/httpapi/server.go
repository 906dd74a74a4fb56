// Package httpapi exposes the health engine over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/hamed0406/healthcheck/internal/aggregator"
	"github.com/hamed0406/healthcheck/internal/domain"
	apimw "github.com/hamed0406/healthcheck/internal/httpapi/middleware"
)

// Engine is the read side of the aggregator.
type Engine interface {
	CheckAll(ctx context.Context) domain.AggregationResult
	Service(ctx context.Context, name string) (domain.ProbeResult, error)
	Metrics(ctx context.Context) domain.MetricsSnapshot
	Services() []string
}

type Server struct {
	Logger  *zap.Logger
	Engine  Engine
	Metrics http.Handler // Prometheus scrape handler; nil disables /metrics

	sim *simulated
}

func NewServer(l *zap.Logger, e Engine, metrics http.Handler) *Server {
	if l == nil {
		l = zap.NewNop()
	}
	return &Server{Logger: l, Engine: e, Metrics: metrics, sim: newSimulated()}
}

// RouterOptions configures the public middleware chain.
type RouterOptions struct {
	AllowedOrigins []string // empty = allow all
	RateLimitRPM   int      // 0 = off
	RateLimitBurst int
	Simulate       bool // serve /api/status, /api/unreliable, /api/slow
}

func (s *Server) Router(opts RouterOptions) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(apimw.AccessLog(s.Logger))
	if len(opts.AllowedOrigins) == 0 {
		r.Use(cors.AllowAll().Handler)
	} else {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics)
	}

	health := func(r chi.Router) {
		r.Use(apimw.RateLimit(opts.RateLimitRPM, opts.RateLimitBurst))
		r.Get("/", s.handleHealth)
		r.Get("/status", s.handleStatus)
		r.Get("/metrics", s.handleMetrics)
		r.Get("/service/{name}", s.handleService)
	}
	r.Route("/health", health)
	r.Route("/api/health", health)

	if opts.Simulate {
		if s.sim == nil {
			s.sim = newSimulated()
		}
		s.sim.routes(r)
	}

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	res := s.Engine.CheckAll(r.Context())
	writeJSON(w, statusCode(res.Healthy()), res)
}

type serviceStatus struct {
	Name         string  `json:"name"`
	Healthy      bool    `json:"healthy"`
	ResponseTime float64 `json:"response_time"`
}

type statusView struct {
	Status    domain.Status   `json:"status"`
	Timestamp time.Time       `json:"timestamp"`
	Services  []serviceStatus `json:"services"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	res := s.Engine.CheckAll(r.Context())
	view := statusView{
		Status:    res.Status,
		Timestamp: res.ObservedAt,
		Services:  make([]serviceStatus, 0, len(res.Services)),
	}
	for _, name := range s.Engine.Services() {
		p, ok := res.Services[name]
		if !ok {
			continue
		}
		view.Services = append(view.Services, serviceStatus{
			Name:         name,
			Healthy:      p.Healthy,
			ResponseTime: p.ResponseTimeMS,
		})
	}
	writeJSON(w, statusCode(res.Healthy()), view)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Engine.Metrics(r.Context()))
}

func (s *Server) handleService(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	res, err := s.Engine.Service(r.Context(), name)
	if errors.Is(err, aggregator.ErrUnknownService) {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"error":              "Service not found",
			"available_services": s.Engine.Services(),
		})
		return
	}
	if err != nil {
		s.Logger.Error("service_lookup_error", zap.String("service", name), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, statusCode(res.Healthy), res)
}

func statusCode(healthy bool) int {
	if healthy {
		return http.StatusOK
	}
	return http.StatusServiceUnavailable
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
