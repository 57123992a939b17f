// Package server exposes the operational status surface: health, the
// authenticated prometheus scrape, and manual job triggering.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/corpauration/timetable-sync/internal/metrics"
	"github.com/corpauration/timetable-sync/internal/middleware"
	"github.com/corpauration/timetable-sync/internal/scheduler"
)

type Config struct {
	MetricsUser     string
	MetricsPassword string
	RunUser         string
	RunPassword     string
}

type Server struct {
	cfg      Config
	sched    *scheduler.Scheduler
	registry *metrics.Registry
	gatherer prometheus.Gatherer
	logger   *slog.Logger
}

func New(cfg Config, sched *scheduler.Scheduler, registry *metrics.Registry, gatherer prometheus.Gatherer, logger *slog.Logger) *Server {
	return &Server{
		cfg:      cfg,
		sched:    sched,
		registry: registry,
		gatherer: gatherer,
		logger:   logger,
	}
}

// schedulerSource adapts the scheduler to the metrics refresh interface.
type schedulerSource struct {
	*scheduler.Scheduler
}

func (s schedulerSource) Status() string { return string(s.Scheduler.Status()) }

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)

	metricsAuth := middleware.BasicAuth("prometheus", s.cfg.MetricsUser, s.cfg.MetricsPassword)
	mux.Handle("GET /metrics", metricsAuth(http.HandlerFunc(s.metricsHandler)))

	runAuth := middleware.BasicAuth("run", s.cfg.RunUser, s.cfg.RunPassword)
	mux.Handle("POST /run/{job}", runAuth(http.HandlerFunc(s.runHandler)))

	return middleware.RequestLogger(s.logger)(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":    "ok",
		"scheduler": string(s.sched.Status()),
	})
}

func (s *Server) metricsHandler(w http.ResponseWriter, r *http.Request) {
	s.registry.RefreshScheduler(schedulerSource{s.sched})
	promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}).ServeHTTP(w, r)
}

func (s *Server) runHandler(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("job")
	if err := s.sched.TriggerNow(name); err != nil {
		s.logger.Warn("manual trigger rejected", "job", name, "error", err)
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	s.logger.Info("job triggered manually", "job", name)
	w.WriteHeader(http.StatusOK)
}
