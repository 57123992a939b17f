package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/corpauration/timetable-sync/internal/metrics"
	"github.com/corpauration/timetable-sync/internal/scheduler"
)

type noopJob struct {
	runs atomic.Int64
}

func (j *noopJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	return nil
}

func setupServer(t *testing.T) (*Server, *noopJob) {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)

	sched := scheduler.New(scheduler.Config{Tick: time.Millisecond}, logger)
	job := &noopJob{}
	trig := scheduler.IntervalTrigger{Every: time.Hour, StartDelay: time.Hour, Policy: scheduler.FireNow}
	if err := sched.Schedule("update-courses", "sync", job, trig); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	sched.Start(context.Background())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		sched.Shutdown(ctx)
	})

	promReg := prometheus.NewRegistry()
	reg := metrics.New(promReg)
	srv := New(Config{
		MetricsUser:     "metrics",
		MetricsPassword: "scrape",
		RunUser:         "ops",
		RunPassword:     "run",
	}, sched, reg, promReg, logger)
	return srv, job
}

func TestHealth(t *testing.T) {
	srv, _ := setupServer(t)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" || body["scheduler"] != "RUNNING" {
		t.Errorf("body = %v", body)
	}
}

func TestMetricsRequiresAuth(t *testing.T) {
	srv, _ := setupServer(t)
	router := srv.Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated status = %d, want 401", rec.Code)
	}
	if got := rec.Header().Get("WWW-Authenticate"); !strings.Contains(got, "prometheus") {
		t.Errorf("WWW-Authenticate = %q, want prometheus realm", got)
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.SetBasicAuth("metrics", "scrape")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("authenticated status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, metric := range []string{
		"scheduler_status",
		"scheduler_next_fire_time",
		"scheduler_courses_duration",
	} {
		if !strings.Contains(body, metric) {
			t.Errorf("scrape body is missing %s", metric)
		}
	}
}

func TestRunTriggersJob(t *testing.T) {
	srv, job := setupServer(t)
	router := srv.Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/run/update-courses", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated status = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/run/update-courses", nil)
	req.SetBasicAuth("ops", "run")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("authenticated status = %d, want 200", rec.Code)
	}

	deadline := time.Now().Add(2 * time.Second)
	for job.runs.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("job never ran after manual trigger")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestRunUnknownJob(t *testing.T) {
	srv, _ := setupServer(t)

	req := httptest.NewRequest(http.MethodPost, "/run/no-such-job", nil)
	req.SetBasicAuth("ops", "run")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
