package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/corpauration/timetable-sync/internal/celcat"
	"github.com/corpauration/timetable-sync/internal/config"
	"github.com/corpauration/timetable-sync/internal/database"
	"github.com/corpauration/timetable-sync/internal/job"
	"github.com/corpauration/timetable-sync/internal/logging"
	"github.com/corpauration/timetable-sync/internal/metrics"
	"github.com/corpauration/timetable-sync/internal/scheduler"
	"github.com/corpauration/timetable-sync/internal/server"
)

const shutdownGrace = 30 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using system env")
	}

	cfg := config.Load()
	logger := logging.Setup(cfg.LogLevel)

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	provider, err := celcat.NewClient(celcat.Config{BaseURL: cfg.CelcatBaseURL})
	if err != nil {
		logger.Error("failed to build celcat client", "error", err)
		os.Exit(1)
	}
	creds := job.Credentials{Username: cfg.CelcatUsername, Password: cfg.CelcatPassword}

	promRegistry := prometheus.NewRegistry()
	reg := metrics.New(promRegistry)

	sched := scheduler.New(scheduler.Config{}, logger.With("component", "scheduler"))

	coursesJob := job.NewCourses(job.CoursesConfig{
		DB:          db,
		Provider:    provider,
		Credentials: creds,
		Labels:      cfg.Labels,
		Metrics:     reg,
		Logger:      logger.With("job", "update-courses"),
	})
	studentsJob := job.NewStudents(job.StudentsConfig{
		DB:          db,
		Provider:    provider,
		Credentials: creds,
		Metrics:     reg,
		Logger:      logger.With("job", "update-students"),
	})
	roomsJob := job.NewRooms(job.RoomsConfig{
		DB:      db,
		Metrics: reg,
		Logger:  logger.With("job", "update-rooms"),
	})
	cleanJob := job.NewCleanAlerts(job.CleanAlertsConfig{
		DB:      db,
		Metrics: reg,
		Logger:  logger.With("job", "clean-course-alert"),
	})

	weekly, err := scheduler.Weekly(time.Monday, 0, 0, scheduler.FireAndProceed)
	if err != nil {
		logger.Error("failed to build weekly trigger", "error", err)
		os.Exit(1)
	}

	registrations := []struct {
		name    string
		group   string
		job     scheduler.Job
		trigger scheduler.Trigger
	}{
		{"update-courses", "update-courses", coursesJob, scheduler.IntervalTrigger{Every: 2 * time.Hour, StartDelay: 5 * time.Minute, Policy: scheduler.FireNow}},
		{"update-students", "update-students", studentsJob, scheduler.IntervalTrigger{Every: 30 * 24 * time.Hour, Policy: scheduler.FireNow}},
		{"update-rooms", "update-rooms", roomsJob, scheduler.IntervalTrigger{Every: 2 * time.Hour, Policy: scheduler.FireNow}},
		{"clean-course-alert", "clean-course-alert", cleanJob, weekly},
	}
	for _, r := range registrations {
		if err := sched.Schedule(r.name, r.group, r.job, r.trigger); err != nil {
			logger.Error("failed to schedule job", "job", r.name, "error", err)
			os.Exit(1)
		}
	}

	ctx := context.Background()
	sched.Start(ctx)

	srv := server.New(server.Config{
		MetricsUser:     cfg.MetricsUser,
		MetricsPassword: cfg.MetricsPassword,
		RunUser:         cfg.RunUser,
		RunPassword:     cfg.RunPassword,
	}, sched, reg, promRegistry, logger.With("component", "server"))

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("status surface listening", "port", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	if err := sched.Shutdown(shutdownCtx); err != nil {
		logger.Error("scheduler shutdown", "error", err)
	}
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}
}
