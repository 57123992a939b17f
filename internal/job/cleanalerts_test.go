package job

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/corpauration/timetable-sync/internal/database"
	"github.com/corpauration/timetable-sync/internal/metrics"
	"github.com/corpauration/timetable-sync/internal/model"
	"github.com/corpauration/timetable-sync/internal/store"
)

func TestCleanAlertsPrunesPreviousWeeks(t *testing.T) {
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	alerts := store.NewAlertStore(db)
	record := func(id string, at time.Time) {
		t.Helper()
		err := alerts.Append(db, model.CourseAlert{CourseID: id, GroupID: 1, Time: at, Event: model.AlertAdded})
		if err != nil {
			t.Fatalf("append alert: %v", err)
		}
	}

	// Clock: monday 2024-03-04. WindowEnd is sunday 2024-03-10 00:00, so the
	// cutoff sits at 2024-03-03 00:00.
	record("stale", time.Date(2024, 2, 20, 9, 0, 0, 0, time.UTC))
	record("last-sunday", time.Date(2024, 3, 3, 8, 0, 0, 0, time.UTC))
	record("fresh", time.Date(2024, 3, 4, 7, 0, 0, 0, time.UTC))

	job := NewCleanAlerts(CleanAlertsConfig{
		DB:      db,
		Metrics: metrics.New(prometheus.NewRegistry()),
		Logger:  slog.New(slog.DiscardHandler),
		Now:     func() time.Time { return monday },
	})
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	kept, err := alerts.ListByGroup(1)
	if err != nil {
		t.Fatalf("list alerts: %v", err)
	}
	if len(kept) != 2 {
		t.Fatalf("kept alerts = %v, want last-sunday and fresh", kept)
	}
	for _, a := range kept {
		if a.CourseID == "stale" {
			t.Errorf("stale alert survived the prune")
		}
	}
}
