package job

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/corpauration/timetable-sync/internal/celcat"
	"github.com/corpauration/timetable-sync/internal/database"
	"github.com/corpauration/timetable-sync/internal/metrics"
	"github.com/corpauration/timetable-sync/internal/store"
)

func TestStudentsRunFiltersAndReplaces(t *testing.T) {
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	provider := &stubProvider{students: []celcat.DirectoryStudent{
		{ID: 1, Dept: cytechDept},
		{ID: 2, Dept: "D : AUTRE"},
		{ID: 3, Dept: cytechDept},
	}}
	reg := metrics.New(prometheus.NewRegistry())
	job := NewStudents(StudentsConfig{
		DB:          db,
		Provider:    provider,
		Credentials: Credentials{Username: "u", Password: "p"},
		Metrics:     reg,
		Logger:      slog.New(slog.DiscardHandler),
	})

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	students := store.NewStudentStore(db)
	n, err := students.CountCytech()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Errorf("cytech students = %d, want 2", n)
	}

	// The next run replaces the snapshot wholesale.
	provider.students = []celcat.DirectoryStudent{{ID: 9, Dept: cytechDept}}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("second run: %v", err)
	}
	n, err = students.CountCytech()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("cytech students after replace = %d, want 1", n)
	}
}

func TestStudentsRunLoginFailure(t *testing.T) {
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	provider := &stubProvider{loginErr: errors.New("ldap down")}
	reg := metrics.New(prometheus.NewRegistry())
	job := NewStudents(StudentsConfig{
		DB:          db,
		Provider:    provider,
		Credentials: Credentials{Username: "u", Password: "p"},
		Metrics:     reg,
		Logger:      slog.New(slog.DiscardHandler),
	})

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("run succeeded with failed login")
	}
	if got := testutil.ToFloat64(reg.Students.Errors); got != 1 {
		t.Errorf("error counter = %v, want 1", got)
	}
}
