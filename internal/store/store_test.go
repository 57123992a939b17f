package store

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/corpauration/timetable-sync/internal/database"
	"github.com/corpauration/timetable-sync/internal/model"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func mustUpsert(t *testing.T, db *sql.DB, c model.Course) {
	t.Helper()
	if err := NewCourseStore(db).Upsert(db, c); err != nil {
		t.Fatalf("upsert course %s: %v", c.ID, err)
	}
}

func TestWithTxCommits(t *testing.T) {
	db := setupTestDB(t)
	s := NewCourseStore(db)

	err := WithTx(db, func(tx *sql.Tx) error {
		return s.Upsert(tx, model.Course{ID: "c1", Start: time.Now().UTC()})
	})
	if err != nil {
		t.Fatalf("with tx: %v", err)
	}

	got, err := s.GetByID("c1")
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if got == nil {
		t.Fatal("course not committed")
	}
}

func TestWithTxRollsBackEverything(t *testing.T) {
	db := setupTestDB(t)
	s := NewCourseStore(db)
	alerts := NewAlertStore(db)

	boom := errors.New("boom")
	err := WithTx(db, func(tx *sql.Tx) error {
		if err := s.Upsert(tx, model.Course{ID: "c1", Start: time.Now().UTC()}); err != nil {
			return err
		}
		if err := alerts.Append(tx, model.CourseAlert{CourseID: "c1", GroupID: 1, Time: time.Now().UTC(), Event: model.AlertAdded}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}

	got, err := s.GetByID("c1")
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if got != nil {
		t.Error("upsert survived rollback")
	}

	recorded, err := alerts.ListByGroup(1)
	if err != nil {
		t.Fatalf("list alerts: %v", err)
	}
	if len(recorded) != 0 {
		t.Errorf("alerts = %d, want 0 after rollback", len(recorded))
	}
}
