package store

import (
	"database/sql"
	"testing"
	"time"

	"github.com/corpauration/timetable-sync/internal/model"
)

func TestRebuildAvailabilities(t *testing.T) {
	db := setupTestDB(t)
	s := NewRoomStore(db)

	if _, err := s.Create("A101"); err != nil {
		t.Fatalf("create room: %v", err)
	}
	if _, err := s.Create("B202"); err != nil {
		t.Fatalf("create room: %v", err)
	}
	if _, err := s.Create("C303"); err != nil {
		t.Fatalf("create room: %v", err)
	}

	now := time.Now().UTC()
	mustUpsert(t, db, model.Course{ID: "c1", Start: now, Rooms: "A101,B202"})
	mustUpsert(t, db, model.Course{ID: "c2", Start: now, Rooms: "A101"})

	err := WithTx(db, func(tx *sql.Tx) error {
		return s.RebuildAvailabilities(tx)
	})
	if err != nil {
		t.Fatalf("rebuild availabilities: %v", err)
	}

	n, err := s.CountAvailabilities()
	if err != nil {
		t.Fatalf("count availabilities: %v", err)
	}
	// A101 appears on both courses, B202 on one, C303 nowhere.
	if n != 3 {
		t.Errorf("availabilities = %d, want 3", n)
	}

	// Rebuilding again replaces, never accumulates.
	err = WithTx(db, func(tx *sql.Tx) error {
		return s.RebuildAvailabilities(tx)
	})
	if err != nil {
		t.Fatalf("rebuild again: %v", err)
	}
	n, err = s.CountAvailabilities()
	if err != nil {
		t.Fatalf("count availabilities: %v", err)
	}
	if n != 3 {
		t.Errorf("availabilities after rebuild = %d, want 3", n)
	}
}
