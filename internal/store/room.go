package store

import (
	"database/sql"
	"fmt"
)

type RoomStore struct {
	db *sql.DB
}

func NewRoomStore(db *sql.DB) *RoomStore {
	return &RoomStore{db: db}
}

func (s *RoomStore) Create(name string) (int64, error) {
	result, err := s.db.Exec(`INSERT INTO rooms (name) VALUES (?)`, name)
	if err != nil {
		return 0, fmt.Errorf("insert room: %w", err)
	}
	return result.LastInsertId()
}

// RebuildAvailabilities recomputes the room/course occupancy table from the
// comma-joined room names stored on each course. Delete-then-insert inside
// the caller's transaction, matching names by substring as the courses table
// stores them.
func (s *RoomStore) RebuildAvailabilities(q Querier) error {
	if _, err := q.Exec(`DELETE FROM rooms_availabilities`); err != nil {
		return fmt.Errorf("delete availabilities: %w", err)
	}
	_, err := q.Exec(
		`INSERT INTO rooms_availabilities (id, ref)
		 SELECT r.id, c.id FROM rooms AS r
		 JOIN courses AS c ON c.rooms LIKE '%' || r.name || '%'`,
	)
	if err != nil {
		return fmt.Errorf("insert availabilities: %w", err)
	}
	return nil
}

func (s *RoomStore) CountAvailabilities() (int64, error) {
	var n int64
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM rooms_availabilities`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count availabilities: %w", err)
	}
	return n, nil
}
