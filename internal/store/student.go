package store

import (
	"database/sql"
	"fmt"

	"github.com/corpauration/timetable-sync/internal/model"
)

type StudentStore struct {
	db *sql.DB
}

func NewStudentStore(db *sql.DB) *StudentStore {
	return &StudentStore{db: db}
}

func (s *StudentStore) Create(st model.Student) error {
	_, err := s.db.Exec(
		`INSERT INTO students (id, student_id, dept) VALUES (?, ?, ?)`,
		st.ID.String(), st.StudentID, st.Dept,
	)
	if err != nil {
		return fmt.Errorf("insert student: %w", err)
	}
	return nil
}

// ReplaceCytech swaps the cytech_students snapshot for a fresh one. Runs
// within the caller's transaction; the batch job passes the ids it kept
// after filtering the remote directory by department.
func (s *StudentStore) ReplaceCytech(q Querier, ids []int64) error {
	if _, err := q.Exec(`DELETE FROM cytech_students`); err != nil {
		return fmt.Errorf("delete cytech students: %w", err)
	}
	for _, id := range ids {
		if _, err := q.Exec(`INSERT INTO cytech_students (id) VALUES (?)`, id); err != nil {
			return fmt.Errorf("insert cytech student: %w", err)
		}
	}
	return nil
}

func (s *StudentStore) CountCytech() (int64, error) {
	var n int64
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM cytech_students`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count cytech students: %w", err)
	}
	return n, nil
}
