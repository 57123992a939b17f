package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/corpauration/timetable-sync/internal/model"
)

type GroupStore struct {
	db *sql.DB
}

func NewGroupStore(db *sql.DB) *GroupStore {
	return &GroupStore{db: db}
}

func (s *GroupStore) Create(name string, private bool, referent *uuid.UUID) (*model.Group, error) {
	var privateInt int
	if private {
		privateInt = 1
	}
	var ref sql.NullString
	if referent != nil {
		ref = sql.NullString{String: referent.String(), Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT INTO groups (name, private, referent) VALUES (?, ?, ?)`,
		name, privateInt, ref,
	)
	if err != nil {
		return nil, fmt.Errorf("insert group: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return &model.Group{ID: id, Name: name, Private: private, Referent: referent}, nil
}

// ListReferents returns one (group, remote student id) pair per group that is
// non-private and has a referent student on file. These pairs are the units
// of work of a course sync run.
func (s *GroupStore) ListReferents() ([]model.GroupReferent, error) {
	rows, err := s.db.Query(
		`SELECT g.id, st.student_id
		 FROM groups AS g
		 JOIN students AS st ON st.id = g.referent
		 WHERE g.private = 0 AND g.referent IS NOT NULL
		 ORDER BY g.id`,
	)
	if err != nil {
		return nil, fmt.Errorf("query group referents: %w", err)
	}
	defer rows.Close()

	var refs []model.GroupReferent
	for rows.Next() {
		var r model.GroupReferent
		if err := rows.Scan(&r.GroupID, &r.StudentID); err != nil {
			return nil, fmt.Errorf("scan group referent: %w", err)
		}
		refs = append(refs, r)
	}
	return refs, rows.Err()
}
