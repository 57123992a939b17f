package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/corpauration/timetable-sync/internal/model"
)

type CourseStore struct {
	db *sql.DB
}

func NewCourseStore(db *sql.DB) *CourseStore {
	return &CourseStore{db: db}
}

// Upsert inserts the course or, when a row with the same identifier exists,
// overwrites every mutable field with the freshly fetched values.
func (s *CourseStore) Upsert(q Querier, c model.Course) error {
	var end sql.NullTime
	if c.End != nil {
		end = sql.NullTime{Time: c.End.UTC(), Valid: true}
	}
	var subject sql.NullString
	if c.Subject != nil {
		subject = sql.NullString{String: *c.Subject, Valid: true}
	}

	_, err := q.Exec(
		`INSERT INTO courses (id, start, "end", category, subject, rooms, teachers)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE
		 SET start = excluded.start,
		     "end" = excluded."end",
		     category = excluded.category,
		     subject = excluded.subject,
		     rooms = excluded.rooms,
		     teachers = excluded.teachers`,
		c.ID, c.Start.UTC(), end, int(c.Category), subject, c.Rooms, c.Teachers,
	)
	if err != nil {
		return fmt.Errorf("upsert course: %w", err)
	}
	return nil
}

func (s *CourseStore) GetByID(id string) (*model.Course, error) {
	return scanCourse(s.db.QueryRow(
		`SELECT id, start, "end", category, subject, rooms, teachers
		 FROM courses WHERE id = ?`, id))
}

// ListGroupWindow returns the courses linked to the group whose start falls
// within [from, to).
func (s *CourseStore) ListGroupWindow(q Querier, groupID int64, from, to time.Time) ([]model.Course, error) {
	rows, err := q.Query(
		`SELECT c.id, c.start, c."end", c.category, c.subject, c.rooms, c.teachers
		 FROM courses AS c
		 JOIN courses_groups AS cg ON c.id = cg.id
		 WHERE cg.ref = ? AND c.start >= ? AND c.start < ?`,
		groupID, from.UTC(), to.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("query group window: %w", err)
	}
	defer rows.Close()

	var courses []model.Course
	for rows.Next() {
		c, err := scanCourseRow(rows)
		if err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

// ReplaceGroupLinks deletes every course link of the group and inserts one
// row per course id. Callers run it inside the same transaction as the
// course upserts so a link never points at a missing course row.
func (s *CourseStore) ReplaceGroupLinks(q Querier, groupID int64, courseIDs []string) error {
	if _, err := q.Exec(`DELETE FROM courses_groups WHERE ref = ?`, groupID); err != nil {
		return fmt.Errorf("delete group links: %w", err)
	}
	for _, id := range courseIDs {
		if _, err := q.Exec(`INSERT INTO courses_groups (id, ref) VALUES (?, ?)`, id, groupID); err != nil {
			return fmt.Errorf("insert group link: %w", err)
		}
	}
	return nil
}

// GroupLinks returns the course ids currently linked to the group.
func (s *CourseStore) GroupLinks(groupID int64) ([]string, error) {
	rows, err := s.db.Query(`SELECT id FROM courses_groups WHERE ref = ?`, groupID)
	if err != nil {
		return nil, fmt.Errorf("query group links: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan group link: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCourse(row *sql.Row) (*model.Course, error) {
	c, err := scanCourseRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func scanCourseRow(r rowScanner) (model.Course, error) {
	var c model.Course
	var end sql.NullTime
	var subject sql.NullString

	err := r.Scan(&c.ID, &c.Start, &end, &c.Category, &subject, &c.Rooms, &c.Teachers)
	if err == sql.ErrNoRows {
		return c, err
	}
	if err != nil {
		return c, fmt.Errorf("scan course: %w", err)
	}

	c.Start = c.Start.UTC()
	if end.Valid {
		t := end.Time.UTC()
		c.End = &t
	}
	if subject.Valid {
		c.Subject = &subject.String
	}
	return c, nil
}
