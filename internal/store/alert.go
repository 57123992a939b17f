package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/corpauration/timetable-sync/internal/model"
)

type AlertStore struct {
	db *sql.DB
}

func NewAlertStore(db *sql.DB) *AlertStore {
	return &AlertStore{db: db}
}

// Append inserts one alert row. Alerts are write-once: nothing in the sync
// path ever updates or deletes them.
func (s *AlertStore) Append(q Querier, a model.CourseAlert) error {
	_, err := q.Exec(
		`INSERT INTO courses_alerts (id, "group", time, event) VALUES (?, ?, ?, ?)`,
		a.CourseID, a.GroupID, a.Time.UTC(), int(a.Event),
	)
	if err != nil {
		return fmt.Errorf("append alert: %w", err)
	}
	return nil
}

func (s *AlertStore) ListByGroup(groupID int64) ([]model.CourseAlert, error) {
	rows, err := s.db.Query(
		`SELECT id, "group", time, event FROM courses_alerts WHERE "group" = ? ORDER BY time`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []model.CourseAlert
	for rows.Next() {
		var a model.CourseAlert
		var event int
		if err := rows.Scan(&a.CourseID, &a.GroupID, &a.Time, &event); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		a.Time = a.Time.UTC()
		a.Event = model.AlertEvent(event)
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

// DeleteOlderThan prunes alerts recorded before the cutoff and reports how
// many rows went away. Used by the weekly retention job only.
func (s *AlertStore) DeleteOlderThan(q Querier, cutoff time.Time) (int64, error) {
	res, err := q.Exec(`DELETE FROM courses_alerts WHERE time < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete old alerts: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
