package model

import "time"

// AlertEvent is the kind of change a course alert records. Stored by ordinal.
type AlertEvent int

const (
	AlertAdded AlertEvent = iota
	AlertModified
	AlertDeleted
)

func (e AlertEvent) String() string {
	switch e {
	case AlertAdded:
		return "ADDED"
	case AlertModified:
		return "MODIFIED"
	case AlertDeleted:
		return "DELETED"
	}
	return "UNKNOWN"
}

// CourseAlert is one append-only change record. Rows are never updated or
// deleted by the sync path; a weekly retention job prunes old ones.
type CourseAlert struct {
	CourseID string     `json:"course_id"`
	GroupID  int64      `json:"group_id"`
	Time     time.Time  `json:"time"`
	Event    AlertEvent `json:"event"`
}
