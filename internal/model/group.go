package model

import "github.com/google/uuid"

// Group is a student group. Non-private groups with a referent student get
// their calendar synchronized by fetching the referent's timetable.
type Group struct {
	ID       int64      `json:"id"`
	Name     string     `json:"name"`
	Private  bool       `json:"private"`
	Referent *uuid.UUID `json:"referent"`
}

// GroupReferent pairs a group with the remote resource id of its referent
// student, the unit of work for one course sync cycle.
type GroupReferent struct {
	GroupID   int64
	StudentID int64
}
