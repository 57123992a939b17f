package model

import "github.com/google/uuid"

type Student struct {
	ID        uuid.UUID `json:"id"`
	StudentID int64     `json:"student_id"`
	Dept      string    `json:"dept"`
}
