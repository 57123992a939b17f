package model

import "time"

// CourseCategory classifies a course event. Values are stored by ordinal, so
// the order here is part of the schema and must not be rearranged.
type CourseCategory int

const (
	CategoryDefault CourseCategory = iota
	CategoryLecture
	CategoryTutorial
	CategoryWelcome
	CategoryExam
	CategoryUnavailable
	CategoryMeeting
	CategoryEvent
	CategorySupervisedProject
)

func (c CourseCategory) String() string {
	switch c {
	case CategoryLecture:
		return "LECTURE"
	case CategoryTutorial:
		return "TUTORIAL"
	case CategoryWelcome:
		return "WELCOME"
	case CategoryExam:
		return "EXAM"
	case CategoryUnavailable:
		return "UNAVAILABLE"
	case CategoryMeeting:
		return "MEETING"
	case CategoryEvent:
		return "EVENT"
	case CategorySupervisedProject:
		return "SUPERVISED_PROJECT"
	default:
		return "DEFAULT"
	}
}

// Course is one calendar event as persisted. The identifier is stable across
// remote fetches; every other field may change between two fetches.
type Course struct {
	ID       string         `json:"id"`
	Start    time.Time      `json:"start"`
	End      *time.Time     `json:"end"`
	Category CourseCategory `json:"category"`
	Subject  *string        `json:"subject"`
	Rooms    string         `json:"rooms"`
	Teachers string         `json:"teachers"`
}
