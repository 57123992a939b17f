// Package job implements the recurring sync jobs the scheduler fires.
package job

import (
	"context"
	"time"

	"github.com/corpauration/timetable-sync/internal/celcat"
)

// CalendarProvider is the slice of the remote calendar service the jobs
// depend on. Tests substitute a stub.
type CalendarProvider interface {
	Login(ctx context.Context, user, pass string) error
	FetchEvents(ctx context.Context, start, end time.Time, resourceID int64) ([]celcat.Event, error)
	FetchSideBarEvents(ctx context.Context, eventID string) ([]celcat.SideBarElement, error)
	FetchStudents(ctx context.Context) ([]celcat.DirectoryStudent, error)
}

// Credentials authenticate against the calendar provider. They arrive from
// configuration as opaque values.
type Credentials struct {
	Username string
	Password string
}

// academicYearWindow bounds the remote fetch: September 1st to September 1st
// around now. From September through December that is the year starting this
// September; otherwise the year that started last September.
func academicYearWindow(now time.Time) (time.Time, time.Time) {
	year := now.Year()
	if now.Month() < time.September {
		year--
	}
	start := time.Date(year, time.September, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(1, 0, 0)
}
