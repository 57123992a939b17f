// Package diff classifies the changes between the persisted course window of
// a group and a freshly fetched one.
package diff

import (
	"errors"
	"time"

	"github.com/corpauration/timetable-sync/internal/model"
)

// ErrAllCoursesRemoved reports that every persisted course of the window
// would be deleted while the fresh window holds nothing at all. That pattern
// means a broken fetch, not a genuine mass cancellation, so the caller must
// roll the cycle back instead of committing the deletions.
var ErrAllCoursesRemoved = errors.New("all courses of the window were removed")

// Change is one detected difference for a course id.
type Change struct {
	CourseID string
	Event    model.AlertEvent
}

// Classify compares the persisted window set against the remote fetch and
// returns one Change per added, modified or deleted course. Only fresh
// events whose start falls within [from, to) take part; events outside the
// window are the caller's to persist but never produce changes. Timestamps
// are compared at whole-second granularity in UTC so sub-second round-trip
// noise cannot produce spurious MODIFIED results.
func Classify(old, fresh []model.Course, from, to time.Time) ([]Change, error) {
	oldByID := make(map[string]model.Course, len(old))
	for _, c := range old {
		oldByID[c.ID] = c
	}

	windowSize := 0
	var changes []Change
	for _, c := range fresh {
		if !inWindow(c.Start, from, to) {
			continue
		}
		windowSize++
		prev, existed := oldByID[c.ID]
		if !existed {
			changes = append(changes, Change{CourseID: c.ID, Event: model.AlertAdded})
			continue
		}
		if !sameSecond(c.Start, prev.Start) || !sameOptSecond(c.End, prev.End) {
			changes = append(changes, Change{CourseID: c.ID, Event: model.AlertModified})
		}
	}

	// The overall fetch decides deletion, not just the window: a course that
	// merely slid out of the window is not deleted.
	freshIDs := make(map[string]struct{}, len(fresh))
	for _, c := range fresh {
		freshIDs[c.ID] = struct{}{}
	}

	removed := 0
	for _, c := range old {
		if _, ok := freshIDs[c.ID]; !ok {
			changes = append(changes, Change{CourseID: c.ID, Event: model.AlertDeleted})
			removed++
		}
	}

	if removed > 0 && windowSize == 0 {
		return nil, ErrAllCoursesRemoved
	}

	return changes, nil
}

func inWindow(t, from, to time.Time) bool {
	t = t.UTC()
	return !t.Before(from.UTC()) && t.Before(to.UTC())
}

func sameSecond(a, b time.Time) bool {
	return a.UTC().Truncate(time.Second).Equal(b.UTC().Truncate(time.Second))
}

func sameOptSecond(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return sameSecond(*a, *b)
}

// WindowEnd returns the diff window's upper bound: the next upcoming Sunday
// at 00:00 strictly after now.
func WindowEnd(now time.Time) time.Time {
	days := (7 - int(now.Weekday())) % 7
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, days)
	if !end.After(now) {
		end = end.AddDate(0, 0, 7)
	}
	return end
}
