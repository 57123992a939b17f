package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// MisfirePolicy decides what happens when a scheduled fire time was missed,
// for instance because the process was down over it.
type MisfirePolicy int

const (
	// FireNow fires immediately once, then resumes the regular cadence,
	// skipping the missed fires rather than replaying them back to back.
	FireNow MisfirePolicy = iota
	// FireAndProceed fires once and recomputes the next fire time from the
	// current time.
	FireAndProceed
)

// Trigger produces the fire times of one scheduled job.
type Trigger interface {
	// First returns the initial fire time when the trigger is registered.
	First(now time.Time) time.Time
	// Next returns the fire time following prev.
	Next(prev time.Time) time.Time
	Misfire() MisfirePolicy
	// QueueOverlap reports whether a fire that arrives while the job is
	// still running is queued (true) or dropped with a log (false).
	QueueOverlap() bool
}

// IntervalTrigger fires every Every, the first time StartDelay after
// registration. Overlapping fires are queued.
type IntervalTrigger struct {
	Every      time.Duration
	StartDelay time.Duration
	Policy     MisfirePolicy
}

func (t IntervalTrigger) First(now time.Time) time.Time { return now.Add(t.StartDelay) }
func (t IntervalTrigger) Next(prev time.Time) time.Time { return prev.Add(t.Every) }
func (t IntervalTrigger) Misfire() MisfirePolicy        { return t.Policy }
func (t IntervalTrigger) QueueOverlap() bool            { return true }

// CalendarTrigger fires weekly at a fixed weekday, hour and minute.
// Overlapping fires are dropped.
type CalendarTrigger struct {
	schedule cron.Schedule
	policy   MisfirePolicy
}

// Weekly builds a calendar trigger firing every week on the given weekday at
// hour:minute.
func Weekly(day time.Weekday, hour, minute int, policy MisfirePolicy) (CalendarTrigger, error) {
	spec := fmt.Sprintf("%d %d * * %d", minute, hour, int(day))
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return CalendarTrigger{}, fmt.Errorf("parse schedule %q: %w", spec, err)
	}
	return CalendarTrigger{schedule: schedule, policy: policy}, nil
}

func (t CalendarTrigger) First(now time.Time) time.Time { return t.schedule.Next(now) }
func (t CalendarTrigger) Next(prev time.Time) time.Time { return t.schedule.Next(prev) }
func (t CalendarTrigger) Misfire() MisfirePolicy        { return t.policy }
func (t CalendarTrigger) QueueOverlap() bool            { return false }
