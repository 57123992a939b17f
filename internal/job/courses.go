package job

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.uber.org/multierr"

	"github.com/corpauration/timetable-sync/internal/celcat"
	"github.com/corpauration/timetable-sync/internal/diff"
	"github.com/corpauration/timetable-sync/internal/metrics"
	"github.com/corpauration/timetable-sync/internal/model"
	"github.com/corpauration/timetable-sync/internal/store"
)

// CoursesConfig wires one course sync job.
type CoursesConfig struct {
	DB          *sql.DB
	Provider    CalendarProvider
	Credentials Credentials
	Labels      celcat.Labels
	Metrics     *metrics.Registry
	Logger      *slog.Logger
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Courses is the course sync job: per non-private group with a referent
// student, fetch the academic year, resolve event metadata, diff the current
// week against the store and persist atomically.
type Courses struct {
	db       *sql.DB
	provider CalendarProvider
	creds    Credentials
	labels   celcat.Labels
	metrics  *metrics.Registry
	logger   *slog.Logger
	now      func() time.Time

	courses *store.CourseStore
	alerts  *store.AlertStore
	groups  *store.GroupStore
}

func NewCourses(cfg CoursesConfig) *Courses {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Courses{
		db:       cfg.DB,
		provider: cfg.Provider,
		creds:    cfg.Credentials,
		labels:   cfg.Labels,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger,
		now:      cfg.Now,
		courses:  store.NewCourseStore(cfg.DB),
		alerts:   store.NewAlertStore(cfg.DB),
		groups:   store.NewGroupStore(cfg.DB),
	}
}

// fetchError marks a provider transport failure, fatal for the whole run.
type fetchError struct {
	err error
}

func (e *fetchError) Error() string { return e.err.Error() }
func (e *fetchError) Unwrap() error { return e.err }

func (j *Courses) Run(ctx context.Context) error {
	start := time.Now()
	defer metrics.ObserveDuration(j.metrics.Courses.Duration, start)

	j.logger.Info("updating courses")

	if err := j.provider.Login(ctx, j.creds.Username, j.creds.Password); err != nil {
		j.metrics.Courses.Errors.Inc()
		return fmt.Errorf("login: %w", err)
	}

	refs, err := j.groups.ListReferents()
	if err != nil {
		j.metrics.Courses.Errors.Inc()
		return fmt.Errorf("list group referents: %w", err)
	}

	var runErr error
	for _, ref := range refs {
		err := j.syncGroup(ctx, ref)
		if err == nil {
			continue
		}
		runErr = multierr.Append(runErr, fmt.Errorf("group %d: %w", ref.GroupID, err))

		var fe *fetchError
		if errors.As(err, &fe) {
			// A broken session poisons every remaining fetch; stop here.
			break
		}
	}

	if runErr == nil {
		j.logger.Info("courses updated", "groups", len(refs))
	}
	return runErr
}

// syncGroup runs one fetch/diff/persist cycle. Persistence and guard
// failures roll back this group only; the run continues with the next one.
func (j *Courses) syncGroup(ctx context.Context, ref model.GroupReferent) error {
	start := time.Now()
	defer metrics.ObserveDuration(j.metrics.CoursesGroupsTiming, start)

	j.logger.Info("updating group courses", "group", ref.GroupID, "referent", ref.StudentID)

	now := j.now().UTC().Truncate(time.Second)
	fetchStart, fetchEnd := academicYearWindow(now)

	events, err := j.provider.FetchEvents(ctx, fetchStart, fetchEnd, ref.StudentID)
	if errors.Is(err, celcat.ErrEmptyFetch) {
		// An empty feed means the fetch broke, never "no courses". Skip the
		// group without touching the store.
		j.logger.Error("empty fetch, skipping group", "group", ref.GroupID, "referent", ref.StudentID)
		j.metrics.Courses.Errors.Inc()
		return nil
	}
	if err != nil {
		j.metrics.Courses.Errors.Inc()
		return &fetchError{err: fmt.Errorf("fetch events: %w", err)}
	}

	courses := make([]model.Course, 0, len(events))
	for _, ev := range events {
		details, err := j.provider.FetchSideBarEvents(ctx, ev.ID)
		if err != nil {
			j.metrics.Courses.Errors.Inc()
			return &fetchError{err: fmt.Errorf("fetch side bar of %s: %w", ev.ID, err)}
		}
		meta := celcat.ParseSideBar(details, j.labels)
		courses = append(courses, model.Course{
			ID:       ev.ID,
			Start:    ev.Start,
			End:      ev.End,
			Category: meta.Category,
			Subject:  meta.Subject,
			Rooms:    meta.Rooms,
			Teachers: meta.Teachers,
		})
	}

	windowEnd := diff.WindowEnd(now)

	err = store.WithTx(j.db, func(tx *sql.Tx) error {
		// Snapshot the persisted window before the upserts overwrite it.
		old, err := j.courses.ListGroupWindow(tx, ref.GroupID, now, windowEnd)
		if err != nil {
			return err
		}

		for _, c := range courses {
			if err := j.courses.Upsert(tx, c); err != nil {
				return err
			}
		}

		changes, err := diff.Classify(old, courses, now, windowEnd)
		if err != nil {
			return err
		}
		for _, ch := range changes {
			j.logger.Info("course changed", "group", ref.GroupID, "course", ch.CourseID, "event", ch.Event.String())
			if err := j.alerts.Append(tx, model.CourseAlert{
				CourseID: ch.CourseID,
				GroupID:  ref.GroupID,
				Time:     now,
				Event:    ch.Event,
			}); err != nil {
				return err
			}
		}

		ids := make([]string, len(courses))
		for i, c := range courses {
			ids[i] = c.ID
		}
		return j.courses.ReplaceGroupLinks(tx, ref.GroupID, ids)
	})
	if err != nil {
		j.metrics.Courses.Errors.Inc()
		if errors.Is(err, diff.ErrAllCoursesRemoved) {
			j.logger.Error("mass deletion safeguard tripped, rolling back", "group", ref.GroupID)
			return fmt.Errorf("integrity guard: %w", err)
		}
		return fmt.Errorf("persist: %w", err)
	}

	return nil
}
