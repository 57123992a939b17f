package job

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/corpauration/timetable-sync/internal/metrics"
	"github.com/corpauration/timetable-sync/internal/store"
)

// cytechDept is the department tag selecting the students kept in the
// cytech_students snapshot.
const cytechDept = "D : CY TECH"

type StudentsConfig struct {
	DB          *sql.DB
	Provider    CalendarProvider
	Credentials Credentials
	Metrics     *metrics.Registry
	Logger      *slog.Logger
}

// Students refreshes the cytech_students snapshot from the provider's
// resource directory: fetch everything, filter by department, replace the
// table in one transaction.
type Students struct {
	db       *sql.DB
	provider CalendarProvider
	creds    Credentials
	metrics  *metrics.Registry
	logger   *slog.Logger
	students *store.StudentStore
}

func NewStudents(cfg StudentsConfig) *Students {
	return &Students{
		db:       cfg.DB,
		provider: cfg.Provider,
		creds:    cfg.Credentials,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger,
		students: store.NewStudentStore(cfg.DB),
	}
}

func (j *Students) Run(ctx context.Context) error {
	start := time.Now()
	defer metrics.ObserveDuration(j.metrics.Students.Duration, start)

	j.logger.Info("updating students")

	if err := j.provider.Login(ctx, j.creds.Username, j.creds.Password); err != nil {
		j.metrics.Students.Errors.Inc()
		return fmt.Errorf("login: %w", err)
	}

	directory, err := j.provider.FetchStudents(ctx)
	if err != nil {
		j.metrics.Students.Errors.Inc()
		return fmt.Errorf("fetch students: %w", err)
	}

	var ids []int64
	for _, st := range directory {
		if st.Dept == cytechDept {
			ids = append(ids, st.ID)
		}
	}

	err = store.WithTx(j.db, func(tx *sql.Tx) error {
		return j.students.ReplaceCytech(tx, ids)
	})
	if err != nil {
		j.metrics.Students.Errors.Inc()
		return fmt.Errorf("replace students: %w", err)
	}

	j.logger.Info("students updated", "count", len(ids))
	return nil
}
