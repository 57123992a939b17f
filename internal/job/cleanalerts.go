package job

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/corpauration/timetable-sync/internal/diff"
	"github.com/corpauration/timetable-sync/internal/metrics"
	"github.com/corpauration/timetable-sync/internal/store"
)

type CleanAlertsConfig struct {
	DB      *sql.DB
	Metrics *metrics.Registry
	Logger  *slog.Logger
	Now     func() time.Time
}

// CleanAlerts is the weekly retention job pruning course alerts older than
// the previous week. It is the only writer allowed to delete alert rows.
type CleanAlerts struct {
	db      *sql.DB
	metrics *metrics.Registry
	logger  *slog.Logger
	now     func() time.Time
	alerts  *store.AlertStore
}

func NewCleanAlerts(cfg CleanAlertsConfig) *CleanAlerts {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &CleanAlerts{
		db:      cfg.DB,
		metrics: cfg.Metrics,
		logger:  cfg.Logger,
		now:     cfg.Now,
		alerts:  store.NewAlertStore(cfg.DB),
	}
}

func (j *CleanAlerts) Run(ctx context.Context) error {
	start := time.Now()
	defer metrics.ObserveDuration(j.metrics.CleanAlerts.Duration, start)

	now := j.now().UTC().Truncate(time.Second)
	cutoff := diff.WindowEnd(now).AddDate(0, 0, -7)

	var pruned int64
	err := store.WithTx(j.db, func(tx *sql.Tx) error {
		var err error
		pruned, err = j.alerts.DeleteOlderThan(tx, cutoff)
		return err
	})
	if err != nil {
		j.metrics.CleanAlerts.Errors.Inc()
		return fmt.Errorf("clean course alerts: %w", err)
	}

	j.logger.Info("course alerts cleaned", "cutoff", cutoff, "pruned", pruned)
	return nil
}
