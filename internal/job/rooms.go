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

type RoomsConfig struct {
	DB      *sql.DB
	Metrics *metrics.Registry
	Logger  *slog.Logger
}

// Rooms rebuilds the room availability table from the persisted courses, in
// one transaction. Purely store-local, no remote fetch.
type Rooms struct {
	db      *sql.DB
	metrics *metrics.Registry
	logger  *slog.Logger
	rooms   *store.RoomStore
}

func NewRooms(cfg RoomsConfig) *Rooms {
	return &Rooms{
		db:      cfg.DB,
		metrics: cfg.Metrics,
		logger:  cfg.Logger,
		rooms:   store.NewRoomStore(cfg.DB),
	}
}

func (j *Rooms) Run(ctx context.Context) error {
	start := time.Now()
	defer metrics.ObserveDuration(j.metrics.Rooms.Duration, start)

	j.logger.Info("updating room availabilities")

	err := store.WithTx(j.db, func(tx *sql.Tx) error {
		return j.rooms.RebuildAvailabilities(tx)
	})
	if err != nil {
		j.metrics.Rooms.Errors.Inc()
		return fmt.Errorf("rebuild availabilities: %w", err)
	}

	j.logger.Info("room availabilities updated")
	return nil
}
