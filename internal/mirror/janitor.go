package mirror

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/authdash/authdash/internal/models"
)

// Sweep deletes entries not written since cutoff
func Sweep(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error) {
	result := db.WithContext(ctx).
		Where("updated_at < ?", cutoff).
		Delete(&models.MirrorEntry{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to sweep mirror entries: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// Janitor periodically sweeps entries of devices that went quiet
type Janitor struct {
	db        *gorm.DB
	retention time.Duration
	logger    zerolog.Logger
	cron      *cron.Cron
	now       func() time.Time
}

// NewJanitor schedules a sweep on the given cron spec (e.g. "@hourly")
func NewJanitor(db *gorm.DB, schedule string, retention time.Duration, logger zerolog.Logger) (*Janitor, error) {
	j := &Janitor{
		db:        db,
		retention: retention,
		logger:    logger.With().Str("component", "mirror-janitor").Logger(),
		cron:      cron.New(),
		now:       time.Now,
	}

	if _, err := j.cron.AddFunc(schedule, j.run); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	return j, nil
}

// Start runs the scheduler in the background
func (j *Janitor) Start() {
	j.cron.Start()
	j.logger.Info().Dur("retention", j.retention).Msg("Mirror janitor started")
}

// Stop waits for a running sweep to finish
func (j *Janitor) Stop() {
	<-j.cron.Stop().Done()
}

func (j *Janitor) run() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := Sweep(ctx, j.db, j.now().Add(-j.retention))
	if err != nil {
		j.logger.Error().Err(err).Msg("Mirror sweep failed")
		return
	}
	if n > 0 {
		j.logger.Info().Int64("deleted", n).Msg("Swept stale mirror entries")
	}
}
