package scheduler

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/sagarwalke-dev/portfolio-engine/internal/database"
)

// WALCheckpointJob truncates the WAL files of all databases to prevent
// unbounded growth between checkpoints.
type WALCheckpointJob struct {
	databases []*database.DB
	log       zerolog.Logger
}

// NewWALCheckpointJob creates a new WAL checkpoint job
func NewWALCheckpointJob(databases []*database.DB, log zerolog.Logger) *WALCheckpointJob {
	return &WALCheckpointJob{
		databases: databases,
		log:       log.With().Str("job", "wal_checkpoint").Logger(),
	}
}

// Name returns the job name
func (j *WALCheckpointJob) Name() string { return "wal_checkpoint" }

// Run checkpoints every database. A failure on one database does not stop
// the others; the last error is returned.
func (j *WALCheckpointJob) Run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var lastErr error
	for _, db := range j.databases {
		if err := db.WALCheckpoint("TRUNCATE"); err != nil {
			j.log.Error().Err(err).Str("database", db.Name()).Msg("WAL checkpoint failed")
			lastErr = err
			continue
		}
		j.log.Debug().Str("database", db.Name()).Msg("WAL checkpoint done")
	}
	return lastErr
}

// ExpiredCleaner removes expired cache entries
type ExpiredCleaner interface {
	DeleteExpired() (int64, error)
}

// CacheCleanupJob prunes expired quote cache entries
type CacheCleanupJob struct {
	cache ExpiredCleaner
	log   zerolog.Logger
}

// NewCacheCleanupJob creates a new cache cleanup job
func NewCacheCleanupJob(cache ExpiredCleaner, log zerolog.Logger) *CacheCleanupJob {
	return &CacheCleanupJob{
		cache: cache,
		log:   log.With().Str("job", "cache_cleanup").Logger(),
	}
}

// Name returns the job name
func (j *CacheCleanupJob) Name() string { return "cache_cleanup" }

// Run deletes expired cache entries
func (j *CacheCleanupJob) Run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	removed, err := j.cache.DeleteExpired()
	if err != nil {
		return err
	}
	if removed > 0 {
		j.log.Info().Int64("removed", removed).Msg("Expired cache entries removed")
	}
	return nil
}
