// Package loader writes transformed tables into the warehouse: stage, merge on key and,
// for full syncs, soft-delete rows the source no longer returns.
package loader

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/spyai-labs/etl-gcp-splash/internal/config"
	"github.com/spyai-labs/etl-gcp-splash/internal/jobstatus"
	obslogger "github.com/spyai-labs/etl-gcp-splash/internal/observability/logger"
	"github.com/spyai-labs/etl-gcp-splash/internal/ratelimit"
	"github.com/spyai-labs/etl-gcp-splash/internal/transform"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrInvalidConfig = errors.New("invalid_loader_config")
	ErrUnknownKey    = errors.New("unknown_key_column")
)

const (
	ensureAttempts = 3
	stageAttempts  = 4
	retryDelay     = 2 * time.Second
)

type Params struct {
	fx.In

	DB     *gorm.DB
	Config config.Config
	Log    *zap.Logger
}

type Loader struct {
	db    *gorm.DB
	q     quoter
	cfg   config.LoaderConfig
	log   *zap.Logger
	sleep func(ctx context.Context, d time.Duration) error
	delay time.Duration
}

func New(p Params) (*Loader, error) {
	if p.DB == nil {
		return nil, ErrInvalidConfig
	}
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}
	cfg := p.Config.Loader
	if cfg.StagingPrefix == "" && cfg.StagingSuffix == "" {
		cfg.StagingPrefix = "_stg_"
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}
	return &Loader{
		db:    p.DB,
		q:     quoter{db: p.DB},
		cfg:   cfg,
		log:   log.Named("loader").With(zap.String("component", "loader")),
		sleep: ratelimit.Sleep,
		delay: retryDelay,
	}, nil
}

// StagingName is the staging table used for target.
func (l *Loader) StagingName(target string) string {
	return l.cfg.StagingPrefix + target + l.cfg.StagingSuffix
}

// LoadAndMerge stages table and merges it into its target on key. An empty table
// returns zero stats without touching the database.
func (l *Loader) LoadAndMerge(ctx context.Context, table transform.Table, key string, fullSync bool) (jobstatus.Stats, error) {
	if len(table.Rows) == 0 {
		return jobstatus.Stats{}, nil
	}
	target, err := Identifier(table.Name)
	if err != nil {
		return jobstatus.Stats{}, err
	}
	columns := table.Columns()
	if !slices.Contains(columns, key) {
		return jobstatus.Stats{}, fmt.Errorf("%w: %s.%s", ErrUnknownKey, target, key)
	}
	staging := l.StagingName(target)
	log := obslogger.WithContext(ctx, l.log).With(
		zap.String("table", target),
		zap.String("staging", staging),
	)

	var stats jobstatus.Stats
	err = l.retry(ctx, log, "stage", stageAttempts, func(ctx context.Context) error {
		loaded, err := l.stage(ctx, staging, table)
		stats.Loaded = loaded
		return err
	})
	if err != nil {
		return jobstatus.Stats{}, fmt.Errorf("load %s: %w", staging, err)
	}
	log.Info("loader.stage.done", zap.Int64("loaded", stats.Loaded))

	err = l.retry(ctx, log, "ensure_target", ensureAttempts, func(ctx context.Context) error {
		return l.db.WithContext(ctx).Table(target).AutoMigrate(table.Model.New())
	})
	if err != nil {
		return jobstatus.Stats{}, fmt.Errorf("ensure %s: %w", target, err)
	}

	err = l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updated := tx.Exec(l.q.updateSQL(target, staging, key, columns))
		if updated.Error != nil {
			return fmt.Errorf("update: %w", updated.Error)
		}
		inserted := tx.Exec(l.q.insertSQL(target, staging, key, columns))
		if inserted.Error != nil {
			return fmt.Errorf("insert: %w", inserted.Error)
		}
		stats.Merged = updated.RowsAffected + inserted.RowsAffected

		if !fullSync {
			return nil
		}
		deleted := tx.Exec(l.q.softDeleteSQL(target, staging, key, transform.ColumnDeleted), true, false)
		if deleted.Error != nil {
			return fmt.Errorf("mark deletions: %w", deleted.Error)
		}
		stats.Deleted = deleted.RowsAffected
		return nil
	})
	if err != nil {
		return jobstatus.Stats{}, fmt.Errorf("merge %s into %s: %w", staging, target, err)
	}

	log.Info("loader.merge.done",
		zap.Int64("loaded", stats.Loaded),
		zap.Int64("merged", stats.Merged),
		zap.Int64("deleted", stats.Deleted),
		zap.Bool("full_sync", fullSync),
	)
	return stats, nil
}

// stage replaces the staging table with the rows of table.
func (l *Loader) stage(ctx context.Context, staging string, table transform.Table) (int64, error) {
	db := l.db.WithContext(ctx)
	if err := db.Migrator().DropTable(staging); err != nil {
		return 0, fmt.Errorf("drop: %w", err)
	}
	if err := db.Table(staging).AutoMigrate(table.Model.New()); err != nil {
		return 0, fmt.Errorf("create: %w", err)
	}
	rows := make([]map[string]any, len(table.Rows))
	for i, r := range table.Rows {
		rows[i] = r
	}
	res := db.Table(staging).CreateInBatches(rows, l.cfg.BatchSize)
	if res.Error != nil {
		return 0, fmt.Errorf("insert: %w", res.Error)
	}
	return int64(len(rows)), nil
}

func (l *Loader) retry(ctx context.Context, log *zap.Logger, step string, attempts int, fn func(context.Context) error) error {
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if attempt == attempts || ctx.Err() != nil {
			break
		}
		log.Warn("loader.step.retry",
			zap.String("step", step),
			zap.Int("attempt", attempt),
			zap.Duration("delay", l.delay),
			zap.Error(err),
		)
		if sleepErr := l.sleep(ctx, l.delay); sleepErr != nil {
			return errors.Join(err, sleepErr)
		}
	}
	return err
}
