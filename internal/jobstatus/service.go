package jobstatus

import (
	"context"
	"errors"
	"fmt"
	"strings"

	obslogger "github.com/spyai-labs/etl-gcp-splash/internal/observability/logger"
	"github.com/spyai-labs/etl-gcp-splash/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrRunNotFound   = errors.New("run_not_found")
	ErrInvalidRunID  = errors.New("invalid_run_id")
	ErrStoreDisabled = errors.New("status_store_disabled")
)

type Params struct {
	fx.In

	DB   *gorm.DB `optional:"true"`
	Repo Repository
	Log  *zap.Logger
}

type Service struct {
	db   *gorm.DB
	repo Repository
	log  *zap.Logger
}

func New(p Params) *Service {
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}
	repo := p.Repo
	if repo == nil {
		repo = NewRepository()
	}
	return &Service{
		db:   p.DB,
		repo: repo,
		log:  log.Named("jobstatus").With(zap.String("component", "jobstatus")),
	}
}

// Save logs every record and persists them when a database is configured. A missing
// status table is created once and the insert retried.
func (s *Service) Save(ctx context.Context, records []Record) error {
	log := obslogger.WithContext(ctx, s.log)
	for _, r := range records {
		fields := []zap.Field{
			zap.String("run_id", r.RunID),
			zap.String("source", r.Source),
			zap.String("object", r.Object),
			zap.String("status", string(r.Status)),
			zap.Int64("records_loaded", r.RecordsLoaded),
			zap.Int64("records_merged", r.RecordsMerged),
			zap.Int64("records_deleted", r.RecordsDeleted),
			zap.String("log_path", r.LogPath),
		}
		if r.Status == StatusFailure {
			log.Warn("jobstatus.record", fields...)
			continue
		}
		log.Info("jobstatus.record", fields...)
	}

	if s.db == nil || len(records) == 0 {
		return nil
	}
	err := s.repo.Insert(ctx, s.db, records)
	if err != nil && db.IsMissingTableErr(err) {
		log.Warn("jobstatus.table.missing", zap.Error(err))
		if mErr := s.db.WithContext(ctx).AutoMigrate(&Record{}); mErr != nil {
			return fmt.Errorf("create status table: %w", mErr)
		}
		err = s.repo.Insert(ctx, s.db, records)
	}
	if err != nil {
		return fmt.Errorf("save job status: %w", err)
	}
	return nil
}

func (s *Service) ListByRun(ctx context.Context, runID string) ([]Record, error) {
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return nil, ErrInvalidRunID
	}
	if s.db == nil {
		return nil, ErrStoreDisabled
	}
	records, err := s.repo.ListByRun(ctx, s.db, runID)
	if err != nil {
		if db.IsMissingTableErr(err) {
			return nil, ErrRunNotFound
		}
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrRunNotFound
	}
	return records, nil
}
