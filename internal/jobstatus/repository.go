package jobstatus

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, records []Record) error
	ListByRun(ctx context.Context, db *gorm.DB, runID string) ([]Record, error)
}

type repo struct{}

func NewRepository() Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	return db.WithContext(ctx).CreateInBatches(records, 100).Error
}

func (r *repo) ListByRun(ctx context.Context, db *gorm.DB, runID string) ([]Record, error) {
	var out []Record
	err := db.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("id asc").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
