package repository

import (
	"context"
	"errors"

	"github.com/salesops/crm-dashboard/internal/domain"
	"gorm.io/gorm"
)

type SyncRunRepository struct {
	db *gorm.DB
}

func NewSyncRunRepository(db *gorm.DB) *SyncRunRepository {
	return &SyncRunRepository{db: db}
}

func (r *SyncRunRepository) Create(ctx context.Context, run *domain.SyncRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *SyncRunRepository) Update(ctx context.Context, run *domain.SyncRun) error {
	return r.db.WithContext(ctx).Save(run).Error
}

// ListRecent returns the latest runs, newest first.
func (r *SyncRunRepository) ListRecent(ctx context.Context, limit int) ([]domain.SyncRun, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []domain.SyncRun
	err := r.db.WithContext(ctx).
		Order("started_at DESC").
		Limit(limit).
		Find(&runs).Error
	return runs, err
}

// LatestSucceeded returns the newest successful run, or nil when none exists.
func (r *SyncRunRepository) LatestSucceeded(ctx context.Context) (*domain.SyncRun, error) {
	var run domain.SyncRun
	err := r.db.WithContext(ctx).
		Where("status = ?", domain.SyncRunSucceeded).
		Order("started_at DESC").
		First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// FailRunning marks runs left in the running state by a crashed process.
func (r *SyncRunRepository) FailRunning(ctx context.Context, reason string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&domain.SyncRun{}).
		Where("status = ?", domain.SyncRunRunning).
		Updates(map[string]interface{}{"status": domain.SyncRunFailed, "error": reason})
	return result.RowsAffected, result.Error
}
