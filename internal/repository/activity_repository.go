package repository

import (
	"context"
	"time"

	"github.com/salesops/crm-dashboard/internal/domain"
	"gorm.io/gorm"
)

type ActivityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// UpsertBatch writes activities by id.
func (r *ActivityRepository) UpsertBatch(ctx context.Context, activities []domain.Activity, batchSize int) (int, error) {
	return upsertByID(ctx, r.db, "activities", activities, batchSize)
}

// List returns every activity ordered by id.
func (r *ActivityRepository) List(ctx context.Context) ([]domain.Activity, error) {
	var activities []domain.Activity
	err := r.db.WithContext(ctx).Order("id").Find(&activities).Error
	return activities, err
}

// ListForOwner returns the activities attached to one lead or deal, newest first.
func (r *ActivityRepository) ListForOwner(ctx context.Context, ownerType int, ownerID string) ([]domain.Activity, error) {
	var activities []domain.Activity
	err := r.db.WithContext(ctx).
		Where("owner_type_id = ? AND owner_id = ?", ownerType, ownerID).
		Order("created DESC").
		Find(&activities).Error
	return activities, err
}

// DeleteCreatedBefore prunes activities older than the sync lookback window.
// Undated activities are kept.
func (r *ActivityRepository) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("created IS NOT NULL AND created < ?", cutoff).
		Delete(&domain.Activity{})
	return result.RowsAffected, result.Error
}
