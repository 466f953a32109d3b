package repository

import (
	"context"

	"github.com/salesops/crm-dashboard/internal/domain"
	"gorm.io/gorm"
)

type LeadRepository struct {
	db *gorm.DB
}

func NewLeadRepository(db *gorm.DB) *LeadRepository {
	return &LeadRepository{db: db}
}

// UpsertBatch writes leads by id and returns the number of rows written.
func (r *LeadRepository) UpsertBatch(ctx context.Context, leads []domain.Lead, batchSize int) (int, error) {
	return upsertByID(ctx, r.db, "leads", leads, batchSize)
}

// List returns every lead ordered by id.
func (r *LeadRepository) List(ctx context.Context) ([]domain.Lead, error) {
	var leads []domain.Lead
	err := r.db.WithContext(ctx).Order("id").Find(&leads).Error
	return leads, err
}

func (r *LeadRepository) GetByID(ctx context.Context, id string) (*domain.Lead, error) {
	var lead domain.Lead
	err := r.db.WithContext(ctx).First(&lead, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

func (r *LeadRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Lead{}).Count(&count).Error
	return count, err
}
