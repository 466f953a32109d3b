package repository

import (
	"context"

	"github.com/salesops/crm-dashboard/internal/domain"
	"gorm.io/gorm"
)

type DealRepository struct {
	db *gorm.DB
}

func NewDealRepository(db *gorm.DB) *DealRepository {
	return &DealRepository{db: db}
}

// UpsertBatch writes deals by id. Pipeline and commercial flags are derived
// from the stage id before writing so stored rows never disagree with it.
func (r *DealRepository) UpsertBatch(ctx context.Context, deals []domain.Deal, batchSize int) (int, error) {
	for i := range deals {
		st := deals[i].Stage()
		deals[i].Pipeline = st.Pipeline
		deals[i].IsCommercial = st.IsCommercial()
		deals[i].OpportunityEUR = deals[i].Amount()
	}
	return upsertByID(ctx, r.db, "deals", deals, batchSize)
}

// List returns every deal ordered by id.
func (r *DealRepository) List(ctx context.Context) ([]domain.Deal, error) {
	var deals []domain.Deal
	err := r.db.WithContext(ctx).Order("id").Find(&deals).Error
	return deals, err
}

func (r *DealRepository) GetByID(ctx context.Context, id string) (*domain.Deal, error) {
	var deal domain.Deal
	err := r.db.WithContext(ctx).First(&deal, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &deal, nil
}

// CountByPipeline returns the number of stored deals per pipeline.
func (r *DealRepository) CountByPipeline(ctx context.Context) (map[domain.Pipeline]int64, error) {
	var rows []struct {
		Pipeline domain.Pipeline
		Count    int64
	}
	err := r.db.WithContext(ctx).
		Model(&domain.Deal{}).
		Select("pipeline, COUNT(*) AS count").
		Group("pipeline").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[domain.Pipeline]int64, len(rows))
	for _, row := range rows {
		out[row.Pipeline] = row.Count
	}
	return out, nil
}
