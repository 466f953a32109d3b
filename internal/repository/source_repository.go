package repository

import (
	"context"

	"github.com/salesops/crm-dashboard/internal/domain"
	"gorm.io/gorm"
)

type SourceRepository struct {
	db *gorm.DB
}

func NewSourceRepository(db *gorm.DB) *SourceRepository {
	return &SourceRepository{db: db}
}

func (r *SourceRepository) UpsertBatch(ctx context.Context, sources []domain.Source, batchSize int) (int, error) {
	return upsertByID(ctx, r.db, "sources", sources, batchSize)
}

// NameMap returns source display names keyed by source id.
func (r *SourceRepository) NameMap(ctx context.Context) (map[string]string, error) {
	var sources []domain.Source
	if err := r.db.WithContext(ctx).Find(&sources).Error; err != nil {
		return nil, err
	}
	names := make(map[string]string, len(sources))
	for _, s := range sources {
		names[s.ID] = s.Name
	}
	return names, nil
}
