package repository

import (
	"context"

	"github.com/salesops/crm-dashboard/internal/domain"
	"gorm.io/gorm"
)

type QuoteRepository struct {
	db *gorm.DB
}

func NewQuoteRepository(db *gorm.DB) *QuoteRepository {
	return &QuoteRepository{db: db}
}

func (r *QuoteRepository) UpsertBatch(ctx context.Context, quotes []domain.Quote, batchSize int) (int, error) {
	for i := range quotes {
		quotes[i].OpportunityEUR = domain.ToReportingCurrency(quotes[i].Opportunity, quotes[i].Currency)
	}
	return upsertByID(ctx, r.db, "quotes", quotes, batchSize)
}

func (r *QuoteRepository) List(ctx context.Context) ([]domain.Quote, error) {
	var quotes []domain.Quote
	err := r.db.WithContext(ctx).Order("id").Find(&quotes).Error
	return quotes, err
}
