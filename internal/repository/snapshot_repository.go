package repository

import (
	"context"
	"fmt"

	"github.com/salesops/crm-dashboard/internal/domain"
	"gorm.io/gorm"
)

// SnapshotRepository assembles a read-only snapshot of every synchronized table.
type SnapshotRepository struct {
	db *gorm.DB
}

func NewSnapshotRepository(db *gorm.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Load reads all tables in one transaction so a concurrent sync cannot leave
// the snapshot half old and half new.
func (r *SnapshotRepository) Load(ctx context.Context) (*domain.Snapshot, error) {
	snap := &domain.Snapshot{}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if snap.Leads, err = NewLeadRepository(tx).List(ctx); err != nil {
			return fmt.Errorf("load leads: %w", err)
		}
		if snap.Deals, err = NewDealRepository(tx).List(ctx); err != nil {
			return fmt.Errorf("load deals: %w", err)
		}
		if snap.Activities, err = NewActivityRepository(tx).List(ctx); err != nil {
			return fmt.Errorf("load activities: %w", err)
		}
		if snap.Users, err = NewUserRepository(tx).List(ctx); err != nil {
			return fmt.Errorf("load users: %w", err)
		}
		if snap.Quotes, err = NewQuoteRepository(tx).List(ctx); err != nil {
			return fmt.Errorf("load quotes: %w", err)
		}
		if snap.Sources, err = NewSourceRepository(tx).NameMap(ctx); err != nil {
			return fmt.Errorf("load sources: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}
