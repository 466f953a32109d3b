package repository

import (
	"context"

	"github.com/salesops/crm-dashboard/internal/domain"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// UpsertBatch writes users by id.
func (r *UserRepository) UpsertBatch(ctx context.Context, users []domain.User, batchSize int) (int, error) {
	return upsertByID(ctx, r.db, "users", users, batchSize)
}

// DeactivateMissing marks every stored user whose id is not in activeIDs as
// inactive. The CRM only returns active users, so a user missing from a full
// fetch has left.
func (r *UserRepository) DeactivateMissing(ctx context.Context, activeIDs []string) (int64, error) {
	query := r.db.WithContext(ctx).Model(&domain.User{}).Where("active = ?", true)
	if len(activeIDs) > 0 {
		query = query.Where("id NOT IN ?", activeIDs)
	}
	result := query.Update("active", false)
	return result.RowsAffected, result.Error
}

// List returns every user ordered by id.
func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	err := r.db.WithContext(ctx).Order("id").Find(&users).Error
	return users, err
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}
