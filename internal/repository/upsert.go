package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultBatchSize is the number of rows written per upsert statement.
const DefaultBatchSize = 500

// upsertByID inserts rows or replaces every column of the row with the same id.
// Rows are written in batches inside one transaction so a failed batch leaves
// the table unchanged.
func upsertByID[T any](ctx context.Context, db *gorm.DB, table string, rows []T, batchSize int) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	var affected int
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for start := 0; start < len(rows); start += batchSize {
			end := start + batchSize
			if end > len(rows) {
				end = len(rows)
			}
			batch := rows[start:end]
			result := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				UpdateAll: true,
			}).Create(&batch)
			if result.Error != nil {
				return fmt.Errorf("upsert %s rows %d-%d: %w", table, start, end, result.Error)
			}
			affected += len(batch)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}
