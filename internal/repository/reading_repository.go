package repository

import (
	"context"

	"gorm.io/gorm"

	"bptracker/internal/model"
)

// ReadingTotals aggregates one owner's readings.
type ReadingTotals struct {
	Count        int64
	SystolicSum  int64
	DiastolicSum int64
}

// ReadingRepository defines reading persistence operations. Every query
// takes the owner id; there is no unscoped access path.
type ReadingRepository interface {
	Create(ctx context.Context, reading *model.Reading) error
	ListByOwner(ctx context.Context, ownerID uint) ([]model.Reading, error)
	DeleteByOwner(ctx context.Context, ownerID, id uint) (bool, error)
	TotalsByOwner(ctx context.Context, ownerID uint) (*ReadingTotals, error)
}

type readingRepository struct {
	db *gorm.DB
}

// NewReadingRepository creates a new reading repository.
func NewReadingRepository(db *gorm.DB) ReadingRepository {
	return &readingRepository{db: db}
}

// Create inserts a new reading.
func (r *readingRepository) Create(ctx context.Context, reading *model.Reading) error {
	return r.db.WithContext(ctx).Create(reading).Error
}

// ListByOwner returns the owner's readings, most recent date first.
// Id breaks ties so the order is stable.
func (r *readingRepository) ListByOwner(ctx context.Context, ownerID uint) ([]model.Reading, error) {
	readings := make([]model.Reading, 0)
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("date DESC").
		Order("id DESC").
		Find(&readings).Error; err != nil {
		return nil, err
	}
	return readings, nil
}

// DeleteByOwner deletes the reading only when both id and owner match.
// It reports false without error when nothing matched.
func (r *readingRepository) DeleteByOwner(ctx context.Context, ownerID, id uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, ownerID).
		Delete(&model.Reading{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// TotalsByOwner counts and sums the owner's readings.
func (r *readingRepository) TotalsByOwner(ctx context.Context, ownerID uint) (*ReadingTotals, error) {
	var totals ReadingTotals
	if err := r.db.WithContext(ctx).
		Model(&model.Reading{}).
		Select("COUNT(*) AS count, COALESCE(SUM(systolic), 0) AS systolic_sum, COALESCE(SUM(diastolic), 0) AS diastolic_sum").
		Where("user_id = ?", ownerID).
		Scan(&totals).Error; err != nil {
		return nil, err
	}
	return &totals, nil
}
