package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"habit-tracker/internal/model"
)

// MoodRepository stores one mood per date.
type MoodRepository struct {
	db *gorm.DB
}

func NewMoodRepository(db *gorm.DB) *MoodRepository {
	return &MoodRepository{db: db}
}

// Save inserts mood or replaces the mood already stored for its date and
// returns the stored row. The original id and creation time survive a replace.
func (r *MoodRepository) Save(ctx context.Context, mood *model.Mood) (*model.Mood, error) {
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"mood"}),
	}).Create(mood).Error; err != nil {
		return nil, fmt.Errorf("save mood: %w", err)
	}
	stored, err := r.GetByDate(ctx, mood.Date)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, fmt.Errorf("save mood: row for %s missing after upsert", mood.Date)
	}
	return stored, nil
}

// GetByDate returns nil without error when no mood is logged for date.
func (r *MoodRepository) GetByDate(ctx context.Context, date string) (*model.Mood, error) {
	var mood model.Mood
	err := r.db.WithContext(ctx).Where("date = ?", date).First(&mood).Error
	switch {
	case err == nil:
		return &mood, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil
	default:
		return nil, fmt.Errorf("find mood: %w", err)
	}
}

func (r *MoodRepository) ListAll(ctx context.Context) ([]model.Mood, error) {
	var moods []model.Mood
	if err := r.db.WithContext(ctx).Order("date DESC").Find(&moods).Error; err != nil {
		return nil, fmt.Errorf("list moods: %w", err)
	}
	return moods, nil
}
