package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"habit-tracker/internal/model"
)

// TaskRepository handles persistence of tasks, habits and their per-date completions.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// List returns every task, most recent anchor date first.
func (r *TaskRepository) List(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).
		Order("date DESC, created_at DESC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// UpdateBaseStatus sets the stored status of a task, independent of any date.
func (r *TaskRepository) UpdateBaseStatus(ctx context.Context, id string, status model.TaskStatus) error {
	if err := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ?", id).
		Update("status", status).Error; err != nil {
		return fmt.Errorf("update task status: %w", err)
	}
	return nil
}

// UpsertCompletion stores the status of one occurrence, replacing any existing row.
func (r *TaskRepository) UpsertCompletion(ctx context.Context, taskID, dateKey string, status model.TaskStatus) error {
	completion := model.TaskCompletion{TaskID: taskID, Date: dateKey, Status: status}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "task_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"status"}),
	}).Create(&completion).Error; err != nil {
		return fmt.Errorf("upsert completion: %w", err)
	}
	return nil
}

func (r *TaskRepository) ListCompletions(ctx context.Context) ([]model.TaskCompletion, error) {
	var completions []model.TaskCompletion
	if err := r.db.WithContext(ctx).Find(&completions).Error; err != nil {
		return nil, fmt.Errorf("list completions: %w", err)
	}
	return completions, nil
}
