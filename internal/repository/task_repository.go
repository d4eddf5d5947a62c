package repository

import (
	"context"
	"errors"
	"fmt"

	"taskflow-api/internal/models"

	"gorm.io/gorm"
)

// ErrTaskNotFound is returned when a task is not found.
var ErrTaskNotFound = errors.New("task not found")

// TaskFilter narrows an assignee's task list at query level.
type TaskFilter struct {
	AssigneeID string
	Priority   models.TaskPriority // empty means any
}

// TaskRepository handles task persistence using GORM.
type TaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository.
func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create inserts a new task.
func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	if err := r.db.WithContext(ctx).Omit("Creator", "Assignee").Create(task).Error; err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// FindByID loads a task without relations.
func (r *TaskRepository) FindByID(ctx context.Context, id string) (*models.Task, error) {
	return r.find(r.db.WithContext(ctx), id)
}

// FindByIDWithUsers loads a task with its creator and assignee.
func (r *TaskRepository) FindByIDWithUsers(ctx context.Context, id string) (*models.Task, error) {
	return r.find(r.db.WithContext(ctx).Preload("Creator").Preload("Assignee"), id)
}

func (r *TaskRepository) find(db *gorm.DB, id string) (*models.Task, error) {
	var task models.Task
	if err := db.First(&task, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return &task, nil
}

// UpdateColumns writes only the named columns of task (plus updated_at).
// Zero values are written too, so false and empty strings persist.
func (r *TaskRepository) UpdateColumns(ctx context.Context, task *models.Task, columns ...string) error {
	if len(columns) == 0 {
		return nil
	}
	selected := append([]string{"updated_at"}, columns...)
	result := r.db.WithContext(ctx).Model(task).Select(selected).Updates(task)
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// Delete permanently removes a task.
func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&models.Task{}, "id = ?", id)
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

func (r *TaskRepository) filtered(ctx context.Context, f TaskFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.Task{}).Where("assignee_id = ?", f.AssigneeID)
	if f.Priority != "" {
		query = query.Where("priority = ?", f.Priority)
	}
	return query
}

// ListAssigned returns one page of tasks matching f, ordered by due date,
// along with the total number of matching rows.
func (r *TaskRepository) ListAssigned(ctx context.Context, f TaskFilter, offset, limit int) ([]models.Task, int64, error) {
	var total int64
	if err := r.filtered(ctx, f).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count tasks: %w", err)
	}

	var tasks []models.Task
	err := r.filtered(ctx, f).
		Preload("Creator").
		Preload("Assignee").
		Order("due_date asc").
		Order("created_at asc").
		Order("id asc").
		Offset(offset).
		Limit(limit).
		Find(&tasks).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch tasks: %w", err)
	}
	return tasks, total, nil
}

// StatusInputs returns the completion flag and due date of every task
// assigned to assigneeID, enough to derive statuses without loading rows.
func (r *TaskRepository) StatusInputs(ctx context.Context, assigneeID string) ([]models.Task, error) {
	var tasks []models.Task
	err := r.filtered(ctx, TaskFilter{AssigneeID: assigneeID}).
		Select("id", "is_completed", "due_date").
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load task stats: %w", err)
	}
	return tasks, nil
}
