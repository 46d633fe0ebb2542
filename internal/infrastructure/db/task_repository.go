package db

import (
	"context"
	"time"

	"github.com/taskhub/backend/internal/core/ports"
	"github.com/taskhub/backend/internal/domain"
	"github.com/taskhub/backend/internal/infrastructure/logger"
	"gorm.io/gorm"
)

type taskRepository struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTaskRepository(db *gorm.DB, log *logger.Logger) ports.TaskRepository {
	return &taskRepository{db: db, log: log}
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		r.log.Errorw("task_repo_create_failed", "owner_id", task.OwnerID, "error", err)
		return err
	}
	r.log.Infow("task_repo_create_ok", "id", task.ID, "owner_id", task.OwnerID)
	return nil
}

func (r *taskRepository) GetByID(ctx context.Context, id uint) (*domain.Task, error) {
	var task domain.Task
	if err := r.db.WithContext(ctx).First(&task, id).Error; err != nil {
		r.log.Errorw("task_repo_get_failed", "id", id, "error", err)
		return nil, err
	}
	return &task, nil
}

func (r *taskRepository) GetByOwner(ctx context.Context, ownerID uint) ([]domain.Task, error) {
	var tasks []domain.Task
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at desc").
		Find(&tasks).Error
	if err != nil {
		r.log.Errorw("task_repo_get_by_owner_failed", "owner_id", ownerID, "error", err)
		return nil, err
	}
	return tasks, nil
}

func (r *taskRepository) GetOverdue(ctx context.Context, now time.Time) ([]domain.Task, error) {
	var tasks []domain.Task
	err := r.db.WithContext(ctx).
		Where("deadline IS NOT NULL AND deadline < ? AND status IN ?", now,
			[]domain.TaskStatus{domain.TaskStatusPending, domain.TaskStatusInProgress}).
		Find(&tasks).Error
	if err != nil {
		r.log.Errorw("task_repo_get_overdue_failed", "error", err)
		return nil, err
	}
	return tasks, nil
}

func (r *taskRepository) Update(ctx context.Context, task *domain.Task) error {
	if err := r.db.WithContext(ctx).Save(task).Error; err != nil {
		r.log.Errorw("task_repo_update_failed", "id", task.ID, "error", err)
		return err
	}
	r.log.Infow("task_repo_update_ok", "id", task.ID, "status", task.Status)
	return nil
}

func (r *taskRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&domain.Task{}, id).Error; err != nil {
		r.log.Errorw("task_repo_delete_failed", "id", id, "error", err)
		return err
	}
	r.log.Infow("task_repo_delete_ok", "id", id)
	return nil
}
