package db

import (
	"context"

	"github.com/taskhub/backend/internal/core/ports"
	"github.com/taskhub/backend/internal/domain"
	"github.com/taskhub/backend/internal/infrastructure/logger"
	"gorm.io/gorm"
)

type commentRepository struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCommentRepository(db *gorm.DB, log *logger.Logger) ports.CommentRepository {
	return &commentRepository{db: db, log: log}
}

func (r *commentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		r.log.Errorw("comment_repo_create_failed", "task_id", comment.TaskID, "error", err)
		return err
	}
	r.log.Infow("comment_repo_create_ok", "id", comment.ID, "task_id", comment.TaskID)
	return nil
}

func (r *commentRepository) GetByTask(ctx context.Context, taskID uint) ([]domain.Comment, error) {
	var comments []domain.Comment
	err := r.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Order("created_at asc").
		Find(&comments).Error
	if err != nil {
		r.log.Errorw("comment_repo_list_failed", "task_id", taskID, "error", err)
		return nil, err
	}
	return comments, nil
}
