package db

import (
	"context"

	"github.com/taskhub/backend/internal/core/ports"
	"github.com/taskhub/backend/internal/domain"
	"github.com/taskhub/backend/internal/infrastructure/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type reminderRepository struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReminderRepository(db *gorm.DB, log *logger.Logger) ports.ReminderRepository {
	return &reminderRepository{db: db, log: log}
}

func (r *reminderRepository) Upsert(ctx context.Context, reminder *domain.Reminder) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "task_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"fire_at", "payload", "generation", "updated_at"}),
		}).
		Create(reminder).Error
	if err != nil {
		r.log.Errorw("reminder_repo_upsert_failed", "task_id", reminder.TaskID, "user_id", reminder.UserID, "error", err)
		return err
	}
	return nil
}

func (r *reminderRepository) Delete(ctx context.Context, taskID, userID uint, generation uint64) error {
	err := r.db.WithContext(ctx).
		Where("task_id = ? AND user_id = ? AND generation <= ?", taskID, userID, generation).
		Delete(&domain.Reminder{}).Error
	if err != nil {
		r.log.Errorw("reminder_repo_delete_failed", "task_id", taskID, "user_id", userID, "error", err)
	}
	return err
}

func (r *reminderRepository) GetAll(ctx context.Context) ([]domain.Reminder, error) {
	var reminders []domain.Reminder
	if err := r.db.WithContext(ctx).Order("fire_at asc").Find(&reminders).Error; err != nil {
		r.log.Errorw("reminder_repo_list_failed", "error", err)
		return nil, err
	}
	return reminders, nil
}
