package db

import (
	"context"

	"github.com/taskhub/backend/internal/core/ports"
	"github.com/taskhub/backend/internal/domain"
	"github.com/taskhub/backend/internal/infrastructure/logger"
	"gorm.io/gorm"
)

type notificationRepository struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewNotificationRepository(db *gorm.DB, log *logger.Logger) ports.NotificationRepository {
	return &notificationRepository{db: db, log: log}
}

func (r *notificationRepository) Create(ctx context.Context, notification *domain.Notification) error {
	if err := r.db.WithContext(ctx).Create(notification).Error; err != nil {
		r.log.Errorw("notification_repo_create_failed", "user_id", notification.UserID, "error", err)
		return err
	}
	return nil
}

func (r *notificationRepository) GetByUser(ctx context.Context, userID uint, unreadOnly bool) ([]domain.Notification, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("read = ?", false)
	}
	var notifications []domain.Notification
	if err := query.Order("created_at desc").Find(&notifications).Error; err != nil {
		r.log.Errorw("notification_repo_list_failed", "user_id", userID, "error", err)
		return nil, err
	}
	return notifications, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, userID, notificationID uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("read", true)
	if result.Error != nil {
		r.log.Errorw("notification_repo_mark_read_failed", "id", notificationID, "error", result.Error)
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID uint) error {
	err := r.db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Update("read", true).Error
	if err != nil {
		r.log.Errorw("notification_repo_mark_all_read_failed", "user_id", userID, "error", err)
	}
	return err
}

func (r *notificationRepository) Delete(ctx context.Context, userID, notificationID uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Delete(&domain.Notification{})
	if result.Error != nil {
		r.log.Errorw("notification_repo_delete_failed", "id", notificationID, "error", result.Error)
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *notificationRepository) CountByType(ctx context.Context, userID uint) (map[domain.NotificationType]int64, error) {
	var rows []struct {
		Type  domain.NotificationType
		Count int64
	}
	err := r.db.WithContext(ctx).
		Model(&domain.Notification{}).
		Select("type, count(*) as count").
		Where("user_id = ?", userID).
		Group("type").
		Scan(&rows).Error
	if err != nil {
		r.log.Errorw("notification_repo_count_failed", "user_id", userID, "error", err)
		return nil, err
	}

	counts := make(map[domain.NotificationType]int64, len(rows))
	for _, row := range rows {
		counts[row.Type] = row.Count
	}
	return counts, nil
}
