package ports

import (
	"context"
	"time"

	"github.com/taskhub/backend/internal/domain"
)

type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) error
	GetByID(ctx context.Context, id uint) (*domain.Task, error)
	GetByOwner(ctx context.Context, ownerID uint) ([]domain.Task, error)
	GetOverdue(ctx context.Context, now time.Time) ([]domain.Task, error)
	Update(ctx context.Context, task *domain.Task) error
	Delete(ctx context.Context, id uint) error
}

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uint) (*domain.User, error)
	GetByExternalID(ctx context.Context, externalID string) (*domain.User, error)
	GetAll(ctx context.Context) ([]domain.User, error)
	Update(ctx context.Context, user *domain.User) error
}

type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	GetByTask(ctx context.Context, taskID uint) ([]domain.Comment, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, notification *domain.Notification) error
	GetByUser(ctx context.Context, userID uint, unreadOnly bool) ([]domain.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID uint) (bool, error)
	MarkAllRead(ctx context.Context, userID uint) error
	Delete(ctx context.Context, userID, notificationID uint) (bool, error)
	CountByType(ctx context.Context, userID uint) (map[domain.NotificationType]int64, error)
}

type ReminderRepository interface {
	Upsert(ctx context.Context, reminder *domain.Reminder) error
	// Delete removes the row only while its generation is at most the given
	// one, so a concurrently upserted replacement survives.
	Delete(ctx context.Context, taskID, userID uint, generation uint64) error
	GetAll(ctx context.Context) ([]domain.Reminder, error)
}
